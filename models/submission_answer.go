package models

// SubmissionAnswer holds one leaf-field answer. Repeater children get one
// row per group instance, distinguished by RepeatIndex; plain fields always
// use RepeatIndex 0.
type SubmissionAnswer struct {
	ID           uint    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SubmissionID uint    `gorm:"column:submission_id;not null;index" json:"submission_id"`
	FieldID      uint    `gorm:"column:field_id;not null;index" json:"field_id"`
	Answer       *string `gorm:"column:answer;type:text" json:"answer"`
	FilePath     *string `gorm:"column:file_path;size:500" json:"file_path,omitempty"`
	FileName     *string `gorm:"column:file_name;size:255" json:"file_name,omitempty"`
	FileSize     *int64  `gorm:"column:file_size" json:"file_size,omitempty"`
	RepeatIndex  int     `gorm:"column:repeat_index;not null;default:0" json:"repeat_index"`

	Submission *FormSubmission `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"-"`
	Field      *FormField      `gorm:"foreignKey:FieldID;constraint:OnDelete:CASCADE" json:"-"`
}

func (SubmissionAnswer) TableName() string {
	return "submission_answers"
}
