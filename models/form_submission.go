package models

import "time"

const (
	SubmissionStatusNew      = "new"
	SubmissionStatusReviewed = "reviewed"
	SubmissionStatusArchived = "archived"
)

type FormSubmission struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FormID        uint      `gorm:"column:form_id;not null;index" json:"form_id"`
	SubmittedBy   string    `gorm:"column:submitted_by;size:150;not null" json:"submitted_by"`
	DepartmentID  *uint     `gorm:"column:department_id" json:"department_id"`
	Status        string    `gorm:"column:status;size:20;not null;default:'new'" json:"status"`
	SubmittedAt   time.Time `gorm:"column:submitted_at;autoCreateTime" json:"submitted_at"`
	IPAddress     string    `gorm:"column:ip_address;size:45" json:"ip_address,omitempty"`
	ReferenceCode string    `gorm:"column:reference_code;size:40;uniqueIndex;not null" json:"reference_code"`

	Form       *Form       `gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE" json:"-"`
	Department *Department `gorm:"foreignKey:DepartmentID;references:ID;constraint:OnDelete:SET NULL;" json:"department,omitempty"`

	Answers []SubmissionAnswer `gorm:"foreignKey:SubmissionID" json:"answers,omitempty"`
}

func (FormSubmission) TableName() string {
	return "form_submissions"
}
