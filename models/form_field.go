package models

import "time"

// Field types understood by the renderer and the submission validator.
const (
	FieldTypeText     = "text"
	FieldTypeTextarea = "textarea"
	FieldTypeEmail    = "email"
	FieldTypeNumber   = "number"
	FieldTypeDate     = "date"
	FieldTypeTime     = "time"
	FieldTypeSelect   = "select"
	FieldTypeRadio    = "radio"
	FieldTypeCheckbox = "checkbox"
	FieldTypeFile     = "file"
	FieldTypeRepeater = "repeater"
)

const (
	SourceTypeStatic  = "static"
	SourceTypeDynamic = "dynamic"
)

type FormField struct {
	ID              uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FormID          uint      `gorm:"column:form_id;not null;uniqueIndex:idx_form_field_key" json:"form_id"`
	FieldType       string    `gorm:"column:field_type;size:30;not null" json:"field_type"`
	Label           string    `gorm:"column:label;size:255;not null" json:"label"`
	Placeholder     string    `gorm:"column:placeholder;size:255" json:"placeholder"`
	IsRequired      bool      `gorm:"column:is_required;not null;default:false" json:"is_required"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	FieldOptions    string    `gorm:"column:field_options;type:text" json:"-"`
	SourceType      string    `gorm:"column:source_type;size:20;not null;default:'static'" json:"source_type"`
	ParentFieldID   *uint     `gorm:"column:parent_field_id" json:"parent_field_id"`
	FieldKey        string    `gorm:"column:field_key;size:150;not null;uniqueIndex:idx_form_field_key" json:"field_key"`
	OrderIndex      int       `gorm:"column:order_index;not null;default:0" json:"order_index"`
	ValidationRules string    `gorm:"column:validation_rules;type:text" json:"-"`
	HelperText      string    `gorm:"column:helper_text;size:500" json:"helper_text"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Form    *Form              `gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE" json:"-"`
	Parent  *FormField         `gorm:"foreignKey:ParentFieldID" json:"-"`
	Answers []SubmissionAnswer `gorm:"foreignKey:FieldID" json:"-"`
}

func (FormField) TableName() string {
	return "form_fields"
}

// HasOptions reports whether the type stores an option list.
func (f FormField) HasOptions() bool {
	switch f.FieldType {
	case FieldTypeSelect, FieldTypeRadio, FieldTypeCheckbox:
		return true
	}
	return false
}
