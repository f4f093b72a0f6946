package models

import "time"

// FormTemplate is a reusable snapshot of a form definition (form attributes
// plus its field tree, repeater children included), stored as JSON.
type FormTemplate struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"column:name;size:255;not null" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Definition  string    `gorm:"column:definition;type:text;not null" json:"-"`
	CreatedBy   uint      `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (FormTemplate) TableName() string {
	return "form_templates"
}
