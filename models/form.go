package models

import "time"

const (
	FormStatusActive   = "active"
	FormStatusInactive = "inactive"
)

type Form struct {
	ID                       uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title                    string    `gorm:"column:title;size:255;not null" json:"title"`
	Description              string    `gorm:"column:description;type:text" json:"description"`
	Slug                     string    `gorm:"column:slug;size:255;uniqueIndex;not null" json:"slug"`
	CreatedBy                uint      `gorm:"column:created_by;not null" json:"created_by"`
	Status                   string    `gorm:"column:status;size:20;not null;default:'active'" json:"status"`
	AllowMultipleSubmissions bool      `gorm:"column:allow_multiple_submissions;not null;default:false" json:"allow_multiple_submissions"`
	ShowDepartmentField      bool      `gorm:"column:show_department_field;not null;default:false" json:"show_department_field"`
	CreatedAt                time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Creator *Admin `gorm:"foreignKey:CreatedBy;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	Fields      []FormField      `gorm:"foreignKey:FormID" json:"fields,omitempty"`
	Submissions []FormSubmission `gorm:"foreignKey:FormID" json:"-"`
	Departments []Department     `gorm:"many2many:form_departments;" json:"departments,omitempty"`
}

func (Form) TableName() string {
	return "forms"
}
