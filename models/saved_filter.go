package models

import "time"

// SavedFilter stores reusable submission list criteria as a JSON document.
// The criteria are typed (services.FilterCriteria) and applied exclusively
// through parameterized query clauses.
type SavedFilter struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	AdminID   uint      `gorm:"column:admin_id;not null;index" json:"admin_id"`
	FormID    uint      `gorm:"column:form_id;not null;index" json:"form_id"`
	Name      string    `gorm:"column:name;size:150;not null" json:"name"`
	Criteria  string    `gorm:"column:criteria;type:text;not null" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Admin *Admin `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
	Form  *Form  `gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE" json:"-"`
}

func (SavedFilter) TableName() string {
	return "saved_filters"
}
