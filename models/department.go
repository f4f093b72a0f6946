package models

import "time"

type Department struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"column:name;size:150;not null" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	ManagerID   *uint     `gorm:"column:manager_id" json:"manager_id"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Manager *Admin `gorm:"foreignKey:ManagerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	Forms []Form `gorm:"many2many:form_departments;" json:"-"`
}

func (Department) TableName() string {
	return "departments"
}
