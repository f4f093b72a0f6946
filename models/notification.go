package models

import "time"

type Notification struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	AdminID   uint      `gorm:"column:admin_id;not null;index" json:"admin_id"`
	Title     string    `gorm:"column:title;size:255;not null" json:"title"`
	Body      string    `gorm:"column:body;type:text" json:"body"`
	Read      bool      `gorm:"column:read;not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Admin *Admin `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}
