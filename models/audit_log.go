package models

import "time"

type AuditLog struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	AdminID    *uint     `gorm:"column:admin_id;index" json:"admin_id"`
	Action     string    `gorm:"column:action;size:60;not null" json:"action"`
	EntityType string    `gorm:"column:entity_type;size:40;not null" json:"entity_type"`
	EntityID   uint      `gorm:"column:entity_id" json:"entity_id"`
	Details    string    `gorm:"column:details;type:text" json:"details,omitempty"`
	IPAddress  string    `gorm:"column:ip_address;size:45" json:"ip_address,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Admin *Admin `gorm:"foreignKey:AdminID;references:ID;constraint:OnDelete:SET NULL;" json:"-"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
