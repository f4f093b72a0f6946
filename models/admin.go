package models

import "time"

// Roles for back-office accounts. Managers only see forms linked to their
// department; admins see everything and may change settings.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

type Admin struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"column:name;size:100;not null" json:"name"`
	Email        string    `gorm:"column:email;size:100;unique;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null" json:"-"`
	Role         string    `gorm:"column:role;size:20;not null;default:'manager'" json:"role"`
	DepartmentID *uint     `gorm:"column:department_id" json:"department_id"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Forms []Form `gorm:"foreignKey:CreatedBy" json:"-"`
}

func (Admin) TableName() string {
	return "admins"
}
