package models

import "time"

// Setting keys consumed by the services.
const (
	SettingUploadPath    = "forms_upload_path"
	SettingMaxUploadMB   = "forms_max_upload_mb"
	SettingAllowedMime   = "forms_allowed_mime"
	SettingRefCodePrefix = "reference_code_prefix"
	SettingRefCodeLength = "reference_code_length"
)

type Setting struct {
	Key       string    `gorm:"column:key;primaryKey;size:100" json:"key"`
	Value     string    `gorm:"column:value;type:text" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}
