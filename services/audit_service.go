package services

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ysalem/formbuilder-server/models"
)

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record writes one audit row. Failures are logged, not propagated: an
// audit hiccup must never fail the action it describes.
func (s *AuditService) Record(adminID *uint, action, entityType string, entityID uint, details interface{}, ip string) {
	row := models.AuditLog{
		AdminID:    adminID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  ip,
	}
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			row.Details = string(b)
		}
	}
	if err := s.db.Create(&row).Error; err != nil {
		log.Error().Err(err).Str("action", action).Msg("failed to write audit log")
	}
}

func (s *AuditService) List(page, limit int) ([]models.AuditLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	var total int64
	if err := s.db.Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AuditLog
	if err := s.db.Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
