package services

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ysalem/formbuilder-server/models"
)

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// NotifySubmission fans out a notification to every admin-role account and
// to managers of the form's departments. Best effort.
func (s *NotificationService) NotifySubmission(form *models.Form, sub *models.FormSubmission) {
	recipients := map[uint]bool{}

	var admins []models.Admin
	if err := s.db.Where("role = ? AND is_active = ?", models.RoleAdmin, true).Find(&admins).Error; err == nil {
		for _, a := range admins {
			recipients[a.ID] = true
		}
	}

	if len(form.Departments) > 0 {
		depIDs := make([]uint, 0, len(form.Departments))
		for _, d := range form.Departments {
			depIDs = append(depIDs, d.ID)
		}
		var managers []models.Admin
		if err := s.db.Where("department_id IN ? AND is_active = ?", depIDs, true).Find(&managers).Error; err == nil {
			for _, m := range managers {
				recipients[m.ID] = true
			}
		}
	}

	title := fmt.Sprintf("New submission for %q", form.Title)
	body := fmt.Sprintf("Reference %s from %s", sub.ReferenceCode, sub.SubmittedBy)
	for adminID := range recipients {
		n := models.Notification{AdminID: adminID, Title: title, Body: body}
		if err := s.db.Create(&n).Error; err != nil {
			log.Warn().Err(err).Uint("admin_id", adminID).Msg("failed to create notification")
		}
	}
}

func (s *NotificationService) List(adminID uint, unreadOnly bool) ([]models.Notification, error) {
	q := s.db.Where("admin_id = ?", adminID).Order("created_at DESC").Limit(100)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var rows []models.Notification
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *NotificationService) MarkRead(adminID, id uint) error {
	var n models.Notification
	err := s.db.First(&n, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if n.AdminID != adminID {
		return ErrForbidden
	}
	return s.db.Model(&n).Update("read", true).Error
}
