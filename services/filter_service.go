package services

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ysalem/formbuilder-server/models"
)

// FilterCriteria is the typed document behind saved_filters.criteria.
// Every clause is applied through parameterized gorm conditions; user input
// never reaches the SQL text.
type FilterCriteria struct {
	Status       string `json:"status,omitempty"`
	DepartmentID *uint  `json:"department_id,omitempty"`
	DateFrom     string `json:"date_from,omitempty"` // YYYY-MM-DD
	DateTo       string `json:"date_to,omitempty"`   // YYYY-MM-DD, inclusive
	SubmittedBy  string `json:"submitted_by,omitempty"`
}

// Apply narrows a form_submissions query with the set clauses.
func (c FilterCriteria) Apply(q *gorm.DB) *gorm.DB {
	if c.Status != "" {
		q = q.Where("status = ?", c.Status)
	}
	if c.DepartmentID != nil {
		q = q.Where("department_id = ?", *c.DepartmentID)
	}
	if c.DateFrom != "" {
		if t, err := time.Parse("2006-01-02", c.DateFrom); err == nil {
			q = q.Where("submitted_at >= ?", t)
		}
	}
	if c.DateTo != "" {
		if t, err := time.Parse("2006-01-02", c.DateTo); err == nil {
			q = q.Where("submitted_at < ?", t.Add(24*time.Hour))
		}
	}
	if c.SubmittedBy != "" {
		q = q.Where("submitted_by = ?", c.SubmittedBy)
	}
	return q
}

type FilterService struct {
	db *gorm.DB
}

func NewFilterService(db *gorm.DB) *FilterService {
	return &FilterService{db: db}
}

func (s *FilterService) Create(adminID, formID uint, name string, criteria FilterCriteria) (*models.SavedFilter, error) {
	if name == "" {
		ve := newValidationError()
		ve.add("name", "name is required")
		return nil, ve
	}
	b, err := json.Marshal(criteria)
	if err != nil {
		return nil, err
	}
	filter := models.SavedFilter{
		AdminID:  adminID,
		FormID:   formID,
		Name:     name,
		Criteria: string(b),
	}
	if err := s.db.Create(&filter).Error; err != nil {
		return nil, err
	}
	return &filter, nil
}

func (s *FilterService) List(adminID, formID uint) ([]models.SavedFilter, error) {
	var filters []models.SavedFilter
	err := s.db.Where("admin_id = ? AND form_id = ?", adminID, formID).
		Order("created_at DESC").Find(&filters).Error
	if err != nil {
		return nil, err
	}
	return filters, nil
}

// Criteria loads and decodes one saved filter owned by the admin.
func (s *FilterService) Criteria(adminID, filterID uint) (*FilterCriteria, error) {
	var filter models.SavedFilter
	err := s.db.First(&filter, filterID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if filter.AdminID != adminID {
		return nil, ErrForbidden
	}
	var c FilterCriteria
	if err := json.Unmarshal([]byte(filter.Criteria), &c); err != nil {
		return nil, serviceErrorf("saved filter %d has a corrupt criteria document", filterID)
	}
	return &c, nil
}

func (s *FilterService) Delete(adminID, filterID uint) error {
	var filter models.SavedFilter
	err := s.db.First(&filter, filterID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if filter.AdminID != adminID {
		return ErrForbidden
	}
	return s.db.Delete(&filter).Error
}
