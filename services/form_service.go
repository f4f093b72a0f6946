package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ysalem/formbuilder-server/models"
	"github.com/ysalem/formbuilder-server/utils"
)

const formCacheTTL = 300 * time.Second

type FormService struct {
	db    *gorm.DB
	cache *utils.TTLCache
}

func NewFormService(db *gorm.DB, cache *utils.TTLCache) *FormService {
	return &FormService{db: db, cache: cache}
}

type FormInput struct {
	Title                    string
	Description              string
	CreatedBy                uint
	AllowMultipleSubmissions bool
	ShowDepartmentField      bool
}

func formIDKey(id uint) string { return fmt.Sprintf("form:id:%d", id) }
func formSlugKey(slug string) string { return "form:slug:" + slug }

// Create inserts a form with a unique slug derived from the title and links
// the given departments.
func (s *FormService) Create(in FormInput, departmentIDs []uint) (*models.Form, error) {
	ve := newValidationError()
	if in.Title == "" {
		ve.add("title", "title is required")
	}
	if in.CreatedBy == 0 {
		ve.add("created_by", "created_by is required")
	}
	if !ve.empty() {
		return nil, ve
	}

	slug, err := utils.EnsureUnique(s.db, utils.Slugify(in.Title, 100), "forms", "slug", nil)
	if err != nil {
		return nil, err
	}

	form := models.Form{
		Title:                    in.Title,
		Description:              in.Description,
		Slug:                     slug,
		CreatedBy:                in.CreatedBy,
		Status:                   models.FormStatusActive,
		AllowMultipleSubmissions: in.AllowMultipleSubmissions,
		ShowDepartmentField:      in.ShowDepartmentField,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&form).Error; err != nil {
			return err
		}
		return replaceDepartmentLinks(tx, form.ID, departmentIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(form.ID)
}

// GetByID is cache-first; a miss warms both the id and slug keys so either
// lookup path benefits.
func (s *FormService) GetByID(id uint) (*models.Form, error) {
	if v, ok := s.cache.Get(formIDKey(id)); ok {
		form := v.(models.Form)
		return &form, nil
	}
	return s.load("id = ?", id)
}

func (s *FormService) GetBySlug(slug string) (*models.Form, error) {
	if v, ok := s.cache.Get(formSlugKey(slug)); ok {
		form := v.(models.Form)
		return &form, nil
	}
	return s.load("slug = ?", slug)
}

func (s *FormService) load(cond string, arg interface{}) (*models.Form, error) {
	var form models.Form
	err := s.db.Preload("Departments").Where(cond, arg).First(&form).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.cache.Set(formIDKey(form.ID), form, formCacheTTL)
	s.cache.Set(formSlugKey(form.Slug), form, formCacheTTL)
	return &form, nil
}

func (s *FormService) invalidate(form *models.Form) {
	s.cache.Delete(formIDKey(form.ID), formSlugKey(form.Slug))
}

// FormPatch keeps absent keys untouched; DepartmentIDs nil means "don't
// touch links", an empty slice clears them.
type FormPatch struct {
	Title                    *string
	Description              *string
	AllowMultipleSubmissions *bool
	ShowDepartmentField      *bool
	DepartmentIDs            *[]uint
}

func (s *FormService) Update(id uint, patch FormPatch) (*models.Form, error) {
	form, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.AllowMultipleSubmissions != nil {
		updates["allow_multiple_submissions"] = *patch.AllowMultipleSubmissions
	}
	if patch.ShowDepartmentField != nil {
		updates["show_department_field"] = *patch.ShowDepartmentField
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Form{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if patch.DepartmentIDs != nil {
			if err := replaceDepartmentLinks(tx, id, *patch.DepartmentIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(form)
	return s.GetByID(id)
}

func (s *FormService) SetStatus(id uint, status string) error {
	if status != models.FormStatusActive && status != models.FormStatusInactive {
		return serviceErrorf("status must be %q or %q", models.FormStatusActive, models.FormStatusInactive)
	}
	form, err := s.GetByID(id)
	if err != nil {
		return err
	}
	res := s.db.Model(&models.Form{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.invalidate(form)
	return nil
}

// Delete removes the form; fields, submissions and answers cascade at the
// database level.
func (s *FormService) Delete(id uint) error {
	form, err := s.GetByID(id)
	if err != nil {
		return err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM form_departments WHERE form_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Form{}, id).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(form)
	return nil
}

func (s *FormService) List(status string) ([]models.Form, error) {
	q := s.db.Preload("Departments").Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var forms []models.Form
	if err := q.Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

// ListPublic returns active forms, optionally filtered by department and a
// case-insensitive title search.
func (s *FormService) ListPublic(departmentID *uint, search string) ([]models.Form, error) {
	q := s.db.Preload("Departments").
		Where("status = ?", models.FormStatusActive).
		Order("created_at DESC")
	if departmentID != nil {
		q = q.Joins("JOIN form_departments fd ON fd.form_id = forms.id").
			Where("fd.department_id = ?", *departmentID)
	}
	if search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(search))+"%")
	}
	var forms []models.Form
	if err := q.Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

// AssignDepartments replaces the form's department links with the given
// set, deduplicated, in one transaction.
func (s *FormService) AssignDepartments(formID uint, departmentIDs []uint) error {
	form, err := s.GetByID(formID)
	if err != nil {
		return err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		return replaceDepartmentLinks(tx, formID, departmentIDs)
	})
	if err != nil {
		return err
	}
	s.invalidate(form)
	return nil
}

func replaceDepartmentLinks(tx *gorm.DB, formID uint, departmentIDs []uint) error {
	if err := tx.Exec("DELETE FROM form_departments WHERE form_id = ?", formID).Error; err != nil {
		return err
	}
	seen := map[uint]bool{}
	for _, depID := range departmentIDs {
		if depID == 0 || seen[depID] {
			continue
		}
		seen[depID] = true
		if err := tx.Exec("INSERT INTO form_departments (form_id, department_id) VALUES (?, ?)",
			formID, depID).Error; err != nil {
			return err
		}
	}
	return nil
}
