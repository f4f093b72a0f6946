package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ysalem/formbuilder-server/models"
)

type DepartmentService struct {
	db *gorm.DB
}

func NewDepartmentService(db *gorm.DB) *DepartmentService {
	return &DepartmentService{db: db}
}

type DepartmentInput struct {
	Name        string
	Description string
	ManagerID   *uint
	IsActive    *bool
}

func (s *DepartmentService) Create(in DepartmentInput) (*models.Department, error) {
	if in.Name == "" {
		ve := newValidationError()
		ve.add("name", "name is required")
		return nil, ve
	}
	dep := models.Department{
		Name:        in.Name,
		Description: in.Description,
		ManagerID:   in.ManagerID,
		IsActive:    true,
	}
	if in.IsActive != nil {
		dep.IsActive = *in.IsActive
	}
	if err := s.db.Create(&dep).Error; err != nil {
		return nil, err
	}
	return &dep, nil
}

func (s *DepartmentService) GetByID(id uint) (*models.Department, error) {
	var dep models.Department
	err := s.db.First(&dep, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dep, nil
}

func (s *DepartmentService) List(activeOnly bool) ([]models.Department, error) {
	q := s.db.Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var deps []models.Department
	if err := q.Find(&deps).Error; err != nil {
		return nil, err
	}
	return deps, nil
}

func (s *DepartmentService) Update(id uint, in DepartmentInput) (*models.Department, error) {
	dep, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != "" {
		updates["name"] = in.Name
	}
	if in.Description != "" {
		updates["description"] = in.Description
	}
	if in.ManagerID != nil {
		updates["manager_id"] = *in.ManagerID
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) == 0 {
		return dep, nil
	}
	if err := s.db.Model(dep).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// Delete refuses to remove a department still referenced by forms,
// submissions or admin accounts.
func (s *DepartmentService) Delete(id uint) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}

	var n int64
	if err := s.db.Table("form_departments").Where("department_id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return serviceErrorf("department is linked to %d form(s)", n)
	}
	if err := s.db.Model(&models.FormSubmission{}).Where("department_id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return serviceErrorf("department is referenced by %d submission(s)", n)
	}
	if err := s.db.Model(&models.Admin{}).Where("department_id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return serviceErrorf("department is assigned to %d account(s)", n)
	}

	return s.db.Delete(&models.Department{}, id).Error
}
