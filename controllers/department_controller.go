package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ysalem/formbuilder-server/middleware"
	"github.com/ysalem/formbuilder-server/services"
)

type DepartmentController struct {
	departments *services.DepartmentService
	audit       *services.AuditService
}

func NewDepartmentController(departments *services.DepartmentService, audit *services.AuditService) *DepartmentController {
	return &DepartmentController{departments: departments, audit: audit}
}

type DepartmentReq struct {
	Name        string `json:"name" binding:"required,min=1"`
	Description string `json:"description"`
	ManagerID   *uint  `json:"manager_id"`
	IsActive    *bool  `json:"is_active"`
}

// POST /api/admin/departments
func (d *DepartmentController) Create(c *gin.Context) {
	var req DepartmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	dep, err := d.departments.Create(services.DepartmentInput{
		Name:        req.Name,
		Description: req.Description,
		ManagerID:   req.ManagerID,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	admin := middleware.CurrentAdmin(c)
	d.audit.Record(&admin.ID, "department.create", "department", dep.ID, req, c.ClientIP())
	c.JSON(http.StatusCreated, gin.H{"department": dep})
}

// GET /api/admin/departments
func (d *DepartmentController) List(c *gin.Context) {
	deps, err := d.departments.List(c.Query("active") == "true")
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": deps})
}

type DepartmentUpdateReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ManagerID   *uint  `json:"manager_id"`
	IsActive    *bool  `json:"is_active"`
}

// PUT /api/admin/departments/:id
func (d *DepartmentController) Update(c *gin.Context) {
	id, err := paramUint(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id"})
		return
	}
	var req DepartmentUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	dep, err := d.departments.Update(id, services.DepartmentInput{
		Name:        req.Name,
		Description: req.Description,
		ManagerID:   req.ManagerID,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	admin := middleware.CurrentAdmin(c)
	d.audit.Record(&admin.ID, "department.update", "department", dep.ID, req, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"department": dep})
}

// DELETE /api/admin/departments/:id
func (d *DepartmentController) Delete(c *gin.Context) {
	id, err := paramUint(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id"})
		return
	}
	if err := d.departments.Delete(id); err != nil {
		respondErr(c, err)
		return
	}

	admin := middleware.CurrentAdmin(c)
	d.audit.Record(&admin.ID, "department.delete", "department", id, nil, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "Department deleted"})
}

func paramUint(c *gin.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(n), nil
}
