package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ysalem/formbuilder-server/middleware"
	"github.com/ysalem/formbuilder-server/services"
)

type FormController struct {
	forms  *services.FormService
	fields *services.FieldService
	audit  *services.AuditService
}

func NewFormController(forms *services.FormService, fields *services.FieldService, audit *services.AuditService) *FormController {
	return &FormController{forms: forms, fields: fields, audit: audit}
}

type FormCreateReq struct {
	Title                    string `json:"title" binding:"required,min=1"`
	Description              string `json:"description"`
	AllowMultipleSubmissions bool   `json:"allow_multiple_submissions"`
	ShowDepartmentField      bool   `json:"show_department_field"`
	DepartmentIDs            []uint `json:"department_ids"`
}

// POST /api/admin/forms
func (f *FormController) Create(c *gin.Context) {
	var req FormCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	admin := middleware.CurrentAdmin(c)
	form, err := f.forms.Create(services.FormInput{
		Title:                    req.Title,
		Description:              req.Description,
		CreatedBy:                admin.ID,
		AllowMultipleSubmissions: req.AllowMultipleSubmissions,
		ShowDepartmentField:      req.ShowDepartmentField,
	}, req.DepartmentIDs)
	if err != nil {
		respondErr(c, err)
		return
	}

	f.audit.Record(&admin.ID, "form.create", "form", form.ID, req, c.ClientIP())
	c.JSON(http.StatusCreated, gin.H{"form": form})
}

// GET /api/admin/forms
func (f *FormController) List(c *gin.Context) {
	forms, err := f.forms.List(c.Query("status"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forms": forms})
}

// GET /api/admin/forms/:id
func (f *FormController) Get(c *gin.Context) {
	form := middleware.ContextForm(c)
	fields, err := f.fields.GetForForm(form.ID, true)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": form, "fields": fields})
}

type FormUpdateReq struct {
	Title                    *string `json:"title"`
	Description              *string `json:"description"`
	AllowMultipleSubmissions *bool   `json:"allow_multiple_submissions"`
	ShowDepartmentField      *bool   `json:"show_department_field"`
	DepartmentIDs            *[]uint `json:"department_ids"`
}

// PUT /api/admin/forms/:id
func (f *FormController) Update(c *gin.Context) {
	form := middleware.ContextForm(c)

	var req FormUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	updated, err := f.forms.Update(form.ID, services.FormPatch{
		Title:                    req.Title,
		Description:              req.Description,
		AllowMultipleSubmissions: req.AllowMultipleSubmissions,
		ShowDepartmentField:      req.ShowDepartmentField,
		DepartmentIDs:            req.DepartmentIDs,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	admin := middleware.CurrentAdmin(c)
	f.audit.Record(&admin.ID, "form.update", "form", form.ID, req, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"form": updated})
}

type FormStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// PUT /api/admin/forms/:id/status
func (f *FormController) SetStatus(c *gin.Context) {
	form := middleware.ContextForm(c)

	var req FormStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	if err := f.forms.SetStatus(form.ID, req.Status); err != nil {
		respondErr(c, err)
		return
	}

	admin := middleware.CurrentAdmin(c)
	f.audit.Record(&admin.ID, "form.status", "form", form.ID, req, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "Status updated"})
}

type FormDepartmentsReq struct {
	DepartmentIDs []uint `json:"department_ids"`
}

// PUT /api/admin/forms/:id/departments
func (f *FormController) AssignDepartments(c *gin.Context) {
	form := middleware.ContextForm(c)

	var req FormDepartmentsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	if err := f.forms.AssignDepartments(form.ID, req.DepartmentIDs); err != nil {
		respondErr(c, err)
		return
	}

	admin := middleware.CurrentAdmin(c)
	f.audit.Record(&admin.ID, "form.departments", "form", form.ID, req, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "Departments updated"})
}

// DELETE /api/admin/forms/:id
func (f *FormController) Delete(c *gin.Context) {
	form := middleware.ContextForm(c)
	if err := f.forms.Delete(form.ID); err != nil {
		respondErr(c, err)
		return
	}

	admin := middleware.CurrentAdmin(c)
	f.audit.Record(&admin.ID, "form.delete", "form", form.ID, nil, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "Form deleted"})
}
