package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ysalem/formbuilder-server/middleware"
	"github.com/ysalem/formbuilder-server/services"
)

type FieldController struct {
	fields *services.FieldService
	audit  *services.AuditService
}

func NewFieldController(fields *services.FieldService, audit *services.AuditService) *FieldController {
	return &FieldController{fields: fields, audit: audit}
}

type FieldCreateReq struct {
	FieldType       string                    `json:"field_type" binding:"required"`
	Label           string                    `json:"label" binding:"required,min=1"`
	Placeholder     string                    `json:"placeholder"`
	IsRequired      bool                      `json:"is_required"`
	FieldKey        string                    `json:"field_key"`
	Options         []string                  `json:"options"`
	SourceType      string                    `json:"source_type"`
	ParentFieldID   *uint                     `json:"parent_field_id"`
	OrderIndex      *int                      `json:"order_index"`
	ValidationRules *services.ValidationRules `json:"validation_rules"`
	HelperText      string                    `json:"helper_text"`
}

// POST /api/admin/forms/:id/fields
func (f *FieldController) Add(c *gin.Context) {
	form := middleware.ContextForm(c)

	var req FieldCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	field, err := f.fields.Add(form.ID, services.FieldInput{
		FieldType:       req.FieldType,
		Label:           req.Label,
		Placeholder:     req.Placeholder,
		IsRequired:      req.IsRequired,
		FieldKey:        req.FieldKey,
		Options:         req.Options,
		SourceType:      req.SourceType,
		ParentFieldID:   req.ParentFieldID,
		OrderIndex:      req.OrderIndex,
		ValidationRules: req.ValidationRules,
		HelperText:      req.HelperText,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	admin := middleware.CurrentAdmin(c)
	f.audit.Record(&admin.ID, "field.create", "form_field", field.ID, req, c.ClientIP())
	c.JSON(http.StatusCreated, gin.H{"field": field})
}

type FieldUpdateReq struct {
	Label           *string                   `json:"label"`
	Placeholder     *string                   `json:"placeholder"`
	IsRequired      *bool                     `json:"is_required"`
	IsActive        *bool                     `json:"is_active"`
	Options         *[]string                 `json:"options"`
	SourceType      *string                   `json:"source_type"`
	ValidationRules *services.ValidationRules `json:"validation_rules"`
	HelperText      *string                   `json:"helper_text"`
}

// PUT /api/admin/fields/:id
func (f *FieldController) Update(c *gin.Context) {
	field := middleware.ContextField(c)

	var req FieldUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	updated, err := f.fields.Update(field.ID, services.FieldPatch{
		Label:           req.Label,
		Placeholder:     req.Placeholder,
		IsRequired:      req.IsRequired,
		IsActive:        req.IsActive,
		Options:         req.Options,
		SourceType:      req.SourceType,
		ValidationRules: req.ValidationRules,
		HelperText:      req.HelperText,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	admin := middleware.CurrentAdmin(c)
	f.audit.Record(&admin.ID, "field.update", "form_field", field.ID, req, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"field": updated})
}

// DELETE /api/admin/fields/:id
func (f *FieldController) Delete(c *gin.Context) {
	field := middleware.ContextField(c)
	if err := f.fields.Delete(field.ID); err != nil {
		respondErr(c, err)
		return
	}

	admin := middleware.CurrentAdmin(c)
	f.audit.Record(&admin.ID, "field.delete", "form_field", field.ID, nil, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "Field deleted"})
}

type FieldReorderReq struct {
	OrderedIDs    []uint `json:"ordered_ids" binding:"required,min=1"`
	ParentFieldID *uint  `json:"parent_field_id"`
}

// PUT /api/admin/forms/:id/fields/reorder
func (f *FieldController) Reorder(c *gin.Context) {
	form := middleware.ContextForm(c)

	var req FieldReorderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	if err := f.fields.Reorder(form.ID, req.OrderedIDs, req.ParentFieldID); err != nil {
		respondErr(c, err)
		return
	}

	admin := middleware.CurrentAdmin(c)
	f.audit.Record(&admin.ID, "field.reorder", "form", form.ID, req, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "Fields reordered"})
}
