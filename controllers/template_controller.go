package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ysalem/formbuilder-server/middleware"
	"github.com/ysalem/formbuilder-server/services"
)

type TemplateController struct {
	templates *services.TemplateService
	audit     *services.AuditService
}

func NewTemplateController(templates *services.TemplateService, audit *services.AuditService) *TemplateController {
	return &TemplateController{templates: templates, audit: audit}
}

type TemplateSaveReq struct {
	Name        string `json:"name" binding:"required,min=1"`
	Description string `json:"description"`
}

// POST /api/admin/forms/:id/template
func (t *TemplateController) SaveFromForm(c *gin.Context) {
	form := middleware.ContextForm(c)
	admin := middleware.CurrentAdmin(c)

	var req TemplateSaveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	tpl, err := t.templates.SaveFromForm(form.ID, req.Name, req.Description, admin.ID)
	if err != nil {
		respondErr(c, err)
		return
	}

	t.audit.Record(&admin.ID, "template.create", "form_template", tpl.ID, req, c.ClientIP())
	c.JSON(http.StatusCreated, gin.H{"template": tpl})
}

// GET /api/admin/templates
func (t *TemplateController) List(c *gin.Context) {
	tpls, err := t.templates.List()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": tpls})
}

type TemplateInstantiateReq struct {
	Title string `json:"title"`
}

// POST /api/admin/templates/:id/instantiate
func (t *TemplateController) Instantiate(c *gin.Context) {
	id, err := paramUint(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid template id"})
		return
	}

	// Body is optional; an absent body keeps the template's own title.
	var req TemplateInstantiateReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	admin := middleware.CurrentAdmin(c)
	form, err := t.templates.Instantiate(id, admin.ID, req.Title)
	if err != nil {
		respondErr(c, err)
		return
	}

	t.audit.Record(&admin.ID, "template.instantiate", "form", form.ID, gin.H{"template_id": id}, c.ClientIP())
	c.JSON(http.StatusCreated, gin.H{"form": form})
}
