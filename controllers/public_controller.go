package controllers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ysalem/formbuilder-server/models"
	"github.com/ysalem/formbuilder-server/services"
)

type PublicController struct {
	forms         *services.FormService
	fields        *services.FieldService
	submissions   *services.SubmissionService
	notifications *services.NotificationService
	audit         *services.AuditService
}

func NewPublicController(forms *services.FormService, fields *services.FieldService, submissions *services.SubmissionService, notifications *services.NotificationService, audit *services.AuditService) *PublicController {
	return &PublicController{
		forms:         forms,
		fields:        fields,
		submissions:   submissions,
		notifications: notifications,
		audit:         audit,
	}
}

// GET /api/public/forms?search=&department=
func (p *PublicController) ListForms(c *gin.Context) {
	var departmentID *uint
	if v := c.Query("department"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid department id"})
			return
		}
		id := uint(n)
		departmentID = &id
	}

	forms, err := p.forms.ListPublic(departmentID, c.Query("search"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forms": forms})
}

// GET /api/public/forms/:slug
//
// Returns the form together with its render-ready field definitions:
// dynamic options resolved, repeater children nested. Inactive forms are
// not rendered, matching the submit path.
func (p *PublicController) GetForm(c *gin.Context) {
	form, err := p.forms.GetBySlug(c.Param("slug"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if form.Status != models.FormStatusActive {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
		return
	}
	defs, err := p.fields.RenderDefinitions(form.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": form, "fields": defs})
}

// POST /api/public/forms/:slug/submissions
//
// Multipart body: "submitted_by", optional "department_id", one part per
// field key. Repeater text answers arrive as <key>[<index>][<childKey>],
// repeater files as <key>.<index>.<childKey>.
func (p *PublicController) Submit(c *gin.Context) {
	form, err := p.forms.GetBySlug(c.Param("slug"))
	if err != nil {
		respondErr(c, err)
		return
	}

	mf, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Expected a multipart form body"})
		return
	}

	values := url.Values{}
	for k, v := range mf.Value {
		values[k] = v
	}

	in := services.SubmissionInput{
		SubmittedBy: strings.TrimSpace(values.Get("submitted_by")),
		IPAddress:   c.ClientIP(),
	}
	if v := values.Get("department_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid department id"})
			return
		}
		id := uint(n)
		in.DepartmentID = &id
	}
	// Meta parts are not answers.
	values.Del("submitted_by")
	values.Del("department_id")

	answers := services.ParseAnswerSet(values, mf.File)
	sub, warnings, err := p.submissions.Submit(form.ID, in, answers)
	if err != nil {
		respondErr(c, err)
		return
	}

	p.notifications.NotifySubmission(form, sub)
	p.audit.Record(nil, "submission.create", "submission", sub.ID, gin.H{
		"form_id":        form.ID,
		"reference_code": sub.ReferenceCode,
	}, c.ClientIP())

	resp := gin.H{
		"reference_code": sub.ReferenceCode,
		"submission_id":  sub.ID,
	}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusCreated, resp)
}

// GET /api/public/submissions/:ref
//
// Success-page lookup. Only the reference, status and timestamp are
// exposed; answers stay private to the back office.
func (p *PublicController) GetByReference(c *gin.Context) {
	sub, err := p.submissions.GetByReference(c.Param("ref"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reference_code": sub.ReferenceCode,
		"status":         sub.Status,
		"submitted_at":   sub.SubmittedAt,
	})
}
