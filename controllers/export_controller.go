package controllers

import (
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ysalem/formbuilder-server/middleware"
	"github.com/ysalem/formbuilder-server/services"
)

type ExportController struct {
	exports *services.ExportService
	audit   *services.AuditService
}

func NewExportController(exports *services.ExportService, audit *services.AuditService) *ExportController {
	return &ExportController{exports: exports, audit: audit}
}

type ExportCreateReq struct {
	Format    string  `json:"format"`
	RangeFrom *string `json:"range_from,omitempty"`
	RangeTo   *string `json:"range_to,omitempty"`
}

// POST /api/admin/forms/:id/export
func (e *ExportController) Create(c *gin.Context) {
	form := middleware.ContextForm(c)

	var req ExportCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}

	svcReq := services.ExportRequest{Format: req.Format}
	if req.RangeFrom != nil {
		if t, err := time.Parse(time.RFC3339, *req.RangeFrom); err == nil {
			svcReq.RangeFrom = &t
		}
	}
	if req.RangeTo != nil {
		if t, err := time.Parse(time.RFC3339, *req.RangeTo); err == nil {
			svcReq.RangeTo = &t
		}
	}

	job, err := e.exports.CreateJob(form.ID, svcReq)
	if err != nil {
		respondErr(c, err)
		return
	}

	admin := middleware.CurrentAdmin(c)
	e.audit.Record(&admin.ID, "export.create", "form", form.ID, req, c.ClientIP())
	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.JobID,
		"status": job.Status,
	})
}

// GET /api/admin/exports/:job_id
//
// Streams the file once the job is done; reports progress otherwise.
func (e *ExportController) Get(c *gin.Context) {
	job, err := e.exports.GetJob(c.Param("job_id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	if job.Status == "done" && job.FilePath != nil {
		c.FileAttachment(*job.FilePath, path.Base(*job.FilePath))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id": job.JobID,
		"status": job.Status,
		"error":  job.ErrorMsg,
	})
}
