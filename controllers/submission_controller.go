package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ysalem/formbuilder-server/middleware"
	"github.com/ysalem/formbuilder-server/services"
)

type SubmissionController struct {
	submissions *services.SubmissionService
	filters     *services.FilterService
	audit       *services.AuditService
}

func NewSubmissionController(submissions *services.SubmissionService, filters *services.FilterService, audit *services.AuditService) *SubmissionController {
	return &SubmissionController{submissions: submissions, filters: filters, audit: audit}
}

// GET /api/admin/forms/:id/submissions
//
// Filter params: status, department_id, date_from, date_to, submitted_by;
// or saved_filter_id to apply a stored criteria set. page/limit paginate.
func (s *SubmissionController) List(c *gin.Context) {
	form := middleware.ContextForm(c)
	admin := middleware.CurrentAdmin(c)

	var criteria services.FilterCriteria
	if v := c.Query("saved_filter_id"); v != "" {
		filterID, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid saved_filter_id"})
			return
		}
		stored, err := s.filters.Criteria(admin.ID, uint(filterID))
		if err != nil {
			respondErr(c, err)
			return
		}
		criteria = *stored
	} else {
		criteria = services.FilterCriteria{
			Status:      c.Query("status"),
			DateFrom:    c.Query("date_from"),
			DateTo:      c.Query("date_to"),
			SubmittedBy: c.Query("submitted_by"),
		}
		if v := c.Query("department_id"); v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid department_id"})
				return
			}
			id := uint(n)
			criteria.DepartmentID = &id
		}
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	subs, total, err := s.submissions.List(form.ID, criteria, page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"submissions": subs,
		"total":       total,
		"page":        page,
		"limit":       limit,
	})
}

// GET /api/admin/forms/:id/submissions/:sub_id
func (s *SubmissionController) Get(c *gin.Context) {
	form := middleware.ContextForm(c)
	subID, err := paramUint(c, "sub_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid submission id"})
		return
	}

	sub, err := s.submissions.GetByID(subID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if sub.FormID != form.ID {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

type SubmissionStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// PUT /api/admin/forms/:id/submissions/:sub_id/status
func (s *SubmissionController) SetStatus(c *gin.Context) {
	form := middleware.ContextForm(c)
	subID, err := paramUint(c, "sub_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid submission id"})
		return
	}

	var req SubmissionStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	sub, err := s.submissions.GetByID(subID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if sub.FormID != form.ID {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
		return
	}
	if err := s.submissions.SetStatus(subID, req.Status); err != nil {
		respondErr(c, err)
		return
	}

	admin := middleware.CurrentAdmin(c)
	s.audit.Record(&admin.ID, "submission.status", "submission", subID, req, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "Status updated"})
}

// DELETE /api/admin/forms/:id/submissions/:sub_id
//
// Removes the submission, its answers and any stored files.
func (s *SubmissionController) Delete(c *gin.Context) {
	form := middleware.ContextForm(c)
	subID, err := paramUint(c, "sub_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid submission id"})
		return
	}

	sub, err := s.submissions.GetByID(subID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if sub.FormID != form.ID {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
		return
	}
	if err := s.submissions.Delete(subID); err != nil {
		respondErr(c, err)
		return
	}

	admin := middleware.CurrentAdmin(c)
	s.audit.Record(&admin.ID, "submission.delete", "submission", subID, gin.H{
		"reference_code": sub.ReferenceCode,
	}, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "Submission deleted"})
}
