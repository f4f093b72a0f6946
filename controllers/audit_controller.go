package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ysalem/formbuilder-server/services"
)

type AuditController struct {
	audit *services.AuditService
}

func NewAuditController(audit *services.AuditService) *AuditController {
	return &AuditController{audit: audit}
}

// GET /api/admin/audit?page=&limit=
func (a *AuditController) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	rows, total, err := a.audit.List(page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": rows,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}
