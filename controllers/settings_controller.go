package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ysalem/formbuilder-server/middleware"
	"github.com/ysalem/formbuilder-server/services"
)

type SettingsController struct {
	settings *services.SettingsService
	audit    *services.AuditService
}

func NewSettingsController(settings *services.SettingsService, audit *services.AuditService) *SettingsController {
	return &SettingsController{settings: settings, audit: audit}
}

// GET /api/admin/settings
func (s *SettingsController) List(c *gin.Context) {
	rows, err := s.settings.All()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": rows})
}

type SettingsPutReq struct {
	Values map[string]string `json:"values" binding:"required"`
}

// PUT /api/admin/settings
func (s *SettingsController) Put(c *gin.Context) {
	var req SettingsPutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	for key, value := range req.Values {
		if err := s.settings.Put(key, value); err != nil {
			respondErr(c, err)
			return
		}
	}

	admin := middleware.CurrentAdmin(c)
	s.audit.Record(&admin.ID, "settings.update", "setting", 0, req.Values, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "Settings updated"})
}
