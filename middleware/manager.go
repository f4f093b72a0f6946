package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ysalem/formbuilder-server/models"
)

// CheckFormManager loads the form from the :id param into the context and
// verifies the caller may manage it: admins always may, managers only when
// the form is linked to their department or they created it.
func CheckFormManager(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin := CurrentAdmin(c)

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid form id"})
			return
		}

		var form models.Form
		if err := db.Preload("Departments").First(&form, id).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Form not found"})
			return
		}

		if !mayManage(admin, form) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "You may not manage this form"})
			return
		}

		c.Set(CtxForm, form)
		c.Next()
	}
}

func mayManage(admin models.Admin, form models.Form) bool {
	if admin.Role == models.RoleAdmin {
		return true
	}
	if form.CreatedBy == admin.ID {
		return true
	}
	if admin.DepartmentID != nil {
		for _, d := range form.Departments {
			if d.ID == *admin.DepartmentID {
				return true
			}
		}
	}
	return false
}

// ContextForm returns the form CheckFormManager placed in the context.
func ContextForm(c *gin.Context) models.Form {
	return c.MustGet(CtxForm).(models.Form)
}

// CheckFieldManager resolves the field from the :id param, then applies the
// same permission rule against its parent form. Both end up in the context.
func CheckFieldManager(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin := CurrentAdmin(c)

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid field id"})
			return
		}

		var field models.FormField
		if err := db.First(&field, id).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Field not found"})
			return
		}
		var form models.Form
		if err := db.Preload("Departments").First(&form, field.FormID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Form not found"})
			return
		}

		if !mayManage(admin, form) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "You may not manage this form"})
			return
		}

		c.Set(CtxForm, form)
		c.Set(CtxField, field)
		c.Next()
	}
}

// ContextField returns the field CheckFieldManager placed in the context.
func ContextField(c *gin.Context) models.FormField {
	return c.MustGet(CtxField).(models.FormField)
}
