package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ysalem/formbuilder-server/middleware"
	"github.com/ysalem/formbuilder-server/services"
)

type FilterController struct {
	filters *services.FilterService
}

func NewFilterController(filters *services.FilterService) *FilterController {
	return &FilterController{filters: filters}
}

type FilterCreateReq struct {
	Name     string                  `json:"name" binding:"required,min=1"`
	Criteria services.FilterCriteria `json:"criteria"`
}

// POST /api/admin/forms/:id/filters
func (f *FilterController) Create(c *gin.Context) {
	form := middleware.ContextForm(c)
	admin := middleware.CurrentAdmin(c)

	var req FilterCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	filter, err := f.filters.Create(admin.ID, form.ID, req.Name, req.Criteria)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"filter": filter})
}

// GET /api/admin/forms/:id/filters
func (f *FilterController) List(c *gin.Context) {
	form := middleware.ContextForm(c)
	admin := middleware.CurrentAdmin(c)

	filters, err := f.filters.List(admin.ID, form.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"filters": filters})
}

// DELETE /api/admin/filters/:id
func (f *FilterController) Delete(c *gin.Context) {
	id, err := paramUint(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid filter id"})
		return
	}

	admin := middleware.CurrentAdmin(c)
	if err := f.filters.Delete(admin.ID, id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Filter deleted"})
}
