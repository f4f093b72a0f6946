package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"

	"github.com/ysalem/formbuilder-server/middleware"
	"github.com/ysalem/formbuilder-server/models"
	"github.com/ysalem/formbuilder-server/utils"
)

type AuthController struct {
	db             *gorm.DB
	googleClientID string
}

func NewAuthController(db *gorm.DB, googleClientID string) *AuthController {
	return &AuthController{db: db, googleClientID: googleClientID}
}

type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// POST /api/auth/login
func (a *AuthController) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	var admin models.Admin
	if err := a.db.Where("email = ?", req.Email).First(&admin).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	if !utils.CheckPassword(admin.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	if !admin.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"message": "Account is disabled"})
		return
	}

	a.respondToken(c, admin)
}

type GoogleLoginReq struct {
	IDToken string `json:"id_token" binding:"required"`
}

// POST /api/auth/google/login
//
// Validates a Google ID token and signs in the matching account. Accounts
// are never auto-created here; the email must already exist.
func (a *AuthController) GoogleLogin(c *gin.Context) {
	if a.googleClientID == "" {
		c.JSON(http.StatusNotImplemented, gin.H{"message": "Google login is not configured"})
		return
	}

	var req GoogleLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	payload, err := idtoken.Validate(context.Background(), req.IDToken, a.googleClientID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid Google token"})
		return
	}
	email, _ := payload.Claims["email"].(string)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Google token carries no email"})
		return
	}

	var admin models.Admin
	if err := a.db.Where("email = ?", email).First(&admin).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "No account for this Google identity"})
		return
	}
	if !admin.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"message": "Account is disabled"})
		return
	}

	a.respondToken(c, admin)
}

// GET /api/auth/me
func (a *AuthController) Me(c *gin.Context) {
	admin := middleware.CurrentAdmin(c)
	c.JSON(http.StatusOK, gin.H{"admin": adminPublic(admin)})
}

func (a *AuthController) respondToken(c *gin.Context, admin models.Admin) {
	token, err := utils.GenerateToken(strconv.FormatUint(uint64(admin.ID), 10), admin.Role)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"admin": adminPublic(admin),
	})
}

func adminPublic(admin models.Admin) gin.H {
	return gin.H{
		"id":            admin.ID,
		"name":          admin.Name,
		"email":         admin.Email,
		"role":          admin.Role,
		"department_id": admin.DepartmentID,
	}
}
