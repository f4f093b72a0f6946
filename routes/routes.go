package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ysalem/formbuilder-server/config"
	"github.com/ysalem/formbuilder-server/controllers"
	"github.com/ysalem/formbuilder-server/middleware"
	"github.com/ysalem/formbuilder-server/services"
	"github.com/ysalem/formbuilder-server/utils"
)

// SetupRoutes wires services, controllers and middleware onto the engine.
func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	cache := utils.NewTTLCache()

	settings := services.NewSettingsService(db, cache)
	departments := services.NewDepartmentService(db)
	forms := services.NewFormService(db, cache)
	fields := services.NewFieldService(db)
	files := services.NewFileService(settings, cfg.UploadBasePath, cfg.MaxUploadMB)
	submissions := services.NewSubmissionService(db, forms, fields, files, settings)
	filters := services.NewFilterService(db)
	audit := services.NewAuditService(db)
	notifications := services.NewNotificationService(db)
	templates := services.NewTemplateService(db, forms, fields)
	exports := services.NewExportService(db, fields, cfg.ExportBasePath)

	health := controllers.NewHealthController(db)
	auth := controllers.NewAuthController(db, cfg.GoogleClientID)
	department := controllers.NewDepartmentController(departments, audit)
	form := controllers.NewFormController(forms, fields, audit)
	field := controllers.NewFieldController(fields, audit)
	public := controllers.NewPublicController(forms, fields, submissions, notifications, audit)
	submission := controllers.NewSubmissionController(submissions, filters, audit)
	export := controllers.NewExportController(exports, audit)
	template := controllers.NewTemplateController(templates, audit)
	filter := controllers.NewFilterController(filters)
	notification := controllers.NewNotificationController(notifications)
	auditCtl := controllers.NewAuditController(audit)
	setting := controllers.NewSettingsController(settings, audit)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", health.Check)

	api := r.Group("/api")
	{
		pub := api.Group("/public")
		{
			pub.GET("/forms", public.ListForms)
			pub.GET("/forms/:slug", public.GetForm)
			pub.POST("/forms/:slug/submissions", middleware.RateLimitPublicSubmit(), public.Submit)
			pub.GET("/submissions/:ref", public.GetByReference)
		}

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", middleware.RateLimitLogin(), auth.Login)
			authGroup.POST("/google/login", middleware.RateLimitLogin(), auth.GoogleLogin)
			authGroup.GET("/me", middleware.AuthJWT(db), auth.Me)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AuthJWT(db))
		{
			admin.GET("/departments", department.List)
			admin.POST("/departments", middleware.RequireAdmin(), department.Create)
			admin.PUT("/departments/:id", middleware.RequireAdmin(), department.Update)
			admin.DELETE("/departments/:id", middleware.RequireAdmin(), department.Delete)

			admin.GET("/forms", form.List)
			admin.POST("/forms", form.Create)

			managed := admin.Group("/forms/:id")
			managed.Use(middleware.CheckFormManager(db))
			{
				managed.GET("", form.Get)
				managed.PUT("", form.Update)
				managed.DELETE("", form.Delete)
				managed.PUT("/status", form.SetStatus)
				managed.PUT("/departments", form.AssignDepartments)

				managed.POST("/fields", field.Add)
				managed.PUT("/fields/reorder", field.Reorder)

				managed.GET("/submissions", submission.List)
				managed.GET("/submissions/:sub_id", submission.Get)
				managed.PUT("/submissions/:sub_id/status", submission.SetStatus)
				managed.DELETE("/submissions/:sub_id", submission.Delete)

				managed.POST("/export", export.Create)
				managed.POST("/template", template.SaveFromForm)

				managed.POST("/filters", filter.Create)
				managed.GET("/filters", filter.List)
			}

			admin.PUT("/fields/:id", middleware.CheckFieldManager(db), field.Update)
			admin.DELETE("/fields/:id", middleware.CheckFieldManager(db), field.Delete)

			admin.GET("/exports/:job_id", export.Get)

			admin.GET("/templates", template.List)
			admin.POST("/templates/:id/instantiate", template.Instantiate)

			admin.DELETE("/filters/:id", filter.Delete)

			admin.GET("/notifications", notification.List)
			admin.PUT("/notifications/:id/read", notification.MarkRead)

			admin.GET("/audit", middleware.RequireAdmin(), auditCtl.List)

			admin.GET("/settings", middleware.RequireAdmin(), setting.List)
			admin.PUT("/settings", middleware.RequireAdmin(), setting.Put)
		}
	}
}
