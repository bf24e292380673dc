package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samasyax/samasyax/internal/config"
	"github.com/samasyax/samasyax/internal/handlers"
	"github.com/samasyax/samasyax/internal/middleware"
	"github.com/samasyax/samasyax/internal/storage"
)

func NewRouter(cfg *config.Config, store *storage.ImageStore) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Bug images are served straight off disk.
	r.Static("/uploads", store.Dir())

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:project_id", middleware.AuthMiddleware(), handlers.WebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.GET("", handlers.ListProjects)
			projects.POST("", handlers.CreateProject)
			projects.DELETE("/:project_id", handlers.DeleteProject)
		}

		issues := api.Group("/issues", middleware.AuthMiddleware())
		{
			issues.GET("", handlers.GetAllIssues)
			issues.GET("/:project_id", handlers.GetProjectIssues)
			issues.POST("", handlers.CreateIssue)
			issues.PUT("/:issue_id", handlers.UpdateIssue)
			issues.DELETE("/:issue_id", handlers.DeleteIssue)
			issues.POST("/:issue_id/comments", handlers.AddComment)
		}

		dashboard := api.Group("/dashboard", middleware.AuthMiddleware())
		{
			dashboard.GET("/stats", handlers.GetStats)
		}

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.GET("", middleware.RequireAdmin(), handlers.ListUsers)
			users.PUT("/:id/assign-projects", middleware.RequireAdmin(), handlers.AssignProjects)
			users.PUT("/:id/update-role", middleware.RequireAdmin(), handlers.UpdateRole)
			users.PUT("/:id/toggle-status", middleware.RequireAdmin(), handlers.ToggleStatus)
			users.PUT("/change-password", handlers.ChangePassword)
			users.GET("/export/user-data", handlers.ExportUserData)
		}
	}

	return r
}
