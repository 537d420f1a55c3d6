package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/signalhub-dev/signalhub/internal/handlers"
	"github.com/signalhub-dev/signalhub/internal/middleware"
	"github.com/signalhub-dev/signalhub/internal/types"
	"gorm.io/gorm"
)

func NewRouter(conn *gorm.DB, h *handlers.Handler) *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	sessionAuth := middleware.SessionAuth(conn)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		// Public ingestion endpoint, authenticated by API key.
		api.POST("/events", h.IngestEvent)

		auth := api.Group("/auth")
		{
			auth.POST("/register", h.CreateUser)
			auth.POST("/login", h.LoginUser)
			auth.POST("/logout", h.LogoutUser)
			auth.GET("/me", sessionAuth, h.Me)
		}

		channels := api.Group("/channels", sessionAuth)
		{
			channels.POST("", h.CreateChannel)
			channels.GET("", h.ListChannels)
			channels.GET("/:channel_id", h.GetChannel)
			channels.PATCH("/:channel_id", h.UpdateChannel)
			channels.DELETE("/:channel_id", h.DeleteChannel)
			channels.POST("/:channel_id/test", h.TestChannel)
		}

		telegram := api.Group("/telegram", sessionAuth)
		{
			telegram.POST("/validate", h.ValidateBotToken)
			telegram.POST("/chats", h.ListBotChats)
		}

		projects := api.Group("/projects", sessionAuth)
		{
			projects.POST("", h.CreateProject)
			projects.GET("", h.ListProjects)
			projects.GET("/:project_id", h.GetProject)
			projects.PATCH("/:project_id", h.UpdateProject)
			projects.DELETE("/:project_id", h.DeleteProject)

			// API key endpoints
			projects.GET("/:project_id/keys", h.ListApiKeys)
			projects.POST("/:project_id/keys", h.CreateApiKey)
			projects.DELETE("/:project_id/keys/:key_id", h.DeleteApiKey)

			// Rule endpoints
			projects.GET("/:project_id/rules", h.ListRules)
			projects.POST("/:project_id/rules", h.CreateRule)
			projects.DELETE("/:project_id/rules/:rule_id", h.DeleteRule)

			// Ledger reads
			projects.GET("/:project_id/events", h.ListEvents)
			projects.GET("/:project_id/notifications", h.ListNotifications)
		}

		api.GET("/events/:event_id", sessionAuth, h.GetEvent)
		api.GET("/notifications/:notification_id", sessionAuth, h.GetNotification)
	}

	return r
}
