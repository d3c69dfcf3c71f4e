package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TekupDK/tekup-sub000/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "field-service-api",
		})
	})

	jobHandler := handler.NewJobHandler(deps)
	notificationHandler := handler.NewNotificationHandler(deps)
	realtimeHandler := handler.NewRealtimeHandler(deps)

	// WebSocket endpoint; registered outside the authenticated group
	// because the handler verifies the token itself so the 401 lands
	// before the protocol upgrade.
	r.GET("/api/v1/realtime/ws", realtimeHandler.Connect)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(AuthMiddleware(deps.Verifier, deps.Logger))
	{
		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Create a new job
			jobs.POST("", jobHandler.CreateJob)

			// GET /api/v1/jobs - List jobs with filtering and pagination
			jobs.GET("", jobHandler.ListJobs)

			// GET /api/v1/jobs/:job_id - Get job details
			jobs.GET("/:job_id", jobHandler.GetJob)

			// PATCH /api/v1/jobs/:job_id/status - Apply a status transition
			jobs.PATCH("/:job_id/status", jobHandler.UpdateJobStatus)

			// PUT /api/v1/jobs/:job_id/assignments - Replace the assignment set
			jobs.PUT("/:job_id/assignments", jobHandler.AssignJob)

			// POST /api/v1/jobs/:job_id/reschedule - Clone the job onto a new date
			jobs.POST("/:job_id/reschedule", jobHandler.RescheduleJob)

			// DELETE /api/v1/jobs/:job_id - Delete a job
			jobs.DELETE("/:job_id", jobHandler.DeleteJob)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/:notification_id/read", notificationHandler.MarkRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
		}

		realtime := v1.Group("/realtime")
		{
			realtime.GET("/online-users", realtimeHandler.OnlineUsers)
			realtime.GET("/users/:user_id/online", realtimeHandler.UserOnline)
			realtime.POST("/broadcast", realtimeHandler.Broadcast)
		}
	}

	return r
}
