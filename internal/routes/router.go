package routes

import (
	"github.com/gin-gonic/gin"

	"taskflow/internal/auth"
	"taskflow/internal/config"
	"taskflow/internal/controller"
	"taskflow/internal/middleware"
)

func Router(ct *controller.Controller, chain *auth.Chain) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(config.Get().CORSOrigins))

	router.GET("/", ct.Root)

	// Health for load balancers and K8s probes
	router.GET("/health", ct.Health)
	router.GET("/ready", ct.Ready)

	// Protected: session token or JWT required, and the path user must
	// match the authenticated user.
	api := router.Group("/api/:user_id")
	api.Use(middleware.Auth(chain), middleware.RequireOwner())
	{
		api.GET("/tasks", ct.ListTasks)
		api.POST("/tasks", ct.CreateTask)
		api.GET("/tasks/:task_id", ct.GetTask)
		api.PUT("/tasks/:task_id", ct.UpdateTask)
		api.DELETE("/tasks/:task_id", ct.DeleteTask)
		api.PATCH("/tasks/:task_id/complete", ct.ToggleComplete)

		api.POST("/chat", ct.Chat)
		api.GET("/stats", ct.Stats)
	}

	return router
}
