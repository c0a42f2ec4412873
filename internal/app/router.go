package app

import (
	"gapmentor_backend/docs"
	"gapmentor_backend/internal/config"
	"gapmentor_backend/internal/middleware"
	"gapmentor_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		tests := authGroup.Group("/tests")
		{
			tests.POST("", c.test.StartTest)
			tests.GET("", c.test.ListTests)
			tests.GET("/:id", c.test.GetResults)
			tests.GET("/:id/session", c.test.GetSession)
			tests.POST("/:id/answer", c.test.SubmitAnswer)
			tests.POST("/:id/navigate", c.test.Navigate)
			tests.POST("/:id/finalize", c.test.Finalize)
			tests.GET("/:id/results", c.test.GetResults)
		}

		gaps := authGroup.Group("/gaps")
		{
			gaps.GET("", c.gap.ListGaps)
			gaps.PATCH("/:id/resolve", c.gap.ResolveGap)
		}

		plans := authGroup.Group("/study-plans")
		{
			plans.POST("", c.studyPlan.GeneratePlan)
			plans.GET("", c.studyPlan.ListPlans)
			plans.GET("/active", c.studyPlan.GetActivePlan)
			plans.PATCH("/tasks/:taskId/complete", c.studyPlan.CompleteTask)
		}

		chat := authGroup.Group("/chat")
		{
			chat.POST("/ask", c.chat.Ask)
			chat.POST("/stream", c.chat.AskStream)
			chat.GET("/history", c.chat.GetHistory)
			chat.GET("/sessions", c.chat.ListSessions)
			chat.GET("/suggestions", c.chat.GetSuggestions)
		}

		progress := authGroup.Group("/progress")
		{
			progress.GET("/overview", c.progress.GetOverview)
			progress.GET("/topics", c.progress.GetTopicPerformance)
		}
	}
}
