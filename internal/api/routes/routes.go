package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/careerarchitect/backend/internal/api/handlers"
	"github.com/careerarchitect/backend/internal/api/middleware"
)

type Deps struct {
	Analysis *handlers.AnalysisHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.Identity())

	api.POST("/analyze", d.Analysis.AnalyzeResume)
	api.POST("/analyze-linkedin", d.Analysis.AnalyzeLinkedIn)
	api.GET("/history", d.Analysis.History)
	api.GET("/history/events", d.Analysis.Events)
	api.DELETE("/analysis/:id", d.Analysis.Delete)
	api.GET("/health", d.Analysis.Health)
}
