package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studytracker/internal/handler"
	"studytracker/internal/middleware"
)

func New(
	timerHandler *handler.TimerHandler,
	catalogHandler *handler.CatalogHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")

	timer := api.Group("/timer")
	timer.GET("", timerHandler.GetState)
	timer.POST("/start", timerHandler.Start)
	timer.POST("/pause", timerHandler.Pause)
	timer.POST("/resume", timerHandler.Resume)
	timer.POST("/stop", timerHandler.Stop)
	timer.POST("/reset", timerHandler.Reset)
	timer.PUT("/durations", timerHandler.UpdateDuration)
	timer.PUT("/selection", timerHandler.UpdateSelection)
	timer.PUT("/sound", timerHandler.UpdateSound)
	timer.GET("/events", timerHandler.Events)

	subjects := api.Group("/subjects")
	subjects.GET("", catalogHandler.ListSubjects)
	subjects.POST("", catalogHandler.CreateSubject)
	subjects.PATCH("/:id", catalogHandler.UpdateSubject)
	subjects.DELETE("/:id", catalogHandler.DeleteSubject)
	subjects.POST("/:id/modules", catalogHandler.CreateModule)

	modules := api.Group("/modules")
	modules.PATCH("/:id", catalogHandler.UpdateModule)
	modules.DELETE("/:id", catalogHandler.DeleteModule)
	modules.POST("/:id/review", catalogHandler.ReviewModule)
	modules.POST("/:id/subtopics", catalogHandler.CreateSubtopic)

	subtopics := api.Group("/subtopics")
	subtopics.PATCH("/:id", catalogHandler.UpdateSubtopic)
	subtopics.DELETE("/:id", catalogHandler.DeleteSubtopic)

	api.GET("/history", catalogHandler.GetHistory)
	api.GET("/stats", catalogHandler.GetStats)
	api.GET("/reviews", catalogHandler.GetReviews)

	return engine
}
