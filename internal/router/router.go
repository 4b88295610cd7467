package router

import (
	"net/http"

	"github.com/boopesh07/VideoToShorts/internal/handler"

	"github.com/gin-gonic/gin"
)

func SetupRouter(r *gin.Engine, hdl handler.Handler) {
	api := r.Group("/api")

	{
		api.POST("/shorts/suggest", hdl.SuggestSegments)
		api.POST("/shorts/generate", hdl.GenerateShorts)
		api.GET("/shorts/task", hdl.GetShortsTask)
		api.GET("/shorts/history", hdl.GetTaskHistory)
		api.DELETE("/shorts/task/:taskId", hdl.DeleteTask)
		api.GET("/shorts/probe", hdl.ProbeSource)
		api.GET("/file/*filepath", hdl.DownloadFile)
		api.HEAD("/file/*filepath", hdl.DownloadFile)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
