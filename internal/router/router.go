package router

import (
	"github.com/carelog/internal/config"
	"github.com/carelog/internal/db"
	"github.com/carelog/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	// 会话只承载记录者名与表单 epoch
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("carelog_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	a := handler.NewAPI(db.DB)

	api := r.Group("/api")
	{
		api.GET("/session", a.GetSession)
		api.POST("/session", a.UpdateSession)

		api.GET("/units", a.ListUnits)
		api.GET("/units/:id/residents", a.ListUnitResidents)
		api.POST("/residents", a.CreateResident)
		api.POST("/residents/:id/deactivate", a.DeactivateResident)

		api.POST("/records", a.CreateRecord)
		api.GET("/records", a.ListRecords)
		api.GET("/records/range", a.ListRecordRange)
		api.GET("/records/vitals", a.GetVitalSeries)
		api.GET("/records/latest-vitals", a.GetLatestVitals)
		api.GET("/records/:id/patrols", a.GetRecordPatrols)
		api.DELETE("/records/:id", a.DeleteRecord)
		api.POST("/records/:id/confirm", a.ConfirmRecord)

		api.GET("/snapshot", a.GetSnapshot)
		api.GET("/board", a.GetUnitBoard)

		api.GET("/handovers", a.ListHandovers)
		api.POST("/handovers/:id/confirm", a.ConfirmHandover)
		api.POST("/handovers/:id/reactions", a.ToggleHandoverReaction)
		api.GET("/handovers/:id/reactions", a.ListHandoverReactions)
	}

	return r
}
