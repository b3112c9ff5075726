package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"school-timetable/backend/config"
	"school-timetable/backend/internal/api/handler"
	"school-timetable/backend/internal/api/middleware"
	"school-timetable/backend/internal/model"
	"school-timetable/backend/pkg/jwt"
	"school-timetable/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	managers := middleware.RoleAuth(model.RoleAdmin, model.RolePrincipal)
	limited := middleware.RateLimit(rdb, cfg.Timetable.RateLimit, cfg.Timetable.RateLimitWindow)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	{
		// 课表模块
		timetable := v1.Group("/timetable")
		{
			timetable.GET("/snapshot", managers, h.Timetable.Snapshot)
			timetable.POST("/generate", managers, limited, h.Timetable.Generate)
			timetable.GET("/latest", h.Timetable.Latest)
			timetable.GET("/active-draft", h.Timetable.ActiveDraft)
			timetable.GET("/history", managers, h.Timetable.History)
			timetable.GET("/:id", h.Timetable.Get)
			timetable.POST("/:id/publish", managers, limited, h.Timetable.Publish)
			timetable.GET("/:id/export", middleware.RoleAuth(model.RoleAdmin, model.RolePrincipal, model.RoleTeacher), h.Export.ExportSchedule)
			timetable.GET("/:id/classes/:classId/calendar", h.Export.ExportClassCalendar)
		}
	}

	return r
}
