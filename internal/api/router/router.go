package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weekend-planner/backend/config"
	"weekend-planner/backend/internal/api/handler"
	"weekend-planner/backend/internal/api/middleware"
	"weekend-planner/backend/pkg/jwt"
	"weekend-planner/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil：此时不做 Token 黑名单检查与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// 避免 nil *redis.Client 被包装成非 nil 接口
	var (
		blacklist middleware.Blacklist
		limiter   middleware.Limiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(limiter, cfg.Auth.RateLimit.Limit, cfg.Auth.RateLimit.Window))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 课程模块
			courses := authorized.Group("/courses")
			{
				courses.GET("", h.Course.ListCourses)
				courses.POST("", h.Course.CreateCourse)
				courses.GET("/credits", h.Course.GetCredits)
				courses.PUT("/color", h.Course.SetColor)
				courses.POST("/merge", h.Course.MergeCourses)
				courses.PUT("/:id", h.Course.UpdateCourse)
				courses.POST("/:id/archive", h.Course.ArchiveCourse)
				courses.POST("/:id/unarchive", h.Course.UnarchiveCourse)
			}

			// 课次模块
			sessions := authorized.Group("/sessions")
			{
				sessions.GET("", h.Session.ListSessions)
				sessions.POST("", h.Session.CreateSession)
				sessions.POST("/bulk", h.Session.BulkCreateSessions)
				sessions.PUT("/:id", h.Session.UpdateSession)
				sessions.DELETE("/:id", h.Session.DeleteSession)
			}

			// 排课视图
			planner := authorized.Group("/planner")
			{
				planner.GET("/weeks", h.Planner.ListWeeks)
				planner.GET("/grid", h.Planner.GetWeekGrid)
				planner.GET("/matrix", h.Planner.GetMatrix)
				planner.GET("/conflicts", h.Planner.ListConflicts)
				planner.POST("/conflicts/resolve", h.Planner.ResolveConflict)
				planner.GET("/stats", h.Planner.GetStats)
			}

			// 导入导出
			data := authorized.Group("/data")
			{
				data.GET("/export/json", h.Data.ExportJSON)
				data.GET("/export/csv", h.Data.ExportCSV)
				data.GET("/export/xlsx", h.Data.ExportXLSX)
				data.GET("/export/ics", h.Data.ExportICS)
				data.POST("/import/json", h.Data.ImportJSON)
				data.POST("/import/csv", h.Data.ImportCSV)
				data.POST("/import/ics", h.Data.ImportICS)
			}
		}
	}

	return r
}
