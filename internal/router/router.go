package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/habitlog/internal/handler"
)

const requestIDHeader = "X-Request-ID"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string, requireLogin bool) *gin.Engine {
	r := gin.Default()

	if sessionSecret == "" {
		sessionSecret = "habitlog-dev-secret"
	}

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 7 * 24 * 3600})
	r.Use(sessions.Sessions("habitlog_session", store))
	r.Use(requestID())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	r.POST("/login", api.Login)
	r.POST("/logout", api.Logout)

	apiGroup := r.Group("/api")
	if requireLogin {
		apiGroup.Use(handler.AuthRequired())
	}
	{
		apiGroup.GET("/habits", api.ListHabits)
		apiGroup.GET("/habits/pending", api.ListPendingHabits)
		apiGroup.POST("/habits", api.CreateHabit)
		apiGroup.DELETE("/habits", api.ClearHabits)
		apiGroup.GET("/habits/:id", api.GetHabit)
		apiGroup.PUT("/habits/:id", api.UpdateHabit)
		apiGroup.DELETE("/habits/:id", api.DeleteHabit)
		apiGroup.POST("/habits/:id/complete", api.CompleteHabit)
		apiGroup.GET("/habits/:id/streak", api.GetHabitStreak)

		apiGroup.GET("/analytics", api.GetAnalytics)
		apiGroup.GET("/analytics/text", api.GetAnalyticsText)
		apiGroup.GET("/analytics/longest", api.GetLongestStreaks)
		apiGroup.GET("/analytics/categories", api.GetCategoryGroups)
		apiGroup.GET("/analytics/completion", api.GetCompletionRates)
	}

	return r
}

// requestID 为每个请求附加 X-Request-ID，已携带时原样回传
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
