package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"liyu1981.xyz/aquapure-service/pkg/aqua"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/feed"
	"liyu1981.xyz/aquapure-service/pkg/metrics"
)

type RestfulServer struct {
	Server           *gin.Engine
	Aqua             *aqua.Aqua
	RateLimiterStore *aqua.RateLimiterStore
	Metrics          *metrics.Metrics
	// Feed, when set, receives every snapshot posted to /sensors so that
	// dashboard sessions see it.
	Feed *feed.ChanFeed

	sessions sessionCache
}

func (rs *RestfulServer) GetLimiter(userID string) *rate.Limiter {
	if rs.RateLimiterStore == nil {
		return nil
	} else {
		return rs.RateLimiterStore.GetLimiter(userID)
	}
}

func (rs *RestfulServer) CheckUserLimiter(userID string) bool {
	limiter := rs.GetLimiter(userID)
	if limiter == nil {
		return true
	}
	if !limiter.Allow() {
		rs.Metrics.RateLimited("http")
		return false
	}
	return true
}

func (rs *RestfulServer) SetLimiter(userID string, userRate float64, userBurst int) {
	if rs.RateLimiterStore == nil {
		return
	}
	rs.RateLimiterStore.SetLimiter(userID, rate.Limit(userRate), userBurst)
}

// observe records request count and latency per route template.
func (rs *RestfulServer) observe(c *gin.Context) {
	start := time.Now()
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	rs.Metrics.ObserveRequest("http", route, c.Writer.Status(), time.Since(start))

	if c.Writer.Status() >= 500 {
		common.GetLoggerWith(common.LoggerNameRestfulServer).Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Strings("errors", c.Errors.Errors()),
		)
	}
}

func (rs *RestfulServer) Setup() {
	rs.Server.Use(rs.observe)

	rs.Server.GET("/healthz", rs.HealthCheck)
	if rs.Metrics != nil {
		rs.Server.GET("/metrics", gin.WrapH(rs.Metrics.Handler()))
	}

	users := rs.Server.Group("/users/:user_id")
	{
		users.POST("/usage", rs.PostUsage)
		users.GET("/usage/today", rs.GetToday)
		users.GET("/usage/weekly", rs.GetWeekly)
		users.GET("/usage/monthly", rs.GetMonthly)
		users.GET("/usage/yearly", rs.GetYearly)
		users.GET("/usage/summary", rs.GetSummary)
		users.POST("/sensors", rs.PostSensor)
		users.GET("/alerts", rs.GetAlerts)
		users.GET("/dashboard", rs.GetDashboard)
		users.POST("/limiter", rs.PostLimiter)
	}
}
