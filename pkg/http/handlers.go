package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"liyu1981.xyz/aquapure-service/pkg/aqua"
	"liyu1981.xyz/aquapure-service/pkg/datekey"
	"liyu1981.xyz/aquapure-service/pkg/models"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

func isInputError(err error) bool {
	return errors.Is(err, aqua.ErrInvalidDelta) ||
		errors.Is(err, aqua.ErrMissingUser) ||
		errors.Is(err, datekey.ErrInvalidDate) ||
		errors.Is(err, aqua.ErrUnknownWindow)
}

type UsageRequest struct {
	Liters float64   `json:"liters"`
	At     time.Time `json:"at"`
}

var usageRequestSchema = z.Struct(z.Shape{
	"liters": z.Float64().Required().GTE(0),
	"at":     z.Time(),
})

func (rs *RestfulServer) PostUsage(c *gin.Context) {
	userID := c.Param("user_id")

	if !rs.CheckUserLimiter(userID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	var req UsageRequest
	if err := usageRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	saved, err := rs.Aqua.Usage.LogDelta(c.Request.Context(), userID, req.Liters, req.At)
	if err != nil {
		_ = c.Error(err)
		if isInputError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"date": saved.Date, "liters": saved.Liters})
}

func (rs *RestfulServer) GetToday(c *gin.Context) {
	userID := c.Param("user_id")

	if !rs.CheckUserLimiter(userID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	c.JSON(http.StatusOK, gin.H{"liters": rs.Aqua.Usage.TodayUsage(c.Request.Context(), userID)})
}

type WeeklyQuery struct {
	Direction string `json:"direction"`
	Span      int    `json:"span"`
}

var weeklyQuerySchema = z.Struct(z.Shape{
	"direction": z.String().OneOf([]string{"backward", "forward"}),
	"span":      z.Int().GTE(1).LTE(366),
})

func (rs *RestfulServer) GetWeekly(c *gin.Context) {
	userID := c.Param("user_id")

	if !rs.CheckUserLimiter(userID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	var query WeeklyQuery
	if err := weeklyQuerySchema.Parse(zhttp.Request(c.Request), &query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}
	direction, err := aqua.ParseDirection(query.Direction)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if query.Span == 0 {
		query.Span = aqua.DefaultSpanDays
	}

	c.JSON(http.StatusOK, rs.Aqua.Usage.Window(c.Request.Context(), userID, time.Time{}, query.Span, direction))
}

type MonthlyQuery struct {
	Months int `json:"months"`
}

var monthlyQuerySchema = z.Struct(z.Shape{
	"months": z.Int().GTE(1).LTE(120),
})

func (rs *RestfulServer) GetMonthly(c *gin.Context) {
	userID := c.Param("user_id")

	if !rs.CheckUserLimiter(userID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	var query MonthlyQuery
	if err := monthlyQuerySchema.Parse(zhttp.Request(c.Request), &query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}
	if query.Months == 0 {
		query.Months = aqua.DefaultMonthCount
	}

	c.JSON(http.StatusOK, rs.Aqua.Usage.Months(c.Request.Context(), userID, time.Time{}, query.Months))
}

func (rs *RestfulServer) GetYearly(c *gin.Context) {
	userID := c.Param("user_id")

	if !rs.CheckUserLimiter(userID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	c.JSON(http.StatusOK, rs.Aqua.Usage.Years(c.Request.Context(), userID))
}

type SummaryResponse struct {
	models.Summary
	TotalLitersDisplay  string `json:"total_liters_display"`
	MoneySavedDisplay   string `json:"money_saved_display"`
	FilterHealthDisplay string `json:"filter_health_display"`
}

func (rs *RestfulServer) GetSummary(c *gin.Context) {
	userID := c.Param("user_id")

	if !rs.CheckUserLimiter(userID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	summary := rs.Aqua.Usage.Summary(c.Request.Context(), userID)
	c.JSON(http.StatusOK, SummaryResponse{
		Summary:             summary,
		TotalLitersDisplay:  summary.FormatTotalLiters(),
		MoneySavedDisplay:   summary.FormatMoneySaved(),
		FilterHealthDisplay: summary.FormatFilterHealth(),
	})
}

// PostSensor accepts a loosely typed sensor payload: fields may be numbers
// or numeric strings, and anything missing reads as 0.
func (rs *RestfulServer) PostSensor(c *gin.Context) {
	userID := c.Param("user_id")

	if !rs.CheckUserLimiter(userID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snapshot := models.ParseSensorSnapshot(raw)

	if rs.Feed != nil {
		rs.Feed.Publish(userID, snapshot)
	}

	evaluation, fired, err := rs.Aqua.Alert.CheckSnapshot(c.Request.Context(), userID, snapshot)
	response := gin.H{
		"safe":   evaluation.Safe,
		"status": evaluation.Status(),
		"fired":  fired,
	}
	if err != nil {
		// the alert was raised; a failed side effect is reported in-band
		_ = c.Error(err)
		response["error"] = err.Error()
	}

	c.JSON(http.StatusOK, response)
}

func (rs *RestfulServer) GetAlerts(c *gin.Context) {
	userID := c.Param("user_id")

	if !rs.CheckUserLimiter(userID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	var alerts []models.AlertHistory
	var err error
	if alerts, err = rs.Aqua.Alert.ListAlerts(c.Request.Context(), userID); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if alerts == nil {
		alerts = []models.AlertHistory{}
	}

	c.JSON(http.StatusOK, alerts)
}

type LimiterRequest struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"rate":  z.Float64().Required(),
	"burst": z.Int().Required(),
})

func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	userID := c.Param("user_id")

	var req LimiterRequest
	if err := limiterRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	rs.SetLimiter(userID, req.Rate, req.Burst)

	c.Status(http.StatusOK)
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
