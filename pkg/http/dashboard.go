package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/aquapure-service/pkg/aqua"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/feed"
)

// dashboardReadyTimeout bounds how long the first request for a user waits
// for its session to load.
const dashboardReadyTimeout = 2 * time.Second

// sessionCache keeps one live dashboard session per user until the server
// closes.
type sessionCache struct {
	mu       sync.Mutex
	sessions map[string]*aqua.Session
	closed   bool
}

func (rs *RestfulServer) session(userID string) (*aqua.Session, error) {
	rs.sessions.mu.Lock()
	defer rs.sessions.mu.Unlock()

	if rs.sessions.closed {
		return nil, http.ErrServerClosed
	}
	if s, ok := rs.sessions.sessions[userID]; ok {
		return s, nil
	}

	var f feed.Feed
	if rs.Feed != nil {
		f = rs.Feed
	}
	s, err := rs.Aqua.OpenSession(context.Background(), userID, f)
	if err != nil {
		return nil, err
	}

	if rs.sessions.sessions == nil {
		rs.sessions.sessions = make(map[string]*aqua.Session)
	}
	rs.sessions.sessions[userID] = s

	common.GetLoggerWith(common.LoggerNameRestfulServer).Debug("Dashboard session opened", zap.String("user_id", userID))
	return s, nil
}

// Close ends every dashboard session.
func (rs *RestfulServer) Close() {
	rs.sessions.mu.Lock()
	defer rs.sessions.mu.Unlock()

	rs.sessions.closed = true
	for userID, s := range rs.sessions.sessions {
		s.Close()
		delete(rs.sessions.sessions, userID)
	}
}

type DashboardResponse struct {
	aqua.SessionView
	WaterStatus         string `json:"water_status"`
	TotalLitersDisplay  string `json:"total_liters_display"`
	MoneySavedDisplay   string `json:"money_saved_display"`
	FilterHealthDisplay string `json:"filter_health_display"`
}

func (rs *RestfulServer) GetDashboard(c *gin.Context) {
	userID := c.Param("user_id")

	if !rs.CheckUserLimiter(userID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	s, err := rs.session(userID)
	if err != nil {
		_ = c.Error(err)
		if isInputError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	select {
	case <-s.Ready():
	case <-c.Request.Context().Done():
	case <-time.After(dashboardReadyTimeout):
	}

	view := s.View()
	c.JSON(http.StatusOK, DashboardResponse{
		SessionView:         view,
		WaterStatus:         view.Evaluation.Status(),
		TotalLitersDisplay:  view.Summary.FormatTotalLiters(),
		MoneySavedDisplay:   view.Summary.FormatMoneySaved(),
		FilterHealthDisplay: view.Summary.FormatFilterHealth(),
	})
}
