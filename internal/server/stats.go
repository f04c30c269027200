package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	payoutdomain "github.com/swiftdrop/dispatch/internal/payout/domain"
)

// GetCommissionStats aggregates commission records over a named period or an
// explicit date range, optionally scoped to one driver.
func (s *Server) GetCommissionStats(c *gin.Context) {
	filter := payoutdomain.StatsFilter{
		Period: payoutdomain.Period(strings.TrimSpace(c.Query("period"))),
	}

	from, err := parseTimeParam(c.Query("from"))
	if err != nil {
		AbortWithError(c, payoutdomain.ErrInvalidRange)
		return
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil {
		AbortWithError(c, payoutdomain.ErrInvalidRange)
		return
	}
	filter.From = from
	filter.To = to

	driverID, err := parseOptionalID(c.Query("driver_id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	filter.DriverID = driverID

	if raw := strings.TrimSpace(c.Query("top_n")); raw != "" {
		topN, err := strconv.Atoi(raw)
		if err != nil || topN < 1 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.TopN = topN
	}

	stats, err := s.payoutSvc.Aggregate(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func parseTimeParam(value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
