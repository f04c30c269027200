package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	pricingdomain "github.com/swiftdrop/dispatch/internal/pricing/domain"
)

type quoteRequest struct {
	OrderID    string    `json:"order_id"`
	Subtotal   int64     `json:"subtotal"`
	DistanceKm float64   `json:"distance_km"`
	StopCount  int       `json:"stop_count"`
	PlacedAt   time.Time `json:"placed_at"`
	ZoneID     string    `json:"zone_id,omitempty"`
}

// QuoteDeliveryFee computes the delivery-fee breakdown for an order context.
func (s *Server) QuoteDeliveryFee(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	orderID, err := parseID(req.OrderID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	order := pricingdomain.OrderContext{
		OrderID:    orderID,
		Subtotal:   req.Subtotal,
		DistanceKm: req.DistanceKm,
		StopCount:  req.StopCount,
		PlacedAt:   req.PlacedAt,
	}
	if zoneID, err := parseOptionalID(req.ZoneID); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	} else if zoneID != nil {
		order.ZoneID = zoneID
	}

	breakdown, err := s.pricingSvc.Quote(c.Request.Context(), order)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

// GetPricingSnapshot returns the active pricing snapshot for inspection.
func (s *Server) GetPricingSnapshot(c *gin.Context) {
	snap, err := s.pricingSvc.Snapshot(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}

func parseOptionalID(value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(trimmed)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
