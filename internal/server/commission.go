package server

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	commissiondomain "github.com/swiftdrop/dispatch/internal/commission/domain"
)

type settleRequest struct {
	OrderID           string   `json:"order_id"`
	DeliveryFee       int64    `json:"delivery_fee"`
	DriverID          string   `json:"driver_id,omitempty"`
	CommissionPercent *float64 `json:"commission_percent,omitempty"`
}

// SettleCommission settles a delivery fee into the order's commission record.
// Invoked at order placement and again at driver (re)assignment.
func (s *Server) SettleCommission(c *gin.Context) {
	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	orderID, err := parseID(req.OrderID)
	if err != nil {
		AbortWithError(c, commissiondomain.ErrInvalidOrderID)
		return
	}
	driverID, err := parseOptionalID(req.DriverID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	record, err := s.commissionSvc.Settle(c.Request.Context(), commissiondomain.SettleRequest{
		OrderID:           orderID,
		DeliveryFee:       req.DeliveryFee,
		DriverID:          driverID,
		CommissionPercent: req.CommissionPercent,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetCommission returns the commission record for an order.
func (s *Server) GetCommission(c *gin.Context) {
	orderID, err := parseID(c.Param("order_id"))
	if err != nil {
		AbortWithError(c, commissiondomain.ErrInvalidOrderID)
		return
	}

	record, err := s.commissionSvc.Get(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// MarkCommissionPaid transitions a pending record to paid.
func (s *Server) MarkCommissionPaid(c *gin.Context) {
	s.transitionCommission(c, s.commissionSvc.MarkPaid)
}

// CancelCommission transitions a pending record to cancelled.
func (s *Server) CancelCommission(c *gin.Context) {
	s.transitionCommission(c, s.commissionSvc.Cancel)
}

func (s *Server) transitionCommission(
	c *gin.Context,
	transition func(context.Context, snowflake.ID) (*commissiondomain.CommissionRecord, error),
) {
	orderID, err := parseID(c.Param("order_id"))
	if err != nil {
		AbortWithError(c, commissiondomain.ErrInvalidOrderID)
		return
	}

	record, err := transition(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
