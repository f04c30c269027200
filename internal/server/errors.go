package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/swiftdrop/dispatch/internal/commission/domain"
	payoutdomain "github.com/swiftdrop/dispatch/internal/payout/domain"
	pricingdomain "github.com/swiftdrop/dispatch/internal/pricing/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware renders the last handler error as a structured
// JSON payload.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// validationFields maps domain validation sentinels to the offending input
// field, so operators can tell a bad record from a missing configuration.
var validationFields = map[error]string{
	pricingdomain.ErrInvalidSubtotal:       "subtotal",
	pricingdomain.ErrInvalidDistance:       "distance_km",
	pricingdomain.ErrInvalidStopCount:      "stop_count",
	pricingdomain.ErrInvalidPlacedAt:       "placed_at",
	commissiondomain.ErrInvalidOrderID:     "order_id",
	commissiondomain.ErrInvalidDeliveryFee: "delivery_fee",
	commissiondomain.ErrInvalidPercent:     "commission_percent",
	payoutdomain.ErrInvalidPeriod:          "period",
	payoutdomain.ErrInvalidRange:           "from",
}

func mapError(err error) (int, errorPayload) {
	for sentinel, field := range validationFields {
		if errors.Is(err, sentinel) {
			return http.StatusBadRequest, errorPayload{
				Type:    "validation_error",
				Message: "validation error",
				Errors: []ValidationError{
					{Field: field, Code: sentinel.Error(), Message: "invalid value for " + field},
				},
			}
		}
	}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "invalid request",
		}
	case errors.Is(err, pricingdomain.ErrNoActivePricing):
		// Distinct from field validation: the fix is publishing an active
		// pricing config, not correcting an input.
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "config_inactive",
			Message: "no active pricing configuration exists",
		}
	case errors.Is(err, commissiondomain.ErrCommissionFinalized):
		return http.StatusConflict, errorPayload{
			Type:    "commission_finalized",
			Message: "commission record is paid or cancelled and can no longer change",
		}
	case errors.Is(err, commissiondomain.ErrCommissionNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "commission record not found",
		}
	case errors.Is(err, commissiondomain.ErrPersistence):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "persistence_failure",
			Message: "storage temporarily unavailable, retry with backoff",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
