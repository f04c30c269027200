package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftdrop/dispatch/internal/clock"
	commissiondomain "github.com/swiftdrop/dispatch/internal/commission/domain"
	commissionservice "github.com/swiftdrop/dispatch/internal/commission/service"
	"github.com/swiftdrop/dispatch/internal/config"
	obsmetrics "github.com/swiftdrop/dispatch/internal/observability/metrics"
	payoutservice "github.com/swiftdrop/dispatch/internal/payout/service"
	pricingdomain "github.com/swiftdrop/dispatch/internal/pricing/domain"
	pricingrepository "github.com/swiftdrop/dispatch/internal/pricing/repository"
	pricingservice "github.com/swiftdrop/dispatch/internal/pricing/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&pricingdomain.PricingConfig{},
		&pricingdomain.TimeSlot{},
		&pricingdomain.Zone{},
		&commissiondomain.CommissionSetting{},
		&commissiondomain.CommissionRecord{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC))
	cfg := config.Config{Environment: "test", HTTPPort: "0"}

	pricingSvc := pricingservice.NewService(pricingservice.ServiceParam{
		Log:   log,
		Store: pricingrepository.NewSnapshotStore(pricingrepository.StoreParams{DB: db}),
	})
	commissionSvc := commissionservice.NewService(commissionservice.ServiceParam{
		DB:    db,
		Log:   log,
		Clock: fake,
		GenID: node,
	})
	payoutSvc := payoutservice.NewService(payoutservice.ServiceParam{
		DB:    db,
		Log:   log,
		Clock: fake,
	})

	metrics := obsmetrics.NewHTTPMetricsWith(prometheus.NewRegistry())
	engine := NewEngine(cfg, log, metrics)

	srv := NewServer(Params{
		Engine:        engine,
		Cfg:           cfg,
		Log:           log,
		PricingSvc:    pricingSvc,
		CommissionSvc: commissionSvc,
		PayoutSvc:     payoutSvc,
	})
	srv.RegisterRoutes()

	return srv, db
}

func seedActivePricing(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&pricingdomain.PricingConfig{
		ID:                    snowflake.ID(1),
		Name:                  "standard",
		BaseFee:               299,
		PricePerKm:            50,
		FreeDeliveryThreshold: 2500,
		MaxFreeDistanceKm:     5,
		RemoteZoneFee:         500,
		RemoteZoneDistanceKm:  15,
		MultiStopFee:          150,
		WeekendMultiplier:     1.1,
		HolidayMultiplier:     1.5,
		IsActive:              true,
	}).Error)
}

func doJSON(srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQuoteDeliveryFee(t *testing.T) {
	srv, db := newTestServer(t)
	seedActivePricing(t, db)

	rec := doJSON(srv, http.MethodPost, "/v1/pricing/quote", gin.H{
		"order_id":    "42",
		"subtotal":    2000,
		"distance_km": 20,
		"stop_count":  1,
		"placed_at":   "2025-06-18T09:30:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var breakdown pricingdomain.FeeBreakdown
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &breakdown))
	assert.Equal(t, int64(299), breakdown.BaseFee)
	assert.Equal(t, int64(750), breakdown.DistanceFee)
	assert.Equal(t, int64(500), breakdown.RemoteFee)
	assert.Equal(t, int64(1549), breakdown.TotalFee)
}

func TestQuote_NoActivePricingIs422(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(srv, http.MethodPost, "/v1/pricing/quote", gin.H{
		"order_id":    "42",
		"subtotal":    2000,
		"distance_km": 3,
		"stop_count":  1,
		"placed_at":   "2025-06-18T09:30:00Z",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "config_inactive", resp.Error.Type)
}

func TestQuote_ValidationErrorIs400(t *testing.T) {
	srv, db := newTestServer(t)
	seedActivePricing(t, db)

	rec := doJSON(srv, http.MethodPost, "/v1/pricing/quote", gin.H{
		"order_id":    "42",
		"subtotal":    -1,
		"distance_km": 3,
		"stop_count":  1,
		"placed_at":   "2025-06-18T09:30:00Z",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error.Type)
	require.Len(t, resp.Error.Errors, 1)
	assert.Equal(t, "subtotal", resp.Error.Errors[0].Field)
}

func TestQuote_MalformedBodyIs400(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/pricing/quote", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommissionLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	settleBody := gin.H{
		"order_id":           "1001",
		"delivery_fee":       1000,
		"driver_id":          "77",
		"commission_percent": 20,
	}

	rec := doJSON(srv, http.MethodPost, "/v1/commissions/settle", settleBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var record commissiondomain.CommissionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, int64(200), record.PlatformAmount)
	assert.Equal(t, int64(800), record.DriverAmount)

	rec = doJSON(srv, http.MethodPost, "/v1/commissions/1001/paid", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Finalized: settlement and cancellation are both rejected with a conflict.
	rec = doJSON(srv, http.MethodPost, "/v1/commissions/settle", settleBody)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(srv, http.MethodPost, "/v1/commissions/1001/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(srv, http.MethodGet, "/v1/commissions/1001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, commissiondomain.StatusPaid, record.Status)
}

func TestGetCommission_NotFoundIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(srv, http.MethodGet, "/v1/commissions/999999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error.Type)
}

func TestCommissionStatsOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(srv, http.MethodPost, "/v1/commissions/settle", gin.H{
		"order_id":           "2001",
		"delivery_fee":       1000,
		"driver_id":          "10",
		"commission_percent": 20,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(srv, http.MethodGet, "/v1/commissions/stats?period=day", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats["record_count"])

	rec = doJSON(srv, http.MethodGet, "/v1/commissions/stats?period=fortnight", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(srv, http.MethodGet, "/v1/commissions/stats?from=2025-06-01T00:00:00Z", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
