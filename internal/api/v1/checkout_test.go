package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	v1 "github.com/subcart/subcart/internal/api/v1"
	"github.com/subcart/subcart/internal/cache"
	"github.com/subcart/subcart/internal/config"
	"github.com/subcart/subcart/internal/domain/product"
	"github.com/subcart/subcart/internal/hooks"
	"github.com/subcart/subcart/internal/logger"
	"github.com/subcart/subcart/internal/rest"
	"github.com/subcart/subcart/internal/service"
	"github.com/subcart/subcart/internal/testutil"
	"github.com/subcart/subcart/internal/types"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	products := testutil.NewInMemoryProductStore()
	products.Add(&product.Product{
		ID:           "prod_basic",
		Slug:         "basic",
		Name:         "Basic",
		Type:         types.ProductTypePlan,
		Hash:         "BAS1CC",
		Amount:       decimal.NewFromInt(20),
		Currency:     "usd",
		Recurring:    true,
		Duration:     1,
		DurationUnit: types.DurationUnitMonth,
	})

	cfg := &config.Configuration{
		Checkout: config.DefaultCheckoutConfig(),
	}

	checkout := service.NewCheckoutService(service.ServiceParams{
		Logger:         logger.NewNop(),
		Config:         cfg,
		Cache:          cache.NewInMemoryCache(),
		Hooks:          hooks.Noop{},
		ProductRepo:    products,
		MembershipRepo: testutil.NewInMemoryMembershipStore(),
		PaymentRepo:    testutil.NewInMemoryPaymentStore(),
		DiscountRepo:   testutil.NewInMemoryDiscountStore(),
		TaxRateRepo:    testutil.NewInMemoryTaxRateStore(),
	})

	return rest.NewRouter(cfg, rest.Handlers{
		Checkout: v1.NewCheckoutHandler(checkout, logger.NewNop()),
	})
}

func TestCheckoutPreviewEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body, err := json.Marshal(map[string]any{
		"customer_id": "cust_1",
		"products":    []string{"basic"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/checkout/preview", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp struct {
		Type         string `json:"type"`
		Valid        bool   `json:"valid"`
		Currency     string `json:"currency"`
		DisplayTotal string `json:"display_total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "new", resp.Type)
	assert.True(t, resp.Valid)
	assert.Equal(t, "usd", resp.Currency)
	assert.Equal(t, "$20.00", resp.DisplayTotal)
}

func TestCheckoutPreviewMalformedBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/checkout/preview", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid request format", resp.Error.Message)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
