package nowpayments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		BaseURL:    srv.URL,
		APIKey:     "test-api-key",
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestCreateInvoice(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAPIKey string

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/invoice", r.URL.Path)
		gotAPIKey = r.Header.Get("x-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":5077125051,"invoice_url":"https://nowpayments.io/payment/?iid=5077125051"}`))
	})

	inv, err := c.CreateInvoice(context.Background(), InvoiceRequest{
		OrderID:     "7_pro_monthly_1700000000",
		Description: "CryptoScope pro (monthly)",
		PriceUSD:    2900,
		PayCurrency: "BTC",
		SuccessURL:  "https://app.example.com/billing?success=true",
		CancelURL:   "https://app.example.com/billing?canceled=true",
		IPNURL:      "https://app.example.com/webhook/nowpayments",
	})
	require.NoError(t, err)

	assert.Equal(t, "test-api-key", gotAPIKey)
	assert.Equal(t, "5077125051", inv.InvoiceID)
	assert.Equal(t, "https://nowpayments.io/payment/?iid=5077125051", inv.HostedURL)
	assert.Equal(t, 29.0, inv.PriceUSD)
	assert.Equal(t, "BTC", inv.PayCurrency)
	assert.WithinDuration(t, time.Now().Add(invoiceExpiry), inv.ExpiresAt, 5*time.Second)

	// Cents are converted to major units and the rate is locked.
	assert.Equal(t, 29.0, gotBody["price_amount"])
	assert.Equal(t, "USD", gotBody["price_currency"])
	assert.Equal(t, true, gotBody["is_fixed_rate"])
	assert.Equal(t, "7_pro_monthly_1700000000", gotBody["order_id"])
}

func TestCreateInvoiceProviderError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"invalid api key"}`))
	})

	_, err := c.CreateInvoice(context.Background(), InvoiceRequest{PriceUSD: 2900, PayCurrency: "BTC"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=403")
}

func TestGetPaymentStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payment/6247103566", r.URL.Path)
		w.Write([]byte(`{"payment_id":6247103566,"payment_status":"confirming","pay_currency":"btc","actually_paid":0.0021}`))
	})

	st, err := c.GetPaymentStatus(context.Background(), "6247103566")
	require.NoError(t, err)
	assert.Equal(t, "6247103566", st.PaymentID.String())
	assert.Equal(t, "confirming", st.PaymentStatus)
	assert.Equal(t, "0.0021", st.ActuallyPaid.String())
}

func TestEstimatePrice(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/estimate", r.URL.Path)
		require.Equal(t, "BTC", r.URL.Query().Get("currency_to"))
		w.Write([]byte(`{"estimated_amount":0.000483}`))
	})

	est, err := c.EstimatePrice(context.Background(), 29.0, "BTC")
	require.NoError(t, err)
	assert.Equal(t, 0.000483, est.Amount)
	assert.InDelta(t, 29.0/0.000483, est.Rate, 0.01)
}

func TestAvailableCurrenciesFallback(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	assert.Equal(t, []string{"BTC", "SOL"}, c.AvailableCurrencies(context.Background()))
}

func TestTicker(t *testing.T) {
	assert.Equal(t, "BTC", Ticker("bitcoin"))
	assert.Equal(t, "SOL", Ticker("solana"))
	assert.Empty(t, Ticker("dogecoin"))
}
