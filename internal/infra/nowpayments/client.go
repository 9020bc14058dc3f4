package nowpayments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"cryptoscope-api/config"
)

// invoiceExpiry is the fixed window NOWPayments enforces on hosted
// invoices. The provider owns the countdown; we only surface it.
const invoiceExpiry = 60 * time.Minute

// Tickers for the supported crypto currencies.
var currencyTickers = map[string]string{
	"bitcoin": "BTC",
	"solana":  "SOL",
}

// Ticker translates a currency name from the API surface into the
// provider's ticker symbol. Empty for unsupported currencies.
func Ticker(currency string) string {
	return currencyTickers[currency]
}

// Client talks to the NOWPayments REST API. Crypto has no native
// recurrence, so every invoice is a one-time purchase of a 30 or 365
// day access window.
type Client struct {
	BaseURL    string
	APIKey     string
	IPNSecret  string
	HTTPClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL:   cfg.NowPaymentsBaseURL,
		APIKey:    cfg.NowPaymentsAPIKey,
		IPNSecret: cfg.NowPaymentsIPNSecret,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Invoice is the created hosted invoice, reduced to what the API
// surface needs.
type Invoice struct {
	InvoiceID   string    `json:"invoice_id"`
	HostedURL   string    `json:"hosted_url"`
	PriceUSD    float64   `json:"price_usd"`
	PayCurrency string    `json:"pay_currency"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// InvoiceRequest carries everything the order id must encode: enough
// context to reconstruct intent if the local row were ever lost.
type InvoiceRequest struct {
	OrderID     string
	Description string
	PriceUSD    int64 // cents
	PayCurrency string
	SuccessURL  string
	CancelURL   string
	IPNURL      string
}

// CreateInvoice requests a fixed-rate hosted invoice: the quoted crypto
// amount is locked at creation time rather than floating until payment.
func (c *Client) CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error) {
	body := map[string]interface{}{
		"price_amount":        float64(req.PriceUSD) / 100.0,
		"price_currency":      "USD",
		"pay_currency":        req.PayCurrency,
		"order_id":            req.OrderID,
		"order_description":   req.Description,
		"success_url":         req.SuccessURL,
		"cancel_url":          req.CancelURL,
		"ipn_callback_url":    req.IPNURL,
		"is_fixed_rate":       true,
		"is_fee_paid_by_user": false,
	}

	var out struct {
		ID         json.Number `json:"id"`
		InvoiceURL string      `json:"invoice_url"`
	}
	if err := c.post(ctx, "/invoice", body, &out); err != nil {
		return nil, fmt.Errorf("NOWPayments invoice creation failed: %w", err)
	}

	return &Invoice{
		InvoiceID:   out.ID.String(),
		HostedURL:   out.InvoiceURL,
		PriceUSD:    float64(req.PriceUSD) / 100.0,
		PayCurrency: req.PayCurrency,
		ExpiresAt:   time.Now().Add(invoiceExpiry),
	}, nil
}

// PaymentStatus is the provider-side view of a payment.
type PaymentStatus struct {
	PaymentID     json.Number `json:"payment_id"`
	PaymentStatus string      `json:"payment_status"`
	PayCurrency   string      `json:"pay_currency"`
	ActuallyPaid  json.Number `json:"actually_paid"`
}

// GetPaymentStatus polls a payment by provider payment id.
func (c *Client) GetPaymentStatus(ctx context.Context, paymentID string) (*PaymentStatus, error) {
	var out PaymentStatus
	if err := c.get(ctx, "/payment/"+url.PathEscape(paymentID), &out); err != nil {
		return nil, fmt.Errorf("failed to fetch payment status: %w", err)
	}
	return &out, nil
}

// Estimate is a preview of the crypto amount for a USD price.
type Estimate struct {
	Amount float64 `json:"amount"`
	Rate   float64 `json:"rate"`
}

// EstimatePrice previews the crypto amount for amountUSD (major units).
func (c *Client) EstimatePrice(ctx context.Context, amountUSD float64, ticker string) (*Estimate, error) {
	path := fmt.Sprintf("/estimate?amount=%v&currency_from=USD&currency_to=%s", amountUSD, url.QueryEscape(ticker))
	var out struct {
		EstimatedAmount float64 `json:"estimated_amount"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch estimate: %w", err)
	}
	est := &Estimate{Amount: out.EstimatedAmount}
	if out.EstimatedAmount > 0 {
		est.Rate = amountUSD / out.EstimatedAmount
	}
	return est, nil
}

// AvailableCurrencies lists the provider's currencies, falling back to
// the two we support when the call fails.
func (c *Client) AvailableCurrencies(ctx context.Context) []string {
	var out struct {
		Currencies []string `json:"currencies"`
	}
	if err := c.get(ctx, "/currencies", &out); err != nil || len(out.Currencies) == 0 {
		return []string{"BTC", "SOL"}
	}
	return out.Currencies
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}
