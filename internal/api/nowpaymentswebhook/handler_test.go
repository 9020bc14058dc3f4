package nowpaymentswebhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	svc "cryptoscope-api/internal/billing"
	domain "cryptoscope-api/internal/domain/billing"
	"cryptoscope-api/internal/domain/plans"
	"cryptoscope-api/internal/domain/users"
	"cryptoscope-api/internal/infra/nowpayments"
)

const testIPNSecret = "test-ipn-secret"

type fixture struct {
	db      *gorm.DB
	service *svc.Service
	router  *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&users.User{}, &domain.Subscription{}, &domain.CryptoPayment{}))

	service := svc.NewServiceFromDB(db)
	crypto := &nowpayments.Client{IPNSecret: testIPNSecret}

	r := gin.New()
	r.POST("/webhook/nowpayments", NewHandler(crypto, service).HandleIPN)

	return &fixture{db: db, service: service, router: r}
}

// signBody signs the way the provider does: HMAC-SHA512 over the JSON
// with keys sorted.
func signBody(t *testing.T, body map[string]interface{}) ([]byte, string) {
	t.Helper()

	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var canonical bytes.Buffer
	canonical.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			canonical.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(body[k])
		canonical.Write(kb)
		canonical.WriteByte(':')
		canonical.Write(vb)
	}
	canonical.WriteByte('}')

	mac := hmac.New(sha512.New, []byte(testIPNSecret))
	mac.Write(canonical.Bytes())

	return canonical.Bytes(), hex.EncodeToString(mac.Sum(nil))
}

func (f *fixture) post(body []byte, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/nowpayments", bytes.NewReader(body))
	if sig != "" {
		req.Header.Set("x-nowpayments-sig", sig)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) seedPending(t *testing.T, invoiceID string) *users.User {
	t.Helper()
	u := &users.User{Email: "ipn@example.com", Role: "user", Plan: plans.TierFree}
	require.NoError(t, f.db.Create(u).Error)
	require.NoError(t, f.db.Create(&domain.CryptoPayment{
		ID:            "cp_" + invoiceID,
		UserID:        u.ID,
		InvoiceID:     invoiceID,
		Plan:          plans.TierPro,
		BillingPeriod: plans.PeriodMonthly,
		Currency:      "BTC",
		PriceUSD:      2900,
		Status:        domain.CryptoStatusPending,
	}).Error)
	return u
}

func TestHandleIPNMissingSignature(t *testing.T) {
	f := newFixture(t)

	w := f.post([]byte(`{"payment_status":"confirmed"}`), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleIPNInvalidSignature(t *testing.T) {
	f := newFixture(t)
	f.seedPending(t, "4444")

	body, _ := signBody(t, map[string]interface{}{
		"payment_id":     5555,
		"invoice_id":     4444,
		"payment_status": "confirmed",
	})

	w := f.post(body, strings.Repeat("ab", 64))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Nothing was reconciled.
	var count int64
	require.NoError(t, f.db.Model(&domain.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestHandleIPNConfirmedActivates(t *testing.T) {
	f := newFixture(t)
	u := f.seedPending(t, "4444")

	body, sig := signBody(t, map[string]interface{}{
		"payment_id":     5555,
		"invoice_id":     4444,
		"order_id":       "1_pro_monthly_1700000000",
		"payment_status": "confirmed",
		"pay_currency":   "btc",
		"actually_paid":  0.0021,
	})

	w := f.post(body, sig)
	assert.Equal(t, http.StatusOK, w.Code)

	var sub domain.Subscription
	require.NoError(t, f.db.First(&sub, "id = ?", "crypto_5555").Error)
	assert.Equal(t, u.ID, sub.UserID)
	assert.Equal(t, domain.StatusActive, sub.Status)

	var user users.User
	require.NoError(t, f.db.First(&user, u.ID).Error)
	assert.Equal(t, plans.TierPro, user.Plan)
}

func TestHandleIPNUnknownInvoiceIsAcked(t *testing.T) {
	f := newFixture(t)

	body, sig := signBody(t, map[string]interface{}{
		"payment_id":     5555,
		"invoice_id":     9999,
		"payment_status": "confirmed",
	})

	// 200 so the provider stops retrying a mismatch no retry can fix.
	w := f.post(body, sig)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, f.db.Model(&domain.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestHandleIPNIntermediateStatus(t *testing.T) {
	f := newFixture(t)
	f.seedPending(t, "4444")

	body, sig := signBody(t, map[string]interface{}{
		"payment_id":     5555,
		"invoice_id":     4444,
		"payment_status": "sending",
	})

	w := f.post(body, sig)
	assert.Equal(t, http.StatusOK, w.Code)

	var p domain.CryptoPayment
	require.NoError(t, f.db.First(&p, "invoice_id = ?", "4444").Error)
	assert.Equal(t, domain.CryptoStatusConfirming, p.Status)

	var count int64
	require.NoError(t, f.db.Model(&domain.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestHandleIPNMalformedPayload(t *testing.T) {
	f := newFixture(t)

	raw := []byte(`["not","an","object"]`)
	mac := hmac.New(sha512.New, []byte(testIPNSecret))
	mac.Write(raw)

	w := f.post(raw, hex.EncodeToString(mac.Sum(nil)))
	// Non-object payloads already fail signature canonicalization.
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
