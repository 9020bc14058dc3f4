package stripewebhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cryptoscope-api/config"
	svc "cryptoscope-api/internal/billing"
	domain "cryptoscope-api/internal/domain/billing"
	"cryptoscope-api/internal/domain/plans"
	"cryptoscope-api/internal/domain/users"
	"cryptoscope-api/internal/infra/stripepay"
)

const testWebhookSecret = "whsec_test"

func newRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&users.User{}, &domain.Subscription{}, &domain.CryptoPayment{}))

	cfg := &config.Config{
		StripeWebhookSecret: testWebhookSecret,
		StripePrices: config.StripePriceIDs{
			ProMonthly:    "price_pro_m",
			ProAnnual:     "price_pro_a",
			AgencyMonthly: "price_agency_m",
			AgencyAnnual:  "price_agency_a",
		},
	}

	r := gin.New()
	r.POST("/webhook/stripe", NewHandler(stripepay.New(cfg), svc.NewServiceFromDB(db)).HandleWebhook)
	return r, db
}

func sign(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func post(r *gin.Engine, payload []byte, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", sig)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func subscriptionEvent(eventType string, userID uint, periodEnd int64) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"api_version": "2023-10-16",
		"type": %q,
		"data": {
			"object": {
				"id": "sub_1",
				"object": "subscription",
				"status": "active",
				"metadata": {"user_id": "%d"},
				"current_period_start": %d,
				"current_period_end": %d,
				"items": {"data": [{"price": {"id": "price_pro_m"}}]}
			}
		}
	}`, eventType, userID, periodEnd-2592000, periodEnd))
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	r, db := newRouter(t)

	payload := subscriptionEvent("customer.subscription.updated", 1, time.Now().AddDate(0, 1, 0).Unix())
	w := post(r, payload, "t=0,v1=deadbeef")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var count int64
	require.NoError(t, db.Model(&domain.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestHandleWebhookUpserts(t *testing.T) {
	r, db := newRouter(t)

	u := &users.User{Email: "card@example.com", Role: "user", Plan: plans.TierFree}
	require.NoError(t, db.Create(u).Error)

	payload := subscriptionEvent("customer.subscription.updated", u.ID, time.Now().AddDate(0, 1, 0).Unix())
	w := post(r, payload, sign(payload))
	assert.Equal(t, http.StatusOK, w.Code)

	var sub domain.Subscription
	require.NoError(t, db.First(&sub, "id = ?", "sub_1").Error)
	assert.Equal(t, u.ID, sub.UserID)
	assert.Equal(t, domain.StatusActive, sub.Status)
	assert.Equal(t, plans.TierPro, sub.Plan)

	var user users.User
	require.NoError(t, db.First(&user, u.ID).Error)
	assert.Equal(t, plans.TierPro, user.Plan)
}

func TestHandleWebhookIgnoresUnhandledKinds(t *testing.T) {
	r, _ := newRouter(t)

	payload := []byte(`{"id":"evt_1","object":"event","api_version":"2023-10-16","type":"invoice.paid","data":{"object":{}}}`)
	w := post(r, payload, sign(payload))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")
}
