package middleware

import (
	"net/http"
	"time"

	svc "cryptoscope-api/internal/billing"

	"github.com/gin-gonic/gin"
)

// RequireActiveSubscription gates paid features. Entitlement expiry is
// enforced here at read time: there is no background sweep flipping
// crypto subscriptions to expired, so the period end must be compared
// against now on every check.
func RequireActiveSubscription(service *svc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
			return
		}

		sub, err := service.GetSubscription(c.Request.Context(), userID)
		if err != nil || sub == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Subscription not found"})
			return
		}
		if !sub.Entitles(time.Now()) {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{"error": "Your subscription has expired"})
			return
		}

		c.Next()
	}
}
