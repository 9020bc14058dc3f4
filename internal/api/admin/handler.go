package admin

import (
	"net/http"
	"time"

	"cryptoscope-api/database"
	"cryptoscope-api/internal/domain/billing"
	"cryptoscope-api/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type AdminUser struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

func ListAllUsers(c *gin.Context) {
	var all []users.User
	if err := database.DB.Order("created_at DESC").Find(&all).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}

	result := make([]AdminUser, 0, len(all))
	for _, u := range all {
		result = append(result, AdminUser{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Role:      u.Role,
			Plan:      u.Plan,
			CreatedAt: u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, result)
}

func ListAllCryptoPayments(c *gin.Context) {
	var payments []billing.CryptoPayment
	if err := database.DB.Order("created_at DESC").Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}
	c.JSON(http.StatusOK, payments)
}

func ListAllSubscriptions(c *gin.Context) {
	var subs []billing.Subscription
	if err := database.DB.Order("current_period_end DESC").Find(&subs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscriptions"})
		return
	}
	c.JSON(http.StatusOK, subs)
}
