package users

import (
	"net/http"
	"time"

	"cryptoscope-api/database"
	svc "cryptoscope-api/internal/billing"
	"cryptoscope-api/internal/domain/plans"
	"cryptoscope-api/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *svc.Service
}

func NewHandler(service *svc.Service) *Handler {
	return &Handler{svc: service}
}

// GetCurrentUser returns the caller's profile plus the effective
// entitlement. The stored User.plan is a cache written by the
// reconciler; the entitled flag additionally applies the read-time
// expiry rule, since a crypto subscription expires without any webhook
// or status transition.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user users.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	sub, err := h.svc.GetSubscription(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
		return
	}

	now := time.Now()
	entitled := sub != nil && sub.Entitles(now)

	plan := user.EffectivePlan()
	if !entitled {
		plan = plans.TierFree
	}

	resp := gin.H{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
			"plan":  user.Plan,
		},
		"entitlement": gin.H{
			"plan":     plan,
			"entitled": entitled,
			"limits":   plans.LimitsFor(plan),
		},
	}
	if sub != nil {
		resp["subscription"] = sub
	}

	c.JSON(http.StatusOK, resp)
}
