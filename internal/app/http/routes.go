package routes

import (
	"cryptoscope-api/config"
	"cryptoscope-api/database"
	adminapi "cryptoscope-api/internal/api/admin"
	authapi "cryptoscope-api/internal/api/auth"
	billingapi "cryptoscope-api/internal/api/billing"
	"cryptoscope-api/internal/api/nowpaymentswebhook"
	"cryptoscope-api/internal/api/stripewebhook"
	usersapi "cryptoscope-api/internal/api/users"
	"cryptoscope-api/internal/app/http/middleware"
	svc "cryptoscope-api/internal/billing"
	"cryptoscope-api/internal/infra/nowpayments"
	"cryptoscope-api/internal/infra/stripepay"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, cfg *config.Config) {
	service := svc.NewServiceFromDB(database.DB)
	stripeAdapter := stripepay.New(cfg)
	cryptoClient := nowpayments.NewClient(cfg)

	authHandler := authapi.NewHandler(cfg)
	billingHandler := billingapi.NewHandler(cfg, service, stripeAdapter, cryptoClient)
	usersHandler := usersapi.NewHandler(service)
	stripeHook := stripewebhook.NewHandler(stripeAdapter, service)
	cryptoHook := nowpaymentswebhook.NewHandler(cryptoClient, service)

	// Webhooks take the raw body; no sanitizing middleware here or the
	// signatures stop verifying.
	r.POST("/webhook/stripe", stripeHook.HandleWebhook)
	r.POST("/webhook/nowpayments", cryptoHook.HandleIPN)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)

	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	auth.GET("/me", usersHandler.GetCurrentUser)
	auth.GET("/billing/subscription", billingHandler.GetSubscription)
	auth.GET("/billing/payments", billingHandler.GetPaymentHistory)
	auth.GET("/billing/pricing", billingHandler.GetPricing)
	auth.GET("/billing/crypto/:invoiceID", billingHandler.GetCryptoPaymentStatus)
	auth.POST("/billing/checkout", billingHandler.CreateCheckoutSession)
	auth.POST("/billing/crypto", billingHandler.CreateCryptoInvoice)
	auth.POST("/billing/portal", billingHandler.CreateBillingPortal)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWTSecret), middleware.RequireRole("admin"))
	admin.GET("/users", adminapi.ListAllUsers)
	admin.GET("/payments", adminapi.ListAllCryptoPayments)
	admin.GET("/subscriptions", adminapi.ListAllSubscriptions)
}
