package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kabeba2027/donations-backend/internal/config"
	"github.com/kabeba2027/donations-backend/internal/handlers"
	"github.com/kabeba2027/donations-backend/internal/middleware"
)

// HandlerDependencies bundles the handlers the router wires up
type HandlerDependencies struct {
	PaymentHandler *handlers.PaymentHandler
	AuthHandler    *handlers.AuthHandler
	AdminHandler   *handlers.AdminHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", deps.PaymentHandler.HealthCheck)

		// The callback path is a wire contract with the provider and
		// must stay stable across releases.
		mpesa := api.Group("/mpesa")
		{
			mpesa.POST("/stkpush", deps.PaymentHandler.InitiateSTKPush)
			mpesa.POST("/callback", deps.PaymentHandler.Callback)
			mpesa.GET("/status/:checkoutRequestId", deps.PaymentHandler.GetStatus)
			mpesa.POST("/query", deps.PaymentHandler.Query)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login", deps.AuthHandler.Login)

			protected := admin.Group("")
			protected.Use(middleware.JWTAuthMiddleware(cfg))
			{
				protected.GET("/donations", deps.AdminHandler.ListDonations)
			}
		}
	}

	return router
}
