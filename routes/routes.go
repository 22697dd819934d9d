package routes

import (
	"time"

	"merritt/handlers"
	"merritt/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers the meeting room endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.GET("/availability", hb.GetAvailability)
		api.POST("/bookings", hb.CreateBooking)
		api.GET("/bookings", hb.ListBookings)
		api.POST("/create-meeting-checkout", hb.CreateMeetingCheckout)

		// Manual confirmation and cancellation are staff operations.
		staff := api.Group("/bookings/:id")
		staff.Use(middleware.JWTAuthAdminMiddleware())
		staff.POST("/confirm", hb.ConfirmBooking)
		staff.DELETE("/confirm", hb.CancelBooking)
	}
}

// RegisterPaymentRoutes registers the webhook receivers and the success page.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.POST("/webhooks", hb.HandleWebhook)
		api.POST("/webhooks/meeting-rooms", hb.HandleWebhook)
		api.GET("/payment-success", hb.PaymentSuccess)
	}
}

// RegisterSnackshopRoutes registers the snackshop endpoints.
func RegisterSnackshopRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/snackshop")
	{
		api.GET("", hb.ListProducts)
		api.POST("", hb.PlaceOrder)
		api.GET("/orders/:id", hb.GetOrder)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.POST("/login", hb.AdminLogin)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterBookingRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterSnackshopRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
