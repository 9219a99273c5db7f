package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/staybook/internal/container"
	"github.com/joshua-takyi/staybook/internal/handlers"
	"github.com/joshua-takyi/staybook/internal/helpers"
	"github.com/joshua-takyi/staybook/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	cfg := container.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"service": "staybook-api",
		})
	})

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.Tokens, container.Profiles, cfg.IsProduction(), container.Logger))
	protected.Use(middleware.RateLimit(cfg.RateLimit, container.Redis, container.Logger))

	protected.GET("/profile", func(c *gin.Context) {
		user, _ := c.Get("user")
		claims, ok := user.(*helpers.EnhancedClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("unauthorized"))
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{
			"user_id":  claims.UserID,
			"email":    claims.Email,
			"username": claims.Username,
			"role":     claims.GetSafeRole(),
			"is_admin": claims.IsAdmin(),
		}, ""))
	})

	roomRoutes := protected.Group("/rooms")
	{
		roomRoutes.POST("", handlers.CreateRoomType(container.RoomService))
		roomRoutes.GET("/:id", handlers.GetRoomType(container.RoomService))
		roomRoutes.PATCH("/:id", handlers.UpdateRoomType(container.RoomService))
		roomRoutes.DELETE("/:id", handlers.DeleteRoomType(container.RoomService))
		roomRoutes.PUT("/availability/:roomNumberId", handlers.SetRoomAvailability(container.RoomService))
		roomRoutes.GET("/availability/:roomNumberId", handlers.GetRoomCalendar(container.RoomService))
	}

	hotelRoutes := protected.Group("/hotels")
	{
		hotelRoutes.GET("/:hotelId/rooms", handlers.ListHotelRooms(container.RoomService))
		hotelRoutes.GET("/:hotelId/bookable", handlers.HotelBookable(container.RoomService))
	}

	reservationRoutes := protected.Group("/reservations")
	{
		reservationRoutes.POST("", handlers.CreateReservation(container.ReservationService))
		reservationRoutes.GET("/admin/all", handlers.ListAllReservations(container.ReservationService))
		reservationRoutes.GET("/user/:userId", handlers.ListUserReservations(container.ReservationService))
		reservationRoutes.GET("/:id", handlers.GetReservation(container.ReservationService))
		reservationRoutes.DELETE("/:id", handlers.CancelReservation(container.ReservationService))
		reservationRoutes.PUT("/:id/pay", handlers.PayReservation(container.ReservationService))
		reservationRoutes.PUT("/:id/status", handlers.UpdateReservationStatus(container.ReservationService))
		reservationRoutes.POST("/:id/payment-intent", handlers.CreateReservationIntent(container.PaymentService))
	}

	shareRoutes := protected.Group("/shared-reservations")
	{
		shareRoutes.POST("/share", handlers.ShareReservation(container.SharedReservationService))
		shareRoutes.GET("", handlers.ListSharedReservations(container.SharedReservationService))
		shareRoutes.GET("/unpaid", handlers.ListUnpaidShares(container.SharedReservationService))
		shareRoutes.GET("/:id", handlers.GetSharedReservation(container.SharedReservationService))
		shareRoutes.PUT("/payment/:sharedReservationId", handlers.RecordSharePayment(container.SharedReservationService))
	}

	connectionRoutes := protected.Group("/connections")
	{
		connectionRoutes.POST("/request", handlers.RequestConnection(container.ConnectionService))
		connectionRoutes.PUT("/:id/respond", handlers.RespondConnection(container.ConnectionService))
		connectionRoutes.GET("", handlers.ListConnections(container.ConnectionService))
		connectionRoutes.DELETE("/:id", handlers.RemoveConnection(container.ConnectionService))
	}

	protected.POST("/payments/intent", handlers.CreatePaymentIntent(container.PaymentService))

	return r
}
