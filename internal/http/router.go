// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tripchat/internal/http/handlers"
	"tripchat/internal/http/middleware"
)

func registerRoutes(r *gin.Engine, s *Server) {
	r.Use(middleware.Recovery(s.log), middleware.Logging(s.log), middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	admin := middleware.AdminToken(s.adminToken)

	dialogHandler := handlers.NewDialogHandler(s.dialog, s.log)
	api.POST("/dialog/message", dialogHandler.Message)

	sessionHandler := handlers.NewSessionHandler(s.dialog, s.log)
	sessions := api.Group("/sessions", admin)
	sessions.POST("", sessionHandler.Create)
	sessions.GET("/:id", sessionHandler.Get)
	sessions.PUT("/:id", sessionHandler.Update)
	sessions.POST("/:id/deactivate", sessionHandler.Deactivate)

	bookingHandler := handlers.NewBookingHandler(s.bookings, s.log)
	bookings := api.Group("/bookings", admin)
	bookings.POST("", bookingHandler.Create)
	bookings.GET("", bookingHandler.List)
	bookings.GET("/:id", bookingHandler.Get)

	tripHandler := handlers.NewTripHandler(s.trips, s.log)
	api.GET("/trips", tripHandler.List)
	api.GET("/trips/:id", tripHandler.Get)
	api.POST("/trips", admin, tripHandler.Create)
}
