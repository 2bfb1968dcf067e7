// README: API surface; registers routes and delegates to the engine services.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"fixly/internal/http/middleware"
	"fixly/internal/modules/availability"
	"fixly/internal/modules/booking"
)

type ServerDeps struct {
	Bookings     *booking.Service
	Arbiter      *booking.Arbiter
	Lifecycle    *booking.Lifecycle
	Gate         *booking.Gate
	Availability *availability.Service
	Logger       *slog.Logger
	JWTSecret    string
}

type Server struct {
	bookings     *booking.Service
	arbiter      *booking.Arbiter
	lifecycle    *booking.Lifecycle
	gate         *booking.Gate
	availability *availability.Service
	logger       *slog.Logger
	jwtSecret    string
}

func NewServer(deps ServerDeps) *Server {
	return &Server{
		bookings:     deps.Bookings,
		arbiter:      deps.Arbiter,
		lifecycle:    deps.Lifecycle,
		gate:         deps.Gate,
		availability: deps.Availability,
		logger:       deps.Logger,
		jwtSecret:    deps.JWTSecret,
	}
}

func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Logging(s.logger))
	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth(s.jwtSecret))

	api.POST("/bookings", s.handleCreateBooking)
	api.GET("/bookings/:id", s.handleGetBooking)
	api.POST("/bookings/:id/offers", s.handleOpenOffers)
	api.POST("/bookings/:id/status", s.handleSetStatus)
	api.POST("/bookings/:id/cancel", s.handleCancel)
	api.POST("/bookings/:id/verification/issue", s.handleIssueCode)
	api.POST("/bookings/:id/verification/verify", s.handleVerifyCode)
	api.POST("/bookings/:id/paid", s.handleMarkPaid)

	api.POST("/offers/:id/accept", s.handleAcceptOffer)
	api.POST("/offers/:id/reject", s.handleRejectOffer)
	api.POST("/offers/:id/withdraw", s.handleWithdrawOffer)

	api.GET("/providers/offers", s.handleListProviderOffers)
	api.PUT("/providers/availability", s.handleSetAvailability)

	return r
}
