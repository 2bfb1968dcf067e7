// README: Request handlers; thin glue between HTTP and engine operations.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fixly/internal/http/middleware"
	"fixly/internal/modules/booking"
	"fixly/internal/types"
)

func actingID(c *gin.Context) types.ID {
	return types.ID(c.GetString(middleware.ContextUserID))
}

type createBookingRequest struct {
	BookingType   string    `json:"booking_type" binding:"required"`
	ScheduledTime time.Time `json:"scheduled_time" binding:"required"`
	Lat           *float64  `json:"lat"`
	Lng           *float64  `json:"lng"`
}

func (s *Server) handleCreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var loc *types.Point
	if req.Lat != nil && req.Lng != nil {
		loc = &types.Point{Lat: *req.Lat, Lng: *req.Lng}
	}
	b, err := s.bookings.Create(c.Request.Context(), booking.CreateCommand{
		CustomerID:    actingID(c),
		BookingType:   booking.BookingType(req.BookingType),
		ScheduledTime: req.ScheduledTime,
		Location:      loc,
	})
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewBooking(b))
}

func (s *Server) handleGetBooking(c *gin.Context) {
	b, err := s.bookings.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewBooking(b))
}

func (s *Server) handleOpenOffers(c *gin.Context) {
	offers, err := s.bookings.OpenOffers(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": viewOffers(offers)})
}

func (s *Server) handleAcceptOffer(c *gin.Context) {
	b, o, err := s.arbiter.AcceptOffer(c.Request.Context(), types.ID(c.Param("id")), actingID(c))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": viewBooking(b), "offer": viewOffer(o)})
}

func (s *Server) handleRejectOffer(c *gin.Context) {
	o, err := s.arbiter.RejectOffer(c.Request.Context(), types.ID(c.Param("id")), actingID(c))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offer": viewOffer(o)})
}

func (s *Server) handleWithdrawOffer(c *gin.Context) {
	b, o, err := s.arbiter.WithdrawAcceptedOffer(c.Request.Context(), types.ID(c.Param("id")), actingID(c))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": viewBooking(b), "offer": viewOffer(o)})
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) handleSetStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := s.lifecycle.SetStatus(c.Request.Context(),
		types.ID(c.Param("id")), actingID(c), booking.ServiceStatus(req.Status))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewBooking(b))
}

func (s *Server) handleCancel(c *gin.Context) {
	role := c.GetString(middleware.ContextRole)
	b, err := s.lifecycle.Cancel(c.Request.Context(), types.ID(c.Param("id")), actingID(c), role)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewBooking(b))
}

func (s *Server) handleIssueCode(c *gin.Context) {
	_, expiresAt, err := s.gate.IssueCode(c.Request.Context(), types.ID(c.Param("id")), actingID(c))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	// The code itself only travels out-of-band to the customer.
	c.JSON(http.StatusOK, gin.H{"expires_at": expiresAt})
}

type verifyCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

func (s *Server) handleVerifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := s.gate.VerifyCode(c.Request.Context(), types.ID(c.Param("id")), actingID(c), req.Code)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewBooking(b))
}

func (s *Server) handleMarkPaid(c *gin.Context) {
	if c.GetString(middleware.ContextRole) != booking.RoleGateway {
		c.JSON(http.StatusForbidden, gin.H{"error": "payment settlement is gateway-only"})
		return
	}
	b, err := s.bookings.MarkPaid(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewBooking(b))
}

func (s *Server) handleListProviderOffers(c *gin.Context) {
	offers, err := s.bookings.ListProviderOffers(c.Request.Context(), actingID(c))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": viewOffers(offers)})
}

type availabilityRequest struct {
	Available bool    `json:"available"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

func (s *Server) handleSetAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	var err error
	if req.Available {
		err = s.availability.SetAvailable(ctx, actingID(c), types.Point{Lat: req.Lat, Lng: req.Lng})
	} else {
		err = s.availability.SetUnavailable(ctx, actingID(c))
	}
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
