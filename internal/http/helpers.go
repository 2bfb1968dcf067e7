// README: HTTP error mapping for the engine's error taxonomy.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fixly/internal/modules/booking"
)

func writeEngineError(c *gin.Context, err error) {
	var throttled *booking.ThrottledError
	if errors.As(err, &throttled) {
		c.Header("Retry-After", strconv.Itoa(int(throttled.RetryAfter.Seconds())))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       err.Error(),
			"retry_after": throttled.RetryAfter.Seconds(),
		})
		return
	}

	switch {
	case errors.Is(err, booking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrAlreadyResolved),
		errors.Is(err, booking.ErrLostRace),
		errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, booking.ErrActiveBooking),
		errors.Is(err, booking.ErrCancellationWindow):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrCodeExpired),
		errors.Is(err, booking.ErrCodeMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
