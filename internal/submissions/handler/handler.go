// Package handler exposes the parts submission history over HTTP.
package handler

import (
	"github.com/gin-gonic/gin"

	"fieldparts_backend/internal/submissions/service"
	"fieldparts_backend/platform/httpkit"
)

// Handler handles HTTP requests for submission history.
type Handler struct {
	svc *service.Service
}

// New creates a new submissions handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// ListByBooking returns the caller's submission history for a booking.
// GET /api/v1/bookings/:bookingId/parts-submissions
func (h *Handler) ListByBooking(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	submissions, err := h.svc.ListByBooking(c.Request.Context(), identity.TechnicianID(), c.Param("bookingId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"submissions": submissions})
}
