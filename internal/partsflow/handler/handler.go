// Package handler exposes the parts workflow over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldparts_backend/internal/partsflow/service"
	"fieldparts_backend/internal/partsflow/transport"
	"fieldparts_backend/platform/httpkit"
	"fieldparts_backend/platform/validator"
)

// Handler handles HTTP requests for the parts workflow.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new parts workflow handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Enter opens a workflow on a booking.
// POST /api/v1/parts-workflows
func (h *Handler) Enter(c *gin.Context) {
	var req transport.EnterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	sess, err := h.svc.Enter(c.Request.Context(), identity.TechnicianID(), req.BookingID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.WorkflowFromSession(sess))
}

// Get returns the current workflow state.
// GET /api/v1/parts-workflows/:id
func (h *Handler) Get(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	sess, err := h.svc.Get(c.Request.Context(), identity.TechnicianID(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.WorkflowFromSession(sess))
}

// RetryCatalog re-attempts the catalog load for a degraded workflow.
// POST /api/v1/parts-workflows/:id/catalog/retry
func (h *Handler) RetryCatalog(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	sess, err := h.svc.RetryCatalog(c.Request.Context(), identity.TechnicianID(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.WorkflowFromSession(sess))
}

// Search sets the catalog filter for a service item.
// PUT /api/v1/parts-workflows/:id/search
func (h *Handler) Search(c *gin.Context) {
	var req transport.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	sess, err := h.svc.Search(c.Request.Context(), identity.TechnicianID(), c.Param("id"), req.ServiceItemID, req.Query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.WorkflowFromSession(sess))
}

// Select attaches a catalog rate to a service item.
// POST /api/v1/parts-workflows/:id/selections
func (h *Handler) Select(c *gin.Context) {
	var req transport.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	outcome, err := h.svc.Select(c.Request.Context(), identity.TechnicianID(), c.Param("id"), req.ServiceItemID, req.RateID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.SelectResponse{
		Status:   outcome.Status,
		Workflow: transport.WorkflowFromSession(outcome.Session),
	})
}

// ConfirmBrand resolves the open brand prompt and lands the gated selection.
// POST /api/v1/parts-workflows/:id/brand-prompt/confirm
func (h *Handler) ConfirmBrand(c *gin.Context) {
	var req transport.ConfirmBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	outcome, err := h.svc.ConfirmBrand(c.Request.Context(), identity.TechnicianID(), c.Param("id"), req.BrandID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.SelectResponse{
		Status:   outcome.Status,
		Workflow: transport.WorkflowFromSession(outcome.Session),
	})
}

// CancelBrandPrompt dismisses the open brand prompt.
// POST /api/v1/parts-workflows/:id/brand-prompt/cancel
func (h *Handler) CancelBrandPrompt(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	sess, err := h.svc.CancelBrandPrompt(c.Request.Context(), identity.TechnicianID(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.WorkflowFromSession(sess))
}

// SetQuantity updates the quantity of a selected part.
// PUT /api/v1/parts-workflows/:id/selections/:key/quantity
func (h *Handler) SetQuantity(c *gin.Context) {
	var req transport.QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	sess, err := h.svc.SetQuantity(c.Request.Context(), identity.TechnicianID(), c.Param("id"), c.Param("key"), req.Quantity, req.ConfirmRemove)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.WorkflowFromSession(sess))
}

// SetBrand changes the brand on a selected part.
// PUT /api/v1/parts-workflows/:id/selections/:key/brand
func (h *Handler) SetBrand(c *gin.Context) {
	var req transport.AssignBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	sess, err := h.svc.SetBrand(c.Request.Context(), identity.TechnicianID(), c.Param("id"), c.Param("key"), req.BrandID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.WorkflowFromSession(sess))
}

// Remove deletes a selected part.
// DELETE /api/v1/parts-workflows/:id/selections/:key
func (h *Handler) Remove(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	sess, err := h.svc.Remove(c.Request.Context(), identity.TechnicianID(), c.Param("id"), c.Param("key"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.WorkflowFromSession(sess))
}

// Submit finalizes the workflow and sends the parts list upstream.
// POST /api/v1/parts-workflows/:id/submit
func (h *Handler) Submit(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), identity.TechnicianID(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Cancel abandons the workflow.
// DELETE /api/v1/parts-workflows/:id
func (h *Handler) Cancel(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.Cancel(c.Request.Context(), identity.TechnicianID(), c.Param("id")); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}
