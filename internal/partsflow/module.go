// Package partsflow provides the parts workflow bounded context module.
package partsflow

import (
	"fieldparts_backend/internal/events"
	apphttp "fieldparts_backend/internal/http"
	"fieldparts_backend/internal/marketplace"
	"fieldparts_backend/internal/partsflow/handler"
	"fieldparts_backend/internal/partsflow/service"
	"fieldparts_backend/internal/partsflow/session"
	"fieldparts_backend/platform/logger"
	"fieldparts_backend/platform/validator"
)

// Module is the parts workflow bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the parts workflow module.
func NewModule(sessions *session.Store, market marketplace.API, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(sessions, market, bus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "partsflow"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts parts workflow routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	flows := ctx.Protected.Group("/parts-workflows")
	flows.POST("", m.handler.Enter)
	flows.GET("/:id", m.handler.Get)
	flows.DELETE("/:id", m.handler.Cancel)
	flows.POST("/:id/catalog/retry", m.handler.RetryCatalog)
	flows.PUT("/:id/search", m.handler.Search)
	flows.POST("/:id/selections", m.handler.Select)
	flows.PUT("/:id/selections/:key/quantity", m.handler.SetQuantity)
	flows.PUT("/:id/selections/:key/brand", m.handler.SetBrand)
	flows.DELETE("/:id/selections/:key", m.handler.Remove)
	flows.POST("/:id/brand-prompt/confirm", m.handler.ConfirmBrand)
	flows.POST("/:id/brand-prompt/cancel", m.handler.CancelBrandPrompt)
	flows.POST("/:id/submit", m.handler.Submit)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
