// Package submissions provides the submission audit trail bounded context.
package submissions

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"fieldparts_backend/internal/events"
	apphttp "fieldparts_backend/internal/http"
	"fieldparts_backend/internal/submissions/handler"
	"fieldparts_backend/internal/submissions/repository"
	"fieldparts_backend/internal/submissions/service"
	"fieldparts_backend/platform/logger"
)

// Module is the submissions bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the submissions module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), log)
	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "submissions"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts submission history routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/bookings/:bookingId/parts-submissions", m.handler.ListByBooking)
}

// RegisterHandlers subscribes to domain events for audit recording.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.PartsSubmitted{}.EventName(), m)
	bus.Subscribe(events.PartsSubmissionFailed{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.PartsSubmitted:
		return m.service.RecordSubmitted(ctx, e)
	case events.PartsSubmissionFailed:
		return m.service.RecordFailed(ctx, e)
	default:
		return nil
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
