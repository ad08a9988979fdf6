// Package notification bridges domain events to deferred customer
// notifications: accepted submissions are handed to the scheduler, which
// delivers them through the marketplace from the worker process.
package notification

import (
	"context"

	"fieldparts_backend/internal/events"
	"fieldparts_backend/internal/scheduler"
	"fieldparts_backend/platform/logger"
)

// Subscriber enqueues notification tasks for submission events.
type Subscriber struct {
	sched scheduler.NotifyScheduler
	log   *logger.Logger
}

// NewSubscriber creates the notification subscriber.
func NewSubscriber(sched scheduler.NotifyScheduler, log *logger.Logger) *Subscriber {
	return &Subscriber{sched: sched, log: log}
}

// RegisterHandlers subscribes to the events this module reacts to.
func (s *Subscriber) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.PartsSubmitted{}.EventName(), s)
}

// Handle routes events to the appropriate handler method.
func (s *Subscriber) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.PartsSubmitted:
		return s.handlePartsSubmitted(ctx, e)
	default:
		return nil
	}
}

func (s *Subscriber) handlePartsSubmitted(ctx context.Context, event events.PartsSubmitted) error {
	payload := scheduler.PartsSubmittedNotifyPayload{
		SubmissionID: event.SubmissionID,
		BookingID:    event.BookingID,
		TechnicianID: event.TechnicianID,
		PartCount:    event.PartCount(),
		TotalAmount:  event.TotalAmount,
	}
	if err := s.sched.SchedulePartsSubmittedNotify(ctx, payload); err != nil {
		s.log.Error("enqueue parts submitted notify", "error", err, "booking_id", event.BookingID)
		return err
	}
	return nil
}
