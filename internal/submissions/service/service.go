// Package service implements the parts submission audit trail: every
// submission attempt, accepted or failed, is recorded and can be listed per
// booking.
package service

import (
	"context"

	"github.com/google/uuid"

	"fieldparts_backend/internal/events"
	"fieldparts_backend/internal/submissions/repository"
	"fieldparts_backend/platform/apperr"
	"fieldparts_backend/platform/logger"
)

// Service records and lists parts submissions.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates the submissions service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// RecordSubmitted persists the audit row for a PartsSubmitted event.
func (s *Service) RecordSubmitted(ctx context.Context, event events.PartsSubmitted) error {
	submissionID, err := uuid.Parse(event.SubmissionID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "invalid submission id", err)
	}
	technicianID, err := uuid.Parse(event.TechnicianID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "invalid technician id", err)
	}

	params := repository.CreateParams{
		ID:             submissionID,
		BookingID:      event.BookingID,
		TechnicianID:   technicianID,
		Status:         repository.StatusAccepted,
		OriginalAmount: event.OriginalAmount,
		PartsAmount:    event.PartsAmount,
		TotalAmount:    event.TotalAmount,
		Lines:          event.Lines,
		SubmittedAt:    event.OccurredAt(),
	}
	if err := s.repo.Create(ctx, params); err != nil {
		s.log.DatabaseError("record submission", err)
		return err
	}
	return nil
}

// RecordFailed persists the audit row for a rejected submission attempt.
func (s *Service) RecordFailed(ctx context.Context, event events.PartsSubmissionFailed) error {
	attemptID, err := uuid.Parse(event.AttemptID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "invalid attempt id", err)
	}
	technicianID, err := uuid.Parse(event.TechnicianID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "invalid technician id", err)
	}

	params := repository.CreateParams{
		ID:             attemptID,
		BookingID:      event.BookingID,
		TechnicianID:   technicianID,
		Status:         repository.StatusFailed,
		FailureReason:  event.Reason,
		OriginalAmount: event.OriginalAmount,
		PartsAmount:    event.PartsAmount,
		TotalAmount:    event.TotalAmount,
		Lines:          event.Lines,
		SubmittedAt:    event.OccurredAt(),
	}
	if err := s.repo.Create(ctx, params); err != nil {
		s.log.DatabaseError("record failed submission", err)
		return err
	}
	return nil
}

// ListByBooking returns the technician's submission history for a booking.
func (s *Service) ListByBooking(ctx context.Context, technicianID uuid.UUID, bookingID string) ([]repository.Submission, error) {
	if bookingID == "" {
		return nil, apperr.BadRequest("booking id required")
	}
	submissions, err := s.repo.ListByBooking(ctx, bookingID, technicianID)
	if err != nil {
		s.log.DatabaseError("list submissions", err)
		return nil, apperr.Wrap(apperr.KindInternal, "list submissions", err)
	}
	return submissions, nil
}
