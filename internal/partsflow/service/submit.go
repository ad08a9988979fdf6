package service

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"fieldparts_backend/internal/events"
	"fieldparts_backend/internal/marketplace"
	"fieldparts_backend/internal/partsflow/domain"
	"fieldparts_backend/internal/partsflow/session"
	"fieldparts_backend/platform/apperr"
)

// SubmitResult reports an accepted submission.
type SubmitResult struct {
	SubmissionID string        `json:"submissionId"`
	BookingID    string        `json:"bookingId"`
	PartCount    int           `json:"partCount"`
	Totals       domain.Totals `json:"totals"`
	Message      string        `json:"message,omitempty"`
}

// Submit finalizes the workflow: validates the brand gate, takes the
// single-flight lock, sends the flattened parts list to the marketplace and,
// on acceptance, publishes the submitted event and destroys the session.
//
// The payload is all-or-nothing. If any selected part is missing a brand
// while the catalog declares brands, nothing is sent and the count of
// offending parts is returned so the client can point at them.
func (s *Service) Submit(ctx context.Context, technicianID uuid.UUID, sessionID string) (*SubmitResult, error) {
	defer s.lockSession(sessionID)()

	sess, err := s.load(ctx, technicianID, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.Ledger.Len() == 0 {
		return nil, apperr.New(apperr.KindValidation, "no parts selected")
	}
	if sess.Catalog.BrandRequired() {
		if missing := sess.Ledger.MissingBrandCount(); missing > 0 {
			gateErr := &domain.BrandMissingError{Count: missing}
			return nil, apperr.New(apperr.KindValidation, gateErr.Error()).
				WithDetails(map[string]int{"missingBrandCount": missing})
		}
	}

	if err := s.sessions.AcquireSubmitLock(ctx, sess.ID); err != nil {
		if errors.Is(err, session.ErrLocked) {
			return nil, apperr.Conflict("submission already in progress")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "acquire submit lock", err)
	}

	payload := buildSubmissionPayload(sess)
	result, err := s.market.SubmitParts(ctx, payload)
	if err != nil {
		// Free the lock so the technician can retry immediately.
		if relErr := s.sessions.ReleaseSubmitLock(ctx, sess.ID); relErr != nil {
			s.log.Error("release submit lock", "error", relErr, "session_id", sess.ID)
		}
		s.bus.Publish(ctx, events.NewPartsSubmissionFailed(uuid.NewString(), technicianID.String(), err.Error(), payload))
		return nil, apperr.Upstream("parts submission rejected upstream", err).WithOp("partsflow.Submit")
	}
	if !result.Success {
		if relErr := s.sessions.ReleaseSubmitLock(ctx, sess.ID); relErr != nil {
			s.log.Error("release submit lock", "error", relErr, "session_id", sess.ID)
		}
		s.bus.Publish(ctx, events.NewPartsSubmissionFailed(uuid.NewString(), technicianID.String(), result.Message, payload))
		return nil, apperr.Upstream("marketplace declined the submission", errors.New(result.Message))
	}

	submissionID := uuid.NewString()
	s.bus.Publish(ctx, events.NewPartsSubmitted(submissionID, technicianID.String(), payload))

	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		s.log.Error("delete workflow session after submit", "error", err, "session_id", sess.ID)
	}
	s.forgetSession(sess.ID)
	s.log.WorkflowEvent("parts_submitted", sess.ID, sess.BookingID)

	return &SubmitResult{
		SubmissionID: submissionID,
		BookingID:    sess.BookingID,
		PartCount:    len(payload.Parts),
		Totals:       sess.Totals(),
		Message:      result.Message,
	}, nil
}

// buildSubmissionPayload flattens the ledger into submission lines, ordered
// by service item then description so the payload is deterministic for a
// given ledger state.
func buildSubmissionPayload(sess *session.Session) marketplace.SubmissionPayload {
	lines := make([]marketplace.SubmissionLine, 0, sess.Ledger.Len())
	for key, part := range sess.Ledger.Parts {
		quantity := sess.Ledger.Quantities[key]
		lines = append(lines, marketplace.SubmissionLine{
			ServiceItemID: part.ServiceItemID,
			RateID:        part.RateID,
			Description:   part.Description,
			UnitPrice:     part.UnitPrice,
			Quantity:      quantity,
			TotalPrice:    domain.LineTotal(part, quantity),
			GroupTitle:    part.GroupTitle,
			BrandID:       part.BrandID,
		})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ServiceItemID != lines[j].ServiceItemID {
			return lines[i].ServiceItemID < lines[j].ServiceItemID
		}
		return lines[i].Description < lines[j].Description
	})

	totals := sess.Totals()
	return marketplace.SubmissionPayload{
		BookingID:             sess.BookingID,
		Parts:                 lines,
		OriginalAmount:        totals.OriginalServiceAmount,
		AdditionalPartsAmount: totals.PartsAmount,
		TotalAmount:           totals.GrandTotal,
	}
}
