package events

import (
	"fieldparts_backend/internal/marketplace"
	platformevents "fieldparts_backend/platform/events"
)

// PartsSubmitted is published after a parts list has been accepted by the
// core marketplace for a booking. Subscribers record the audit trail and
// schedule the customer notification.
type PartsSubmitted struct {
	platformevents.BaseEvent
	SubmissionID   string                       `json:"submissionId"`
	BookingID      string                       `json:"bookingId"`
	TechnicianID   string                       `json:"technicianId"`
	OriginalAmount float64                      `json:"originalAmount"`
	PartsAmount    float64                      `json:"partsAmount"`
	TotalAmount    float64                      `json:"totalAmount"`
	Lines          []marketplace.SubmissionLine `json:"lines"`
}

// EventName returns the unique identifier for this event type.
func (e PartsSubmitted) EventName() string {
	return "partsflow.parts_submitted"
}

// PartCount returns the number of distinct part lines submitted.
func (e PartsSubmitted) PartCount() int {
	return len(e.Lines)
}

// NewPartsSubmitted creates a PartsSubmitted event with the current timestamp.
func NewPartsSubmitted(submissionID, technicianID string, payload marketplace.SubmissionPayload) PartsSubmitted {
	return PartsSubmitted{
		BaseEvent:      platformevents.NewBaseEvent(),
		SubmissionID:   submissionID,
		BookingID:      payload.BookingID,
		TechnicianID:   technicianID,
		OriginalAmount: payload.OriginalAmount,
		PartsAmount:    payload.AdditionalPartsAmount,
		TotalAmount:    payload.TotalAmount,
		Lines:          payload.Parts,
	}
}

// PartsSubmissionFailed is published when the marketplace rejects a parts
// submission. Recorded in the audit trail; the workflow session stays alive
// so the technician can retry.
type PartsSubmissionFailed struct {
	platformevents.BaseEvent
	AttemptID      string                       `json:"attemptId"`
	BookingID      string                       `json:"bookingId"`
	TechnicianID   string                       `json:"technicianId"`
	Reason         string                       `json:"reason"`
	OriginalAmount float64                      `json:"originalAmount"`
	PartsAmount    float64                      `json:"partsAmount"`
	TotalAmount    float64                      `json:"totalAmount"`
	Lines          []marketplace.SubmissionLine `json:"lines"`
}

// EventName returns the unique identifier for this event type.
func (e PartsSubmissionFailed) EventName() string {
	return "partsflow.parts_submission_failed"
}

// NewPartsSubmissionFailed creates a PartsSubmissionFailed event with the
// current timestamp.
func NewPartsSubmissionFailed(attemptID, technicianID, reason string, payload marketplace.SubmissionPayload) PartsSubmissionFailed {
	return PartsSubmissionFailed{
		BaseEvent:      platformevents.NewBaseEvent(),
		AttemptID:      attemptID,
		BookingID:      payload.BookingID,
		TechnicianID:   technicianID,
		Reason:         reason,
		OriginalAmount: payload.OriginalAmount,
		PartsAmount:    payload.AdditionalPartsAmount,
		TotalAmount:    payload.TotalAmount,
		Lines:          payload.Parts,
	}
}
