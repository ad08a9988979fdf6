// Package repository persists the parts submission audit trail.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldparts_backend/internal/marketplace"
)

// Submission statuses.
const (
	StatusAccepted = "accepted"
	StatusFailed   = "failed"
)

// Submission is one recorded parts submission attempt.
type Submission struct {
	ID             uuid.UUID                    `json:"id"`
	BookingID      string                       `json:"bookingId"`
	TechnicianID   uuid.UUID                    `json:"technicianId"`
	Status         string                       `json:"status"`
	FailureReason  string                       `json:"failureReason,omitempty"`
	PartCount      int                          `json:"partCount"`
	OriginalAmount float64                      `json:"originalAmount"`
	PartsAmount    float64                      `json:"partsAmount"`
	TotalAmount    float64                      `json:"totalAmount"`
	Lines          []marketplace.SubmissionLine `json:"lines"`
	SubmittedAt    string                       `json:"submittedAt"`
}

// CreateParams carries everything needed to record a submission.
type CreateParams struct {
	ID             uuid.UUID
	BookingID      string
	TechnicianID   uuid.UUID
	Status         string
	FailureReason  string
	OriginalAmount float64
	PartsAmount    float64
	TotalAmount    float64
	Lines          []marketplace.SubmissionLine
	SubmittedAt    time.Time
}

// Repository is the submissions persistence interface.
type Repository interface {
	Create(ctx context.Context, params CreateParams) error
	ListByBooking(ctx context.Context, bookingID string, technicianID uuid.UUID) ([]Submission, error)
}

// Repo implements Repository on Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new submissions repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create records a submission attempt. Lines are stored as JSONB; they are
// read back verbatim and never queried field-by-field.
func (r *Repo) Create(ctx context.Context, params CreateParams) error {
	lines, err := json.Marshal(params.Lines)
	if err != nil {
		return fmt.Errorf("marshal submission lines: %w", err)
	}

	query := `
		INSERT INTO parts_submissions
			(id, booking_id, technician_id, status, failure_reason, part_count, original_amount, parts_amount, total_amount, lines, submitted_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11)`

	if _, err := r.pool.Exec(ctx, query,
		params.ID, params.BookingID, params.TechnicianID, params.Status, params.FailureReason,
		len(params.Lines), params.OriginalAmount, params.PartsAmount, params.TotalAmount, lines, params.SubmittedAt,
	); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// ListByBooking returns a technician's submissions for a booking, newest
// first.
func (r *Repo) ListByBooking(ctx context.Context, bookingID string, technicianID uuid.UUID) ([]Submission, error) {
	query := `
		SELECT id, booking_id, technician_id, status, COALESCE(failure_reason, ''), part_count, original_amount, parts_amount, total_amount, lines, submitted_at
		FROM parts_submissions
		WHERE booking_id = $1 AND technician_id = $2
		ORDER BY submitted_at DESC`

	rows, err := r.pool.Query(ctx, query, bookingID, technicianID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	submissions := make([]Submission, 0)
	for rows.Next() {
		var sub Submission
		var lines []byte
		var submittedAt time.Time
		if err := rows.Scan(
			&sub.ID, &sub.BookingID, &sub.TechnicianID, &sub.Status, &sub.FailureReason, &sub.PartCount,
			&sub.OriginalAmount, &sub.PartsAmount, &sub.TotalAmount, &lines, &submittedAt,
		); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if err := json.Unmarshal(lines, &sub.Lines); err != nil {
			return nil, fmt.Errorf("decode submission lines: %w", err)
		}
		sub.SubmittedAt = submittedAt.Format(time.RFC3339)
		submissions = append(submissions, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}
