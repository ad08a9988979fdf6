// Package scheduler provides asynq task definitions, the enqueue client and
// the background worker for deferred work around parts submissions.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskPartsSubmittedNotify = "partsflow.submitted.notify"

// PartsSubmittedNotifyPayload carries what the customer notification needs.
type PartsSubmittedNotifyPayload struct {
	SubmissionID string  `json:"submissionId"`
	BookingID    string  `json:"bookingId"`
	TechnicianID string  `json:"technicianId"`
	PartCount    int     `json:"partCount"`
	TotalAmount  float64 `json:"totalAmount"`
}

func NewPartsSubmittedNotifyTask(payload PartsSubmittedNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPartsSubmittedNotify, data), nil
}

func ParsePartsSubmittedNotifyPayload(task *asynq.Task) (PartsSubmittedNotifyPayload, error) {
	var payload PartsSubmittedNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PartsSubmittedNotifyPayload{}, err
	}
	return payload, nil
}
