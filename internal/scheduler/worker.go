package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"fieldparts_backend/internal/marketplace"
	"fieldparts_backend/platform/config"
	"fieldparts_backend/platform/logger"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	market marketplace.API
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, market marketplace.API, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		market: market,
		log:    log,
	}

	mux.HandleFunc(TaskPartsSubmittedNotify, w.handlePartsSubmittedNotify)

	return w, nil
}

// handlePartsSubmittedNotify pushes the customer-facing notification through
// the marketplace. Errors propagate so asynq retries delivery.
func (w *Worker) handlePartsSubmittedNotify(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePartsSubmittedNotifyPayload(task)
	if err != nil {
		return err
	}

	notice := marketplace.Notice{
		RecipientID: payload.TechnicianID,
		BookingID:   payload.BookingID,
		Title:       "Parts added to your booking",
		Body:        fmt.Sprintf("%d part(s) were added. Updated total: %.2f", payload.PartCount, payload.TotalAmount),
	}
	if err := w.market.Notify(ctx, notice); err != nil {
		w.log.UpstreamError("parts submitted notify", err)
		return err
	}
	w.log.Info("parts submitted notification sent",
		"submission_id", payload.SubmissionID,
		"booking_id", payload.BookingID,
	)
	return nil
}

// Run starts the worker and blocks until shutdown.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
