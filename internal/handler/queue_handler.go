// internal/handler/queue_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/coldpilot/coldpilot-backend/internal/queue"
)

// QueueService is the slice of the email queue exposed over HTTP.
type QueueService interface {
	ProcessBatch(ctx context.Context, batchSize int) (*queue.ProcessResult, error)
	RetryFailed(ctx context.Context) (int64, error)
	GetStats(ctx context.Context) (map[string]int, error)
	Cleanup(ctx context.Context) (int64, error)
}

type QueueHandler struct {
	Queue  QueueService
	Logger *zap.SugaredLogger
}

// ProcessQueue triggers one queue batch pass. Idempotent; safe to hit
// concurrently with other passes thanks to the atomic claim.
func (h *QueueHandler) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	batchSize := 0
	if v := r.URL.Query().Get("batch_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid batch_size", http.StatusBadRequest)
			return
		}
		batchSize = n
	}

	result, err := h.Queue.ProcessBatch(r.Context(), batchSize)
	if err != nil {
		h.Logger.Errorw("queue pass failed", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (h *QueueHandler) QueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Queue.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"stats": stats})
}

func (h *QueueHandler) RetryFailed(w http.ResponseWriter, r *http.Request) {
	n, err := h.Queue.RetryFailed(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"requeued": n})
}

func (h *QueueHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	n, err := h.Queue.Cleanup(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"deleted": n})
}
