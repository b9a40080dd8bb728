// internal/controller/dispatch_controller.go
package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/coldpilot/coldpilot-backend/internal/campaign"
	"github.com/coldpilot/coldpilot-backend/internal/scheduler"
)

// SchedulerRunner is the scheduler's entry point.
type SchedulerRunner interface {
	ProcessActiveCampaigns(ctx context.Context) (*scheduler.Result, error)
}

// BatchSender is the manual outreach send path.
type BatchSender interface {
	SendBatch(ctx context.Context, campaignID, limit int) (*campaign.ProcessResult, error)
}

type DispatchController struct {
	Scheduler SchedulerRunner
	Processor BatchSender
	Logger    *zap.SugaredLogger
}

// RunDispatch triggers one scheduler pass. Idempotent; external cron hits
// this on its cadence.
func (c *DispatchController) RunDispatch(w http.ResponseWriter, r *http.Request) {
	result, err := c.Scheduler.ProcessActiveCampaigns(r.Context())
	if err != nil {
		c.Logger.Errorw("scheduler pass failed", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// SendBatch triggers a user-driven batch send for a manual outreach
// campaign.
func (c *DispatchController) SendBatch(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var body struct {
		Limit int `json:"limit"`
	}
	if r.Body != nil {
		// An empty body means "send as many as the limiter allows".
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	result, err := c.Processor.SendBatch(r.Context(), id, body.Limit)
	if err != nil {
		c.Logger.Errorw("batch send failed", "campaign_id", id, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
