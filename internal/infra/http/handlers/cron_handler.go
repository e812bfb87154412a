package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/http/middleware"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/usecase"
)

// batchTimeout bounds a whole dispatcher run so a hung provider can
// never stall the scheduler past the next tick.
const batchTimeout = 2 * time.Minute

type FollowUpDispatcher interface {
	Execute(ctx context.Context, now time.Time) (*usecase.DispatchResults, error)
}

type CronHandler struct {
	Dispatcher FollowUpDispatcher
	Secret     string
}

type cronResponse struct {
	OK      bool                     `json:"ok"`
	Message string                   `json:"message,omitempty"`
	Results *usecase.DispatchResults `json:"results,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

func NewCronHandler(dispatcher FollowUpDispatcher, secret string) *CronHandler {
	return &CronHandler{
		Dispatcher: dispatcher,
		Secret:     secret,
	}
}

// Handle is the cron trigger: an external scheduler POSTs here every
// few minutes. GET is allowed too so a run is easy to kick off by hand.
func (h *CronHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.Secret != "" && r.Header.Get("Authorization") != "Bearer "+h.Secret {
		log.Println("🚫 [Cron] Unauthorized cron request")
		writeJSON(w, http.StatusUnauthorized, cronResponse{OK: false, Error: "Unauthorized"})
		return
	}

	log.Println("⏰ [Cron] Starting follow-up send job...")

	ctx, cancel := context.WithTimeout(r.Context(), batchTimeout)
	defer cancel()

	start := time.Now()
	results, err := h.Dispatcher.Execute(ctx, time.Now())
	if err != nil {
		if errors.Is(err, usecase.ErrRunInProgress) {
			writeJSON(w, http.StatusOK, cronResponse{OK: true, Message: "Previous run still in progress, skipping"})
			return
		}
		log.Printf("❌ [Cron] Job failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, cronResponse{OK: false, Error: "Failed to fetch follow-ups"})
		return
	}

	middleware.RecordBatchDuration(time.Since(start))
	middleware.RecordFollowUps("sent", results.Sent)
	middleware.RecordFollowUps("failed", results.Failed)
	middleware.RecordFollowUps("skipped", results.Skipped)

	if results.Processed == 0 {
		writeJSON(w, http.StatusOK, cronResponse{OK: true, Message: "No pending follow-ups", Results: results})
		return
	}

	writeJSON(w, http.StatusOK, cronResponse{OK: true, Results: results})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
