package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/http/middleware"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/usecase"
)

// FollowUpWorker is the internal scheduler: it invokes the dispatcher
// on a fixed interval, same as an external cron hitting the trigger
// endpoint would. Both paths share the dispatcher's run lock, so
// enabling both never double-sends.
type FollowUpWorker struct {
	dispatcher   *usecase.DispatchFollowUpsUseCase
	tickInterval time.Duration
	runTimeout   time.Duration
}

func NewFollowUpWorker(dispatcher *usecase.DispatchFollowUpsUseCase, tickInterval time.Duration) *FollowUpWorker {
	if tickInterval <= 0 {
		tickInterval = 5 * time.Minute
	}
	return &FollowUpWorker{
		dispatcher:   dispatcher,
		tickInterval: tickInterval,
		runTimeout:   2 * time.Minute,
	}
}

func (w *FollowUpWorker) Start(ctx context.Context) {
	log.Printf("🕒 Follow-up worker started (every %s)", w.tickInterval)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ Follow-up worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *FollowUpWorker) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.runTimeout)
	defer cancel()

	start := time.Now()
	results, err := w.dispatcher.Execute(runCtx, time.Now())
	if err != nil {
		if errors.Is(err, usecase.ErrRunInProgress) {
			log.Println("⏭️ [Worker] Previous dispatcher run still in progress, skipping tick")
			return
		}
		log.Printf("❌ [Worker] Dispatcher run failed: %v", err)
		return
	}

	middleware.RecordBatchDuration(time.Since(start))
	middleware.RecordFollowUps("sent", results.Sent)
	middleware.RecordFollowUps("failed", results.Failed)
	middleware.RecordFollowUps("skipped", results.Skipped)

	if results.Processed > 0 {
		log.Printf("✅ [Worker] Tick done: processed=%d sent=%d failed=%d skipped=%d",
			results.Processed, results.Sent, results.Failed, results.Skipped)
	}
}
