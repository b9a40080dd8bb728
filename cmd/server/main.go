// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/coldpilot/coldpilot-backend/internal/app"
	"github.com/coldpilot/coldpilot-backend/internal/config"
	"github.com/coldpilot/coldpilot-backend/internal/controller"
	"github.com/coldpilot/coldpilot-backend/internal/handler"
)

func main() {
	cfg := config.Load()

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	application, err := app.Build(cfg, logger)
	if err != nil {
		logger.Fatalw("startup failed", "err", err)
	}
	defer application.Close()

	dispatchController := &controller.DispatchController{
		Scheduler: application.Scheduler,
		Processor: application.Processor,
		Logger:    logger,
	}
	queueHandler := &handler.QueueHandler{
		Queue:  application.Queue,
		Logger: logger,
	}

	r := chi.NewRouter()

	// Dispatch triggers
	r.Post("/dispatch/run", dispatchController.RunDispatch)
	r.Post("/campaigns/{id}/send-batch", dispatchController.SendBatch)

	// Queue operations
	r.Post("/queue/process", queueHandler.ProcessQueue)
	r.Get("/queue/stats", queueHandler.QueueStats)
	r.Post("/queue/retry-failed", queueHandler.RetryFailed)
	r.Post("/queue/cleanup", queueHandler.Cleanup)

	logger.Infow("server running", "addr", cfg.HTTPAddr)
	logger.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
