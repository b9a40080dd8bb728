// Package app wires the dispatch core together so the server, worker, and
// CLI share one construction path.
package app

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/coldpilot/coldpilot-backend/internal/campaign"
	"github.com/coldpilot/coldpilot-backend/internal/config"
	"github.com/coldpilot/coldpilot-backend/internal/content"
	"github.com/coldpilot/coldpilot-backend/internal/db"
	"github.com/coldpilot/coldpilot-backend/internal/limiter"
	"github.com/coldpilot/coldpilot-backend/internal/notify"
	"github.com/coldpilot/coldpilot-backend/internal/queue"
	"github.com/coldpilot/coldpilot-backend/internal/repository"
	"github.com/coldpilot/coldpilot-backend/internal/scheduler"
	"github.com/coldpilot/coldpilot-backend/internal/selector"
	"github.com/coldpilot/coldpilot-backend/internal/sender"
)

// Default warmup content; deployments with a real content generator swap it
// out behind the content.Generator interface.
const (
	defaultWarmupSubject = "Quick hello from {campaign_name}"
	defaultWarmupBody    = "Hi,\n\nJust keeping in touch. Have a great day!\n"
)

type App struct {
	DB        *sql.DB
	Queue     *queue.EmailQueue
	Processor *campaign.Processor
	Scheduler *scheduler.Scheduler

	wakeups *notify.Publisher
}

// Build connects to Postgres, optionally to RabbitMQ for enqueue wakeups,
// and assembles the dispatch pipeline. A missing broker is not fatal; the
// queue then relies on tick cadence alone.
func Build(cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	conn, err := db.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}

	limits, err := limiter.LoadProviderLimits(cfg.ProviderLimitsPath)
	if err != nil {
		conn.Close()
		return nil, err
	}

	campaignRepo := &repository.CampaignRepository{DB: conn}
	accountRepo := &repository.AccountRepository{DB: conn}
	poolRepo := &repository.PoolRepository{DB: conn}
	prospectRepo := &repository.ProspectRepository{DB: conn}
	queueRepo := &repository.QueueRepository{DB: conn}
	logRepo := &repository.DeliveryLogRepository{DB: conn}
	suppressionRepo := &repository.SuppressionRepository{DB: conn}

	lim := limiter.New(logRepo, accountRepo, limits)
	executor := sender.NewExecutor(sender.NewSMTPTransport(), suppressionRepo, cfg.SendTimeout, logger)

	var wakeups *notify.Publisher
	if cfg.AMQPURL != "" {
		wakeups, err = notify.NewPublisher(cfg.AMQPURL, notify.QueueTicks)
		if err != nil {
			logger.Warnw("wakeup publisher unavailable, relying on tick cadence", "err", err)
			wakeups = nil
		}
	}

	emailQueue := &queue.EmailQueue{
		Items:    queueRepo,
		Logs:     logRepo,
		Accounts: accountRepo,
		Limiter:  lim,
		Executor: executor,
		Logger:   logger,
	}
	if wakeups != nil {
		emailQueue.Notifier = wakeups
	}

	processor := &campaign.Processor{
		Campaigns: campaignRepo,
		Accounts:  accountRepo,
		Pool:      poolRepo,
		Prospects: prospectRepo,
		Logs:      logRepo,
		Selector:  selector.New(poolRepo, prospectRepo),
		Limiter:   lim,
		Queue:     emailQueue,
		Executor:  executor,
		Content: &content.TemplateGenerator{
			SubjectTemplate: defaultWarmupSubject,
			BodyTemplate:    defaultWarmupBody,
		},
		Logger: logger,
	}

	sched := &scheduler.Scheduler{
		Campaigns: campaignRepo,
		Processor: processor,
		Workers:   cfg.SchedulerWorkers,
		Logger:    logger,
	}

	return &App{
		DB:        conn,
		Queue:     emailQueue,
		Processor: processor,
		Scheduler: sched,
		wakeups:   wakeups,
	}, nil
}

func (a *App) Close() {
	if a.wakeups != nil {
		a.wakeups.Close()
	}
	a.DB.Close()
}
