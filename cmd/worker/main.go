// cmd/worker/main.go
package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/coldpilot/coldpilot-backend/internal/app"
	"github.com/coldpilot/coldpilot-backend/internal/config"
	"github.com/coldpilot/coldpilot-backend/internal/notify"
)

// queueTick is what arrives on the queue_ticks queue: either a periodic tick
// from the external cron publisher (optionally carrying a batch size) or a
// post-enqueue wakeup carrying the item id. Both just mean "run a pass now".
type queueTick struct {
	BatchSize   int    `json:"batch_size,omitempty"`
	QueueItemID string `json:"queue_item_id,omitempty"`
}

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

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		logger.Fatalw("failed to connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalw("failed to open a channel", "err", err)
	}
	defer ch.Close()

	schedulerMsgs := consume(ch, notify.SchedulerTicks, logger)
	queueMsgs := consume(ch, notify.QueueTicks, logger)

	ctx := context.Background()

	go func() {
		for d := range schedulerMsgs {
			result, err := application.Scheduler.ProcessActiveCampaigns(ctx)
			if err != nil {
				logger.Errorw("scheduler pass failed", "err", err)
				d.Ack(false)
				continue
			}
			logger.Infow("scheduler pass done",
				"total", result.TotalCampaigns, "processed", result.Processed,
				"skipped", result.Skipped, "queued", result.TotalEmailsQueued)
			d.Ack(false)
		}
	}()

	go func() {
		for d := range queueMsgs {
			var tick queueTick
			if err := json.Unmarshal(d.Body, &tick); err != nil {
				logger.Warnw("invalid tick payload", "err", err)
				d.Ack(false)
				continue
			}
			batchSize := tick.BatchSize
			if batchSize < 1 {
				batchSize = cfg.QueueBatchSize
			}

			result, err := application.Queue.ProcessBatch(ctx, batchSize)
			if err != nil {
				logger.Errorw("queue pass failed", "err", err)
				d.Ack(false)
				continue
			}
			if result.Processed > 0 {
				logger.Infow("queue pass done",
					"processed", result.Processed, "succeeded", result.Succeeded, "failed", result.Failed)
			}
			d.Ack(false)
		}
	}()

	logger.Info("worker running, waiting for ticks...")
	forever := make(chan bool)
	<-forever
}

func consume(ch *amqp.Channel, queueName string, logger *zap.SugaredLogger) <-chan amqp.Delivery {
	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		logger.Fatalw("failed to declare queue", "queue", queueName, "err", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Fatalw("failed to register consumer", "queue", queueName, "err", err)
	}
	return msgs
}
