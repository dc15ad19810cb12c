package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"

	"mod-aggregator/jobs"
	"mod-aggregator/platform"
)

// Topics. Failed messages that exhaust their retries land on the poison
// topic with the failure reason in metadata.
const (
	TopicSync    = "sync.platform"
	TopicRefresh = "mod.refresh"
	TopicIngest  = "mod.ingest"
	TopicPoison  = "dlq.jobs"
)

// Queue runs the background jobs over an in-process pub/sub. Publishing is
// decoupled from execution so the scheduler, the CLI and the search service
// all enqueue the same way, and retry policy lives here instead of in the
// job bodies.
type Queue struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	runner *jobs.Runner
	log    *zap.SugaredLogger
}

// New wires the router: panic recovery and the poison queue apply to every
// handler, retry policy is attached per handler because sync runs are far
// more expensive to repeat than refreshes.
func New(runner *jobs.Runner, log *zap.SugaredLogger) (*Queue, error) {
	wlog := newZapLoggerAdapter(log)

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, wlog)

	router, err := message.NewRouter(message.RouterConfig{}, wlog)
	if err != nil {
		return nil, fmt.Errorf("failed to create job router: %w", err)
	}

	q := &Queue{
		pubsub: pubsub,
		router: router,
		runner: runner,
		log:    log,
	}

	router.AddMiddleware(middleware.Recoverer)

	poison, err := middleware.PoisonQueue(pubsub, TopicPoison)
	if err != nil {
		return nil, fmt.Errorf("failed to create poison queue: %w", err)
	}
	router.AddMiddleware(poison)

	// 3 attempts, fixed 60s apart.
	syncRetry := middleware.Retry{
		MaxRetries:      2,
		InitialInterval: time.Minute,
		MaxInterval:     time.Minute,
		Multiplier:      1.0,
		Logger:          wlog,
	}
	// 2 attempts, fixed 30s apart.
	refreshRetry := middleware.Retry{
		MaxRetries:      1,
		InitialInterval: 30 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      1.0,
		Logger:          wlog,
	}

	router.AddNoPublisherHandler("sync-platform", TopicSync, pubsub, q.handleSync).
		AddMiddleware(syncRetry.Middleware)
	router.AddNoPublisherHandler("refresh-mod", TopicRefresh, pubsub, q.handleRefresh).
		AddMiddleware(refreshRetry.Middleware)
	// Ingest drops anything it cannot place instead of erroring, so it
	// carries no retry policy.
	router.AddNoPublisherHandler("ingest-mod", TopicIngest, pubsub, q.handleIngest)

	return q, nil
}

// Run blocks processing jobs until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) error {
	return q.router.Run(ctx)
}

// Running is closed once the router is ready to process messages.
func (q *Queue) Running() <-chan struct{} {
	return q.router.Running()
}

func (q *Queue) Close() error {
	if err := q.router.Close(); err != nil {
		return err
	}
	return q.pubsub.Close()
}

func (q *Queue) publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}
	return q.pubsub.Publish(topic, message.NewMessage(watermill.NewUUID(), body))
}

// EnqueueSync schedules a platform sync run.
func (q *Queue) EnqueueSync(p platform.Platform, limit int) error {
	return q.publish(TopicSync, jobs.SyncPayload{Platform: p.String(), Limit: limit})
}

// EnqueueRefresh schedules a single-mod refresh.
func (q *Queue) EnqueueRefresh(modID uint) error {
	return q.publish(TopicRefresh, jobs.RefreshPayload{ModID: modID})
}

// EnqueueIngest schedules cataloguing of a search hit.
func (q *Queue) EnqueueIngest(payload jobs.IngestPayload) error {
	return q.publish(TopicIngest, payload)
}

func (q *Queue) handleSync(msg *message.Message) error {
	var payload jobs.SyncPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		q.log.Errorw("Discarding malformed sync message", zap.String("uuid", msg.UUID), zap.Error(err))
		return nil
	}
	p, err := platform.Parse(payload.Platform)
	if err != nil {
		q.log.Errorw("Discarding sync message for unknown platform",
			zap.String("uuid", msg.UUID),
			zap.String("platform", payload.Platform),
		)
		return nil
	}
	return q.runner.SyncPlatform(msg.Context(), p, payload.Limit)
}

func (q *Queue) handleRefresh(msg *message.Message) error {
	var payload jobs.RefreshPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		q.log.Errorw("Discarding malformed refresh message", zap.String("uuid", msg.UUID), zap.Error(err))
		return nil
	}
	return q.runner.RefreshMod(msg.Context(), payload.ModID)
}

func (q *Queue) handleIngest(msg *message.Message) error {
	var payload jobs.IngestPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		q.log.Errorw("Discarding malformed ingest message", zap.String("uuid", msg.UUID), zap.Error(err))
		return nil
	}
	return q.runner.IngestMod(msg.Context(), payload)
}
