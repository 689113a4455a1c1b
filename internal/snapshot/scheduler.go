package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"jobmate/dashboard-service/internal/aggregate"
	"jobmate/dashboard-service/internal/model"
	"jobmate/dashboard-service/internal/query"
)

// EventSummaryRefreshed is published after every successful refresh.
const EventSummaryRefreshed = "EVENT_SUMMARY_REFRESHED"

// SummaryFetcher is the summary half of the gateway.
type SummaryFetcher interface {
	GetSummary(ctx context.Context, q query.SummaryQuery) (*model.SummaryResponse, error)
}

// Publisher announces refreshes to other services.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// HealthReporter is told whether the last refresh worked.
type HealthReporter interface {
	SetServing(serving bool)
}

// RedisPublisher publishes on Redis pub/sub.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher wraps an already-connected client.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.rdb.Publish(ctx, channel, payload).Err()
}

// Scheduler wraps robfig/cron and refreshes the summary snapshot.
type Scheduler struct {
	cron      *cron.Cron
	fetcher   SummaryFetcher
	store     Store
	publisher Publisher      // optional
	health    HealthReporter // optional
	query     query.SummaryQuery
	opts      aggregate.Options
	spec      string // cron spec, e.g. "@every 6h"
	now       func() time.Time
}

// NewScheduler creates a Scheduler that fires every intervalHours hours.
func NewScheduler(fetcher SummaryFetcher, store Store, q query.SummaryQuery, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{}))),
		fetcher: fetcher,
		store:   store,
		query:   q,
		opts:    aggregate.DefaultOptions(),
		spec:    fmt.Sprintf("@every %dh", intervalHours),
		now:     time.Now,
	}
}

// WithPublisher enables refresh events.
func (s *Scheduler) WithPublisher(p Publisher) *Scheduler {
	s.publisher = p
	return s
}

// WithHealth reports refresh outcomes to h.
func (s *Scheduler) WithHealth(h HealthReporter) *Scheduler {
	s.health = h
	return s
}

// Start registers the job and starts the scheduler. Also runs one refresh
// immediately so the dashboard has a fallback without waiting for the
// first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Info().Str("spec", s.spec).Msg("[scheduler] Cron started")

	go s.run(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler and waits for a running refresh.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("[scheduler] Cron stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if _, err := s.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("[scheduler] Summary refresh failed")
	}
}

// Refresh fetches the summary, builds the view and stores it. Publishing is
// best effort.
func (s *Scheduler) Refresh(ctx context.Context) (*Snapshot, error) {
	resp, err := s.fetcher.GetSummary(ctx, s.query)
	if err != nil {
		s.report(false)
		return nil, fmt.Errorf("fetch summary: %w", err)
	}

	snap := &Snapshot{
		Days:     s.query.Days,
		View:     aggregate.Summarize(resp, s.opts),
		Response: *resp,
		TakenAt:  s.now().UTC(),
	}
	if err := s.store.Save(ctx, snap); err != nil {
		s.report(false)
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	s.report(true)

	log.Info().
		Int64("id", snap.ID).
		Int("jobs", len(resp.Jobs)).
		Int("trend_skipped", snap.View.Trend.Skipped).
		Msg("[scheduler] Summary snapshot saved")

	if s.publisher != nil {
		event, _ := json.Marshal(map[string]any{
			"type":       EventSummaryRefreshed,
			"snapshotId": snap.ID,
			"totalJobs":  snap.View.TotalJobs,
			"takenAt":    snap.TakenAt.Format(time.RFC3339),
		})
		if err := s.publisher.Publish(ctx, EventSummaryRefreshed, event); err != nil {
			log.Warn().Err(err).Msg("[scheduler] publish " + EventSummaryRefreshed + " failed")
		}
	}
	return snap, nil
}

// cronLogger routes robfig/cron's own messages through zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	log.Debug().Fields(keysAndValues).Msg("[scheduler] " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	log.Error().Err(err).Fields(keysAndValues).Msg("[scheduler] " + msg)
}

func (s *Scheduler) report(ok bool) {
	if s.health != nil {
		s.health.SetServing(ok)
	}
}
