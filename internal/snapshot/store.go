// Package snapshot keeps the most recent dashboard summary so the dashboard
// can still show data when the jobs API is unreachable.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/dashboard-service/internal/aggregate"
	"jobmate/dashboard-service/internal/model"
)

// ErrNoSnapshot is returned by Latest before anything has been saved.
var ErrNoSnapshot = errors.New("no summary snapshot yet")

// Snapshot is a summary view together with the records it was built from.
type Snapshot struct {
	ID       int64                 `json:"id,omitempty"`
	Days     int                   `json:"days"`
	View     aggregate.View        `json:"view"`
	Response model.SummaryResponse `json:"response"`
	TakenAt  time.Time             `json:"taken_at"`
}

// Store persists snapshots.
type Store interface {
	Save(ctx context.Context, s *Snapshot) error
	Latest(ctx context.Context) (*Snapshot, error)
}

// PostgresStore keeps every snapshot in summary_snapshots.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the table if needed.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	_, err := pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS summary_snapshots (
		   id         BIGSERIAL PRIMARY KEY,
		   days       INT         NOT NULL,
		   view       JSONB       NOT NULL,
		   response   JSONB       NOT NULL,
		   taken_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		 )`,
	)
	if err != nil {
		return nil, fmt.Errorf("create summary_snapshots: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Save inserts s and fills in its ID.
func (p *PostgresStore) Save(ctx context.Context, s *Snapshot) error {
	view, err := json.Marshal(s.View)
	if err != nil {
		return fmt.Errorf("marshal view: %w", err)
	}
	resp, err := json.Marshal(s.Response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	err = p.pool.QueryRow(ctx,
		`INSERT INTO summary_snapshots (days, view, response, taken_at)
		 VALUES ($1, $2::jsonb, $3::jsonb, $4)
		 RETURNING id`,
		s.Days, string(view), string(resp), s.TakenAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Latest returns the newest snapshot.
func (p *PostgresStore) Latest(ctx context.Context) (*Snapshot, error) {
	var (
		s          Snapshot
		view, resp []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, days, view, response, taken_at
		 FROM summary_snapshots
		 ORDER BY taken_at DESC, id DESC
		 LIMIT 1`,
	).Scan(&s.ID, &s.Days, &view, &resp, &s.TakenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	if err := json.Unmarshal(view, &s.View); err != nil {
		return nil, fmt.Errorf("decode view: %w", err)
	}
	if err := json.Unmarshal(resp, &s.Response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// MemoryStore keeps only the latest snapshot in process.
type MemoryStore struct {
	mu     sync.RWMutex
	latest *Snapshot
	nextID int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, s *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	cp := *s
	m.latest = &cp
	return nil
}

func (m *MemoryStore) Latest(_ context.Context) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil {
		return nil, ErrNoSnapshot
	}
	cp := *m.latest
	return &cp, nil
}
