package snapshot_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"jobmate/dashboard-service/internal/model"
	"jobmate/dashboard-service/internal/query"
	"jobmate/dashboard-service/internal/snapshot"
)

type stubFetcher struct {
	resp *model.SummaryResponse
	err  error
	got  query.SummaryQuery
}

func (f *stubFetcher) GetSummary(_ context.Context, q query.SummaryQuery) (*model.SummaryResponse, error) {
	f.got = q
	return f.resp, f.err
}

type recordingPublisher struct {
	channel string
	payload []byte
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, payload []byte) error {
	p.channel, p.payload = channel, payload
	return p.err
}

type healthFlag struct{ states []bool }

func (h *healthFlag) SetServing(ok bool) { h.states = append(h.states, ok) }

func sampleSummary() *model.SummaryResponse {
	return &model.SummaryResponse{
		Summary: model.DailySummary{TotalJobs: 2, PeriodDays: 7},
		Jobs: []model.Job{
			{ID: 1, Company: "Acme", WorkModality: "Remote", Tags: []string{"Go"}, CreatedAt: "2024-01-21"},
			{ID: 2, Company: "Acme", WorkModality: "Hybrid", Tags: []string{"go"}, CreatedAt: "bad"},
		},
	}
}

func TestRefresh_SavesAndPublishes(t *testing.T) {
	f := &stubFetcher{resp: sampleSummary()}
	store := snapshot.NewMemoryStore()
	pub := &recordingPublisher{}
	health := &healthFlag{}

	s := snapshot.NewScheduler(f, store, query.DefaultSummary(), 6).WithPublisher(pub).WithHealth(health)
	snap, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if f.got.Days != 7 {
		t.Errorf("requested days = %d, want 7", f.got.Days)
	}
	if snap.View.TotalJobs != 2 || snap.View.Companies.Entries[0].Count != 2 {
		t.Errorf("view = %+v", snap.View)
	}
	if snap.View.Trend.Skipped != 1 {
		t.Errorf("trend skipped = %d, want 1", snap.View.Trend.Skipped)
	}

	latest, err := store.Latest(context.Background())
	if err != nil || latest.ID != snap.ID {
		t.Errorf("Latest = %+v, %v", latest, err)
	}

	if pub.channel != snapshot.EventSummaryRefreshed {
		t.Errorf("published on %q", pub.channel)
	}
	var event map[string]any
	if err := json.Unmarshal(pub.payload, &event); err != nil || event["type"] != snapshot.EventSummaryRefreshed {
		t.Errorf("event = %s (%v)", pub.payload, err)
	}
	if len(health.states) != 1 || !health.states[0] {
		t.Errorf("health = %v, want [true]", health.states)
	}
}

func TestRefresh_FetchFailureKeepsPreviousSnapshot(t *testing.T) {
	f := &stubFetcher{resp: sampleSummary()}
	store := snapshot.NewMemoryStore()
	health := &healthFlag{}
	s := snapshot.NewScheduler(f, store, query.DefaultSummary(), 6).WithHealth(health)

	first, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("first Refresh: %v", err)
	}

	f.err = errors.New("connection refused")
	if _, err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	latest, err := store.Latest(context.Background())
	if err != nil || latest.ID != first.ID {
		t.Errorf("Latest = %+v, %v; want first snapshot kept", latest, err)
	}
	if len(health.states) != 2 || health.states[1] {
		t.Errorf("health = %v, want [true false]", health.states)
	}
}

func TestRefresh_PublishFailureIsNonFatal(t *testing.T) {
	s := snapshot.NewScheduler(&stubFetcher{resp: sampleSummary()}, snapshot.NewMemoryStore(), query.DefaultSummary(), 6).
		WithPublisher(&recordingPublisher{err: errors.New("redis down")})
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Errorf("publish failure should not fail refresh: %v", err)
	}
}

func TestMemoryStore_Empty(t *testing.T) {
	_, err := snapshot.NewMemoryStore().Latest(context.Background())
	if !errors.Is(err, snapshot.ErrNoSnapshot) {
		t.Errorf("err = %v, want ErrNoSnapshot", err)
	}
}

func TestStartStop(t *testing.T) {
	f := &stubFetcher{resp: sampleSummary()}
	s := snapshot.NewScheduler(f, snapshot.NewMemoryStore(), query.DefaultSummary(), 1)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}
