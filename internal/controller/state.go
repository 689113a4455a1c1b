package controller

import (
	"jobmate/dashboard-service/internal/model"
	"jobmate/dashboard-service/internal/query"
)

// Status is the listing lifecycle as seen by the user.
type Status int

const (
	StatusIdle    Status = iota // nothing requested yet
	StatusPending               // filter changed, waiting for the quiet period
	StatusLoading               // fetch in flight
	StatusReady                 // Data holds the latest results
	StatusEmpty                 // fetch succeeded with zero jobs
	StatusError                 // latest fetch failed; Data is the last good page
)

var statusNames = [...]string{"idle", "pending", "loading", "ready", "empty", "error"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// MarshalText renders the status name in JSON.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// State is an immutable snapshot of a listing session. Data is shared
// between snapshots and must not be modified.
type State struct {
	Params     query.Params   // what the user has asked for
	Status     Status
	Data       *model.JobsPage // last successful page; nil until the first success
	DataParams query.Params    // parameters that produced Data
	Err        error           // set while Status is StatusError
	Retryable  bool
	Seq        uint64 // sequence of the latest issued fetch
	Version    uint64 // increases with every change
}

// Stale reports whether Data was fetched for different parameters than the
// ones currently requested.
func (s State) Stale() bool {
	return s.Data != nil && s.DataParams != s.Params
}
