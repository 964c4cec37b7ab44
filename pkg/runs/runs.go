// Package runs persists pipeline run records.
//
// Every pipeline execution leaves a record (inputs, parameters, stage
// timings, warnings, artifacts) so that a week later "which interval did
// I use, and which pages came from cache?" has an answer that doesn't
// involve re-running OMR. Backends:
//   - file: JSON files in a config directory, the CLI default
//   - mongo: MongoDB collection for shared deployments
package runs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("run not found")

// StageTiming is one stage's wall-clock cost within a run.
type StageTiming struct {
	Stage    string        `json:"stage" bson:"stage"`
	Duration time.Duration `json:"duration" bson:"duration"`
}

// Record describes one pipeline run.
type Record struct {
	ID           string        `json:"id" bson:"_id"`
	Input        string        `json:"input" bson:"input"`
	OutputDir    string        `json:"output_dir" bson:"output_dir"`
	StartMeasure int           `json:"start_measure" bson:"start_measure"`
	Interval     string        `json:"interval" bson:"interval"`
	Pages        int           `json:"pages" bson:"pages"`
	CachedPages  int           `json:"cached_pages" bson:"cached_pages"`
	Parts        int           `json:"parts" bson:"parts"`
	Measures     int           `json:"measures" bson:"measures"`
	Transposed   int           `json:"transposed" bson:"transposed"`
	Stages       []StageTiming `json:"stages,omitempty" bson:"stages,omitempty"`
	Warnings     []string      `json:"warnings,omitempty" bson:"warnings,omitempty"`
	Artifacts    []string      `json:"artifacts,omitempty" bson:"artifacts,omitempty"`
	Error        string        `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at" bson:"started_at"`
	FinishedAt   time.Time     `json:"finished_at" bson:"finished_at"`
}

// New creates a record for a run starting now.
func New(input string) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Input:     input,
		StartedAt: time.Now().UTC(),
	}
}

// AddStage appends a stage timing.
func (r *Record) AddStage(stage string, d time.Duration) {
	r.Stages = append(r.Stages, StageTiming{Stage: stage, Duration: d})
}

// Finish stamps the end time and, when err is non-nil, the error text.
func (r *Record) Finish(err error) {
	r.FinishedAt = time.Now().UTC()
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration returns the run's total wall-clock time.
func (r *Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store is the interface for run record storage backends.
type Store interface {
	// Put inserts or replaces a record.
	Put(ctx context.Context, rec *Record) error

	// Get retrieves a record by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns the most recent records, newest first, up to limit.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Close releases backend resources.
	Close() error
}
