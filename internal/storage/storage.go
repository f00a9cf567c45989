// Package storage records the history of scenario projections.
package storage

import (
	"context"
	"time"

	"github.com/mselser95/betview/internal/report"
)

// Record is one projected invocation.
type Record struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Branch     string             `json:"branch"`
	Match      string             `json:"match,omitempty"`
	MatchDate  *time.Time         `json:"match_date,omitempty"`
	Indicators []report.Indicator `json:"indicators"`
	Popup      string             `json:"popup,omitempty"`
	RecordedAt time.Time          `json:"recorded_at"`
}

// Storage is the interface for storing projection history.
type Storage interface {
	// StoreProjection stores one projected invocation.
	StoreProjection(ctx context.Context, rec *Record) error

	// Recent returns up to limit records, newest first. An empty scenario
	// matches every scenario.
	Recent(ctx context.Context, scenario string, limit int) ([]Record, error)

	// Close closes the storage connection.
	Close() error
}
