package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mselser95/betview/internal/report"
	"go.uber.org/zap"
)

const defaultConsoleHistory = 100

// ConsoleStorage implements Storage by pretty-printing to a writer and keeping
// the most recent records in memory.
//
// It writes to stderr by default: stdout belongs to the engine while a report
// is being captured.
type ConsoleStorage struct {
	logger  *zap.Logger
	out     io.Writer
	mu      sync.Mutex
	history []Record
	limit   int
}

// ConsoleOption configures a ConsoleStorage.
type ConsoleOption func(*ConsoleStorage)

// WithOutput sets the writer records are printed to.
func WithOutput(w io.Writer) ConsoleOption {
	return func(c *ConsoleStorage) { c.out = w }
}

// WithHistoryLimit sets how many records Recent can return.
func WithHistoryLimit(n int) ConsoleOption {
	return func(c *ConsoleStorage) { c.limit = n }
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger, opts ...ConsoleOption) *ConsoleStorage {
	c := &ConsoleStorage{
		logger: logger,
		out:    os.Stderr,
		limit:  defaultConsoleHistory,
	}
	for _, opt := range opts {
		opt(c)
	}
	logger.Info("console-storage-initialized", zap.Int("history-limit", c.limit))
	return c
}

// StoreProjection pretty-prints a projection.
func (c *ConsoleStorage) StoreProjection(_ context.Context, rec *Record) error {
	line := strings.Repeat("━", 72)

	var b strings.Builder
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "%s [%s]\n", rec.Scenario, rec.Branch)
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "ID:     %s\n", shortID(rec.ID))
	fmt.Fprintf(&b, "Time:   %s\n", rec.RecordedAt.Format("2006-01-02 15:04:05"))
	if rec.Match != "" {
		fmt.Fprintf(&b, "Match:  %s\n", rec.Match)
	}
	if rec.MatchDate != nil {
		fmt.Fprintf(&b, "Date:   %s\n", rec.MatchDate.Format(report.DateLayout))
	}
	if rec.Popup != "" {
		fmt.Fprintf(&b, "Popup:  %s\n", rec.Popup)
	}
	for _, ind := range rec.Indicators {
		fmt.Fprintf(&b, "  %s = %s\n", ind.Label, ind.Value)
	}
	fmt.Fprintln(&b, line)

	_, err := io.WriteString(c.out, b.String())
	if err != nil {
		return fmt.Errorf("print projection: %w", err)
	}

	c.mu.Lock()
	c.history = append(c.history, *rec)
	if len(c.history) > c.limit {
		c.history = c.history[len(c.history)-c.limit:]
	}
	c.mu.Unlock()

	return nil
}

// Recent returns the in-memory history, newest first.
func (c *ConsoleStorage) Recent(_ context.Context, scenario string, limit int) ([]Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Record, 0, min(limit, len(c.history)))
	for i := len(c.history) - 1; i >= 0 && len(out) < limit; i-- {
		if scenario != "" && c.history[i].Scenario != scenario {
			continue
		}
		out = append(out, c.history[i])
	}
	return out, nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
