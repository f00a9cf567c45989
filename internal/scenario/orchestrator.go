// Package scenario drives one betting scenario end to end: form coercion,
// engine call under output capture, report parsing and slot projection.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mselser95/betview/internal/capture"
	"github.com/mselser95/betview/internal/engine"
	"github.com/mselser95/betview/internal/lastreport"
	"github.com/mselser95/betview/internal/report"
	"github.com/mselser95/betview/internal/storage"
	"github.com/mselser95/betview/internal/view"
	"github.com/mselser95/betview/pkg/cache"
	"go.uber.org/zap"
)

const reportCacheNamespace = "report"

// Branch is how an invocation ended.
type Branch string

// Branches.
const (
	BranchFound    Branch = "found"
	BranchNotFound Branch = "not_found"
	// BranchDegraded is a malformed report shown as not found.
	BranchDegraded Branch = "degraded"
	BranchIgnored  Branch = "ignored"
	BranchNotified Branch = "notified"
	BranchFailed   Branch = "failed"
)

// Outcome summarises one invocation.
type Outcome struct {
	ID       string `json:"id"`
	Scenario Name   `json:"scenario"`
	Branch   Branch `json:"branch"`
	Match    string `json:"match,omitempty"`
	Popup    string `json:"popup,omitempty"`
}

// Orchestrator runs scenarios one at a time against a window.
type Orchestrator struct {
	engine    engine.Engine
	odds      engine.OddsStore
	window    view.Window
	projector *view.Projector
	cache     cache.Cache
	cacheTTL  time.Duration
	last      *lastreport.Store
	storage   storage.Storage
	strict    bool
	logger    *zap.Logger

	mu     sync.Mutex
	states map[Name]*view.State
}

// Config holds orchestrator dependencies. Cache and Storage are optional.
type Config struct {
	Engine   engine.Engine
	Odds     engine.OddsStore
	Window   view.Window
	Cache    cache.Cache
	CacheTTL time.Duration
	Last     *lastreport.Store
	Storage  storage.Storage
	Strict   bool
	Logger   *zap.Logger
}

// New creates an orchestrator with one display state per scenario.
func New(cfg *Config) *Orchestrator {
	states := make(map[Name]*view.State, len(scenarios))
	for _, s := range scenarios {
		states[s.Name] = view.NewState(s.Suffix, s.Layout)
	}

	last := cfg.Last
	if last == nil {
		last = lastreport.New()
	}

	return &Orchestrator{
		engine:    cfg.Engine,
		odds:      cfg.Odds,
		window:    cfg.Window,
		projector: view.NewProjector(cfg.Logger),
		cache:     cfg.Cache,
		cacheTTL:  cfg.CacheTTL,
		last:      last,
		storage:   cfg.Storage,
		strict:    cfg.Strict,
		logger:    cfg.Logger,
		states:    states,
	}
}

// LastReport returns the shared last-report store.
func (o *Orchestrator) LastReport() *lastreport.Store {
	return o.last
}

// Run coerces the form, runs the scenario's engine call under output
// capture and projects the report. Caller-side failures are handled per the
// scenario's Policy; anything else is returned.
func (o *Orchestrator) Run(ctx context.Context, name Name, form Form) (*Outcome, error) {
	sc, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	out := &Outcome{ID: uuid.NewString(), Scenario: name}
	logger := o.logger.With(
		zap.String("invocation-id", out.ID),
		zap.String("scenario", string(name)))

	r, err := o.run(ctx, sc, form, out, logger)

	InvocationsTotal.WithLabelValues(string(name), string(out.Branch)).Inc()
	InvocationDurationSeconds.WithLabelValues(string(name)).Observe(time.Since(start).Seconds())

	if out.Branch != BranchIgnored && out.Branch != BranchFailed {
		o.record(ctx, out, r, logger)
	}

	if err != nil {
		logger.Warn("scenario-failed", zap.Error(err))
		return out, err
	}

	logger.Info("scenario-invoked",
		zap.String("branch", string(out.Branch)),
		zap.String("match", out.Match),
		zap.Duration("duration", time.Since(start)))
	return out, nil
}

func (o *Orchestrator) run(ctx context.Context, sc *Scenario, form Form, out *Outcome, logger *zap.Logger) (*report.Report, error) {
	inv, err := sc.prepare(form, o.engine)
	if err != nil {
		return nil, o.fail(sc, out, "", err, logger)
	}

	text, err := capture.Stdout(func() error {
		return inv.call(ctx, o.engine)
	})
	if err != nil {
		if errors.Is(err, engine.ErrUnavailable) {
			err = &UnavailableSelectionError{Site: inv.site, Err: err}
		}
		return nil, o.fail(sc, out, inv.site, fmt.Errorf("run %s: %w", sc.Name, err), logger)
	}

	state := o.states[sc.Name]

	if sc.NotFoundInText && report.MentionsNotFound(text) {
		o.projector.NotFound(o.window, state, sc.Fallback)
		out.Branch = BranchNotFound
		return nil, nil
	}

	r, err := o.parse(text)
	if err == nil {
		if r.Found() {
			err = o.projector.Found(o.window, state, r, inv.opts)
		} else {
			o.projector.NotFound(o.window, state, sc.Fallback)
			out.Branch = BranchNotFound
		}
	}
	if err != nil {
		if !report.IsParseError(err) || o.strict {
			out.Branch = BranchFailed
			return nil, fmt.Errorf("project %s report: %w", sc.Name, err)
		}
		logger.Error("report-parse-failed",
			zap.Error(err),
			zap.Int("report-bytes", len(text)))
		o.projector.NotFound(o.window, state, sc.Fallback)
		out.Branch = BranchDegraded
		return nil, nil
	}

	if r.Found() {
		out.Branch = BranchFound
		out.Match = r.Match.Name
	}

	if sc.Mirror == MirrorAlways || (sc.Mirror == MirrorFound && r.Found()) {
		o.last.Set(string(sc.Name), r)
	}
	return r, nil
}

// fail applies the scenario policy to a caller-side failure.
func (o *Orchestrator) fail(sc *Scenario, out *Outcome, site string, err error, logger *zap.Logger) error {
	kind := classify(err)
	reaction := sc.Policy.reaction(kind)

	switch reaction {
	case Ignore:
		FailuresTotal.WithLabelValues(string(sc.Name), kind.String(), "ignored").Inc()
		out.Branch = BranchIgnored
		logger.Debug("scenario-failure-ignored",
			zap.String("kind", kind.String()),
			zap.Error(err))
		return nil
	case Notify:
		FailuresTotal.WithLabelValues(string(sc.Name), kind.String(), "notified").Inc()
		out.Branch = BranchNotified
		out.Popup = popupMessage(kind, site)
		o.window.Popup(out.Popup)
		logger.Info("scenario-failure-notified",
			zap.String("kind", kind.String()),
			zap.String("popup", out.Popup))
		return nil
	default:
		FailuresTotal.WithLabelValues(string(sc.Name), kind.String(), "propagated").Inc()
		out.Branch = BranchFailed
		return err
	}
}

func popupMessage(kind failureKind, site string) string {
	switch kind {
	case failureSelection:
		return MessageSelectionMissing
	case failureInput:
		return MessageInvalidInput
	default:
		return MessageUnavailable + site
	}
}

// parse memoises parsed reports by text.
func (o *Orchestrator) parse(text string) (*report.Report, error) {
	if o.cache == nil {
		return report.Parse(text)
	}

	key := cache.TextKey(reportCacheNamespace, text)
	if v, ok := o.cache.Get(key); ok {
		if r, ok := v.(*report.Report); ok && r.Text == text {
			ReportCacheHitsTotal.Inc()
			return r, nil
		}
	}

	r, err := report.Parse(text)
	if err != nil {
		return nil, err
	}
	o.cache.Set(key, r, o.cacheTTL)
	return r, nil
}

// record stores the outcome in the projection history. History is best
// effort: a storage error is logged, never returned.
func (o *Orchestrator) record(ctx context.Context, out *Outcome, r *report.Report, logger *zap.Logger) {
	if o.storage == nil {
		return
	}

	rec := &storage.Record{
		ID:         out.ID,
		Scenario:   string(out.Scenario),
		Branch:     string(out.Branch),
		Match:      out.Match,
		Popup:      out.Popup,
		RecordedAt: time.Now().UTC(),
	}
	if r != nil && r.Found() {
		rec.MatchDate = r.Match.Date
		rec.Indicators = slices.Collect(r.Indicators())
	}

	err := o.storage.StoreProjection(ctx, rec)
	if err != nil {
		logger.Warn("projection-store-failed", zap.Error(err))
	}
}

// LookupOdds shows the stored odds of the match selected in the lookup
// panel. A missing selection is ignored.
func (o *Orchestrator) LookupOdds(ctx context.Context, form Form) error {
	match, err := form.Selected(view.OddsLookupMatchesKey)
	if err != nil {
		return nil
	}
	sport, err := form.Selected("SPORT_ODDS")
	if err != nil {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	mo, err := o.odds.MatchOdds(ctx, sport, match)
	if err != nil {
		return fmt.Errorf("lookup odds: %w", err)
	}
	view.ShowMatchOdds(o.window, match, mo.Odds, mo.Date)

	o.logger.Debug("odds-lookup-shown",
		zap.String("sport", sport),
		zap.String("match", match),
		zap.Int("bookmakers", len(mo.Odds)))
	return nil
}

// DeleteOdds removes the selected match from the odds store, refreshes the
// match pickers and hides the lookup panel. It returns the remaining matches.
func (o *Orchestrator) DeleteOdds(ctx context.Context, form Form) ([]string, error) {
	match, err := form.Selected(view.OddsLookupMatchesKey)
	if err != nil {
		return nil, nil
	}
	sport, err := form.Selected("SPORT_ODDS")
	if err != nil {
		return nil, nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	err = o.odds.DeleteMatch(ctx, sport, match)
	if err != nil {
		return nil, fmt.Errorf("delete odds: %w", err)
	}
	matches, err := o.odds.Matches(ctx, sport)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	view.ShowMatchList(o.window, matches)
	view.HideMatchOdds(o.window)

	o.logger.Info("odds-match-deleted",
		zap.String("sport", sport),
		zap.String("match", match),
		zap.Int("remaining", len(matches)))
	return matches, nil
}

// Matches lists the matches the odds store knows for a sport.
func (o *Orchestrator) Matches(ctx context.Context, sport string) ([]string, error) {
	matches, err := o.odds.Matches(ctx, sport)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matches, nil
}
