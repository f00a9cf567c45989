package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/betview/internal/report"
	"go.uber.org/zap"
)

// Report file names served by Replay, one per strategy.
const (
	ReportUnderConditions = "under-conditions"
	ReportStake           = "stake"
	ReportFreebet         = "freebet"
	ReportCashback        = "cashback"
	ReportCombine         = "combine"
	ReportStakesToBet     = "stakes-to-bet"
	ReportFreebets        = "freebets"
	ReportPariGagnant     = "pari-gagnant"
	ReportCombineBoosted  = "combine-boosted"

	oddsFileName = "odds.json"
)

// threeWaySports have a draw outcome.
//
//nolint:gochecknoglobals // read-only table
var threeWaySports = map[string]bool{
	"football": true,
	"handball": true,
	"rugby":    true,
}

// Replay is an Engine that prints canned reports from a directory
// (<name>.txt) and serves odds from <dir>/odds.json. It stands in for the
// real engine in the CLI and in tests.
type Replay struct {
	dir    string
	logger *zap.Logger
	mu     sync.RWMutex
	odds   map[string]map[string]*MatchOdds
}

// ReplayConfig holds replay engine configuration.
type ReplayConfig struct {
	Dir    string
	Logger *zap.Logger
}

type oddsFile map[string]map[string]oddsFileEntry

type oddsFileEntry struct {
	Date *time.Time `json:"date"`
	Odds []struct {
		Bookmaker string        `json:"bookmaker"`
		Odds      []json.Number `json:"odds"`
	} `json:"odds"`
}

// NewReplay creates a replay engine. A missing odds.json leaves the odds store
// empty and disables availability checks.
func NewReplay(cfg *ReplayConfig) (*Replay, error) {
	r := &Replay{
		dir:    cfg.Dir,
		logger: cfg.Logger,
		odds:   make(map[string]map[string]*MatchOdds),
	}

	data, err := os.ReadFile(filepath.Join(cfg.Dir, oddsFileName))
	if errors.Is(err, fs.ErrNotExist) {
		cfg.Logger.Info("replay-engine-no-odds-file", zap.String("dir", cfg.Dir))
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read odds file: %w", err)
	}

	var file oddsFile
	err = json.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("decode odds file: %w", err)
	}

	for sport, matches := range file {
		r.odds[sport] = make(map[string]*MatchOdds, len(matches))
		for match, entry := range matches {
			mo := &MatchOdds{Date: entry.Date}
			for _, b := range entry.Odds {
				numbers, convErr := toNumbers(b.Odds)
				if convErr != nil {
					return nil, fmt.Errorf("odds for %s/%s/%s: %w", sport, match, b.Bookmaker, convErr)
				}
				mo.Odds = append(mo.Odds, report.BookmakerOdds{Bookmaker: b.Bookmaker, Odds: numbers})
			}
			shapeErr := report.CheckOddsShape(mo.Odds)
			if shapeErr != nil {
				return nil, fmt.Errorf("odds for %s/%s: %w", sport, match, shapeErr)
			}
			r.odds[sport][match] = mo
		}
	}

	cfg.Logger.Info("replay-engine-loaded",
		zap.String("dir", cfg.Dir),
		zap.Int("sports", len(r.odds)))

	return r, nil
}

// Check reports whether the report directory is still readable.
func (r *Replay) Check(_ context.Context) error {
	info, err := os.Stat(r.dir)
	if err != nil {
		return fmt.Errorf("stat replay dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("replay dir %s is not a directory", r.dir)
	}
	return nil
}

func toNumbers(raw []json.Number) ([]report.Number, error) {
	out := make([]report.Number, 0, len(raw))
	for _, n := range raw {
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", n, err)
		}
		out = append(out, report.Number{
			Value: f,
			IsInt: !strings.ContainsAny(n.String(), ".eE"),
		})
	}
	return out, nil
}

// print copies the canned report to the current os.Stdout.
func (r *Replay) print(ctx context.Context, name string) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(r.dir, name+".txt"))
	if err != nil {
		return fmt.Errorf("read %s report: %w", name, err)
	}

	_, err = os.Stdout.Write(data)
	if err != nil {
		return fmt.Errorf("write %s report: %w", name, err)
	}

	r.logger.Debug("replay-report-printed",
		zap.String("report", name),
		zap.Int("bytes", len(data)))
	return nil
}

// BestMatchUnderConditions implements Engine.
func (r *Replay) BestMatchUnderConditions(ctx context.Context, _ UnderConditionsArgs) error {
	return r.print(ctx, ReportUnderConditions)
}

// BestStakesMatch implements Engine. When odds are loaded, a match the site
// does not quote fails with ErrUnavailable.
func (r *Replay) BestStakesMatch(ctx context.Context, args StakeArgs) error {
	err := r.checkAvailable(args.Sport, args.Match, args.Site)
	if err != nil {
		return err
	}
	return r.print(ctx, ReportStake)
}

func (r *Replay) checkAvailable(sport string, match string, site string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.odds) == 0 {
		return nil
	}

	mo, ok := r.odds[sport][match]
	if !ok {
		return fmt.Errorf("%w: %q on %s", ErrUnavailable, match, site)
	}
	for _, b := range mo.Odds {
		if b.Bookmaker == site {
			return nil
		}
	}
	return fmt.Errorf("%w: %q on %s", ErrUnavailable, match, site)
}

// BestMatchFreebet implements Engine.
func (r *Replay) BestMatchFreebet(ctx context.Context, _ FreebetArgs) error {
	return r.print(ctx, ReportFreebet)
}

// BestMatchCashback implements Engine.
func (r *Replay) BestMatchCashback(ctx context.Context, _ CashbackArgs) error {
	return r.print(ctx, ReportCashback)
}

// BestMatchesCombine implements Engine.
func (r *Replay) BestMatchesCombine(ctx context.Context, _ CombineArgs) error {
	return r.print(ctx, ReportCombine)
}

// BestMatchStakesToBet implements Engine.
func (r *Replay) BestMatchStakesToBet(ctx context.Context, _ StakesToBetArgs) error {
	return r.print(ctx, ReportStakesToBet)
}

// BestMatchesFreebet implements Engine.
func (r *Replay) BestMatchesFreebet(ctx context.Context, _ FreebetsArgs) error {
	return r.print(ctx, ReportFreebets)
}

// BestMatchPariGagnant implements Engine.
func (r *Replay) BestMatchPariGagnant(ctx context.Context, _ PariGagnantArgs) error {
	return r.print(ctx, ReportPariGagnant)
}

// BestCombineBoosted implements Engine.
func (r *Replay) BestCombineBoosted(ctx context.Context, _ CombineBoostedArgs) error {
	return r.print(ctx, ReportCombineBoosted)
}

// OutcomeCount implements Engine.
func (r *Replay) OutcomeCount(sport string) int {
	if threeWaySports[sport] {
		return 3
	}
	return 2
}

// MatchOdds implements OddsStore.
func (r *Replay) MatchOdds(_ context.Context, sport string, match string) (*MatchOdds, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mo, ok := r.odds[sport][match]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownMatch, sport, match)
	}

	odds := make([]report.BookmakerOdds, len(mo.Odds))
	copy(odds, mo.Odds)
	return &MatchOdds{Odds: odds, Date: mo.Date}, nil
}

// DeleteMatch implements OddsStore.
func (r *Replay) DeleteMatch(_ context.Context, sport string, match string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.odds[sport][match]; !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnknownMatch, sport, match)
	}
	delete(r.odds[sport], match)

	r.logger.Info("replay-match-deleted",
		zap.String("sport", sport),
		zap.String("match", match))
	return nil
}

// Matches implements OddsStore. Names are sorted.
func (r *Replay) Matches(_ context.Context, sport string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]string, 0, len(r.odds[sport]))
	for m := range r.odds[sport] {
		matches = append(matches, m)
	}
	sort.Strings(matches)
	return matches, nil
}
