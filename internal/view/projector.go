// Package view projects parsed reports onto the named display slots of each
// betting scenario.
package view

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mselser95/betview/internal/report"
	"go.uber.org/zap"
)

// Options tune the found branch for one invocation.
type Options struct {
	// CombineCount is the number of matches combined; only SwitchableOdds
	// layouts look at it.
	CombineCount int
}

// Projector writes report facets into scenario states.
type Projector struct {
	logger *zap.Logger
}

// NewProjector creates a projector.
func NewProjector(logger *zap.Logger) *Projector {
	return &Projector{logger: logger}
}

// NotFound shows the fallback message and hides every result slot.
func (p *Projector) NotFound(w Window, s *State, fallback string) {
	s.Match = Slot{Value: fallback, Visible: true}
	s.Date = Slot{Value: "", Visible: true}
	s.Odds = Slot{Visible: false}
	s.CombineOdds = Slot{Visible: false}
	s.Result = Slot{Visible: false}
	s.Text = Slot{Visible: false}
	for i := range s.Indicators {
		s.Indicators[i] = IndicatorSlot{}
	}

	s.Apply(w)
	ProjectionsTotal.WithLabelValues(s.Suffix, "not_found").Inc()

	p.logger.Debug("projection-not-found",
		zap.String("scenario", s.Suffix),
		zap.String("message", fallback))
}

// Found shows the match, its odds, the stake allocation and up to
// MaxIndicators indicators. Indicator slots past the produced count are
// hidden so nothing from a previous invocation stays on screen.
//
// State is only touched once every facet is available: on error the window
// is left as it was.
func (p *Projector) Found(w Window, s *State, r *report.Report, opts Options) error {
	if !r.Found() {
		return fmt.Errorf("project %s: report has no match", s.Suffix)
	}

	var single, combined report.Table
	showCombined := s.Layout == CombinationOdds ||
		(s.Layout == SwitchableOdds && opts.CombineCount > 1)

	if showCombined {
		table, err := r.CombineOddsTable()
		if err != nil {
			return fmt.Errorf("project %s: %w", s.Suffix, err)
		}
		combined = table
	} else {
		single = r.OddsTable()
	}

	s.Match = Slot{Value: r.Match.Name, Visible: true}
	s.Date = Slot{Value: r.Match.FormattedDate(), Visible: true}

	switch s.Layout {
	case SingleOdds:
		s.Odds = Slot{Value: single, Visible: true}
	case CombinationOdds:
		s.Odds = Slot{Value: combined, Visible: true}
	case SwitchableOdds:
		if showCombined {
			s.Odds = Slot{Visible: false}
			s.CombineOdds = Slot{Value: combined, Visible: true}
		} else {
			s.Odds = Slot{Value: single, Visible: true}
			s.CombineOdds = Slot{Visible: false}
		}
	}

	s.Result = Slot{Value: r.Stakes, Visible: true}
	s.Text = Slot{Visible: true}

	shown := 0
	for ind := range r.Indicators() {
		if shown == MaxIndicators {
			break
		}
		s.Indicators[shown] = IndicatorSlot{
			Label: Slot{Value: Capitalize(ind.Label), Visible: true},
			Value: Slot{Value: ind.Value, Visible: true},
		}
		shown++
	}
	for i := shown; i < MaxIndicators; i++ {
		s.Indicators[i] = IndicatorSlot{}
	}

	s.Apply(w)
	ProjectionsTotal.WithLabelValues(s.Suffix, "found").Inc()
	IndicatorsShown.Observe(float64(shown))

	p.logger.Debug("projection-found",
		zap.String("scenario", s.Suffix),
		zap.String("match", r.Match.Name),
		zap.Bool("combined-odds", showCombined),
		zap.Int("indicators", shown))

	return nil
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
