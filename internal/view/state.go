package view

import "strconv"

// MaxIndicators is the number of indicator label/value slot pairs per scenario.
const MaxIndicators = 5

// OddsLayout selects which odds slots a scenario owns.
type OddsLayout int

const (
	// SingleOdds shows the per-bookmaker odds table in ODDS_<S>.
	SingleOdds OddsLayout = iota
	// CombinationOdds shows the combination-major table in ODDS_<S>.
	CombinationOdds
	// SwitchableOdds owns both ODDS_<S> and ODDS_COMBINE_<S> and shows one of
	// them depending on how many matches are combined.
	SwitchableOdds
)

func (l OddsLayout) String() string {
	switch l {
	case SingleOdds:
		return "single"
	case CombinationOdds:
		return "combination"
	case SwitchableOdds:
		return "switchable"
	default:
		return "unknown"
	}
}

// IndicatorSlot is one label/value pair of the indicators grid.
type IndicatorSlot struct {
	Label Slot
	Value Slot
}

// State is the bounded set of display slots of one scenario. Only the
// projector mutates it; Apply pushes it to a Window.
type State struct {
	Suffix string
	Layout OddsLayout

	Match       Slot
	Date        Slot
	Odds        Slot
	CombineOdds Slot
	Result      Slot
	Text        Slot
	Indicators  [MaxIndicators]IndicatorSlot
}

// NewState creates the slots for the scenario identified by suffix.
func NewState(suffix string, layout OddsLayout) *State {
	return &State{Suffix: suffix, Layout: layout}
}

// Slot keys.
func (s *State) MatchKey() string       { return "MATCH_" + s.Suffix }
func (s *State) DateKey() string        { return "DATE_" + s.Suffix }
func (s *State) OddsKey() string        { return "ODDS_" + s.Suffix }
func (s *State) CombineOddsKey() string { return "ODDS_COMBINE_" + s.Suffix }
func (s *State) ResultKey() string      { return "RESULT_" + s.Suffix }
func (s *State) TextKey() string        { return "TEXT_" + s.Suffix }

// IndicatorLabelKey returns the key of the i-th indicator label.
func (s *State) IndicatorLabelKey(i int) string {
	return "INDICATORS_" + s.Suffix + strconv.Itoa(i)
}

// IndicatorValueKey returns the key of the i-th indicator value.
func (s *State) IndicatorValueKey(i int) string {
	return "RESULTS_" + s.Suffix + strconv.Itoa(i)
}

// VisibleIndicators counts the indicator rows currently shown.
func (s *State) VisibleIndicators() int {
	n := 0
	for _, ind := range s.Indicators {
		if ind.Label.Visible {
			n++
		}
	}
	return n
}

// Apply writes every slot of the state to w with its explicit visibility.
func (s *State) Apply(w Window) {
	w.Update(s.MatchKey(), s.Match.Value, s.Match.Visible)
	w.Update(s.DateKey(), s.Date.Value, s.Date.Visible)
	w.Update(s.OddsKey(), s.Odds.Value, s.Odds.Visible)
	if s.Layout == SwitchableOdds {
		w.Update(s.CombineOddsKey(), s.CombineOdds.Value, s.CombineOdds.Visible)
	}
	w.Update(s.ResultKey(), s.Result.Value, s.Result.Visible)
	w.Update(s.TextKey(), s.Text.Value, s.Text.Visible)

	for i, ind := range s.Indicators {
		w.Update(s.IndicatorLabelKey(i), ind.Label.Value, ind.Label.Visible)
		w.Update(s.IndicatorValueKey(i), ind.Value.Value, ind.Value.Visible)
	}
}
