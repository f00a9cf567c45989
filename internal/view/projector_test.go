package view

import (
	"testing"
	"time"

	"github.com/mselser95/betview/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	stakesMarker = "Répartition des mises (les totaux affichés prennent en compte les éventuels freebets):\n"

	twoWayReport = "Team A vs Team B\n" +
		"{'odds': {'SiteX': [2.1, 1.8]}, 'date': datetime.datetime(2021, 3, 14, 20, 45)}\n" +
		"}}\n" +
		"ev = 12.5\n" +
		"\n" +
		stakesMarker +
		"10.00€ sur SiteX"

	manyIndicatorsReport = "Lyon - Nice\n" +
		"{'date': datetime.datetime(2020, 5, 17, 21, 0), 'odds': {'winamax': [1.6, 3.8, 5.0]}}\n" +
		"plus-value = 1\n" +
		"somme des mises = 2\n" +
		"gain min = 3\n" +
		"gain max = 4\n" +
		"cote = 5\n" +
		"extra = 6\n" +
		"\n" +
		stakesMarker +
		"winamax: 100\n"

	combineReport = "Lyon - Nice / Lille - Lens\n" +
		"{'date': datetime.datetime(2020, 5, 17, 21, 0),\n" +
		" 'odds': {'winamax': [1.5, 2.5], 'betclic': [1.4, 2.6]}}\n" +
		"plus-value = 2.1\n" +
		"\n" +
		stakesMarker +
		"Lyon / Lille\twinamax: 10\n" +
		"Nice / Lens\tbetclic: 8\n" +
		"Total\t18\n"
)

func mustParse(t *testing.T, text string) *report.Report {
	t.Helper()
	r, err := report.Parse(text)
	require.NoError(t, err)
	return r
}

func TestProjector_FoundMatchesEndToEndExample(t *testing.T) {
	board := NewBoard()
	state := NewState("UNDER_CONDITION", SingleOdds)
	p := NewProjector(zap.NewNop())

	err := p.Found(board, state, mustParse(t, twoWayReport), Options{})
	require.NoError(t, err)

	match, _ := board.Slot("MATCH_UNDER_CONDITION")
	assert.Equal(t, Slot{Value: "Team A vs Team B", Visible: true}, match)

	odds, _ := board.Slot("ODDS_UNDER_CONDITION")
	assert.True(t, odds.Visible)
	assert.Equal(t, report.Table{{"SiteX", "2.1", "-   ", "1.8"}}, odds.Value)

	result, _ := board.Slot("RESULT_UNDER_CONDITION")
	assert.Equal(t, Slot{Value: "10.00€ sur SiteX", Visible: true}, result)

	label, _ := board.Slot("INDICATORS_UNDER_CONDITION0")
	value, _ := board.Slot("RESULTS_UNDER_CONDITION0")
	assert.Equal(t, Slot{Value: "Ev", Visible: true}, label)
	assert.Equal(t, Slot{Value: "12.5", Visible: true}, value)

	for i := 1; i < MaxIndicators; i++ {
		hidden, ok := board.Slot(state.IndicatorLabelKey(i))
		require.True(t, ok, "indicator %d must be written explicitly", i)
		assert.False(t, hidden.Visible)
	}
	assert.Equal(t, 1, state.VisibleIndicators())

	_, hasCombine := board.Slot("ODDS_COMBINE_UNDER_CONDITION")
	assert.False(t, hasCombine)
}

func TestProjector_NotFoundHidesEverything(t *testing.T) {
	board := NewBoard()
	state := NewState("CASHBACK", SingleOdds)
	p := NewProjector(zap.NewNop())

	require.NoError(t, p.Found(board, state, mustParse(t, manyIndicatorsReport), Options{}))
	p.NotFound(board, state, "Aucun match trouvé")

	match, _ := board.Slot("MATCH_CASHBACK")
	assert.Equal(t, Slot{Value: "Aucun match trouvé", Visible: true}, match)

	date, _ := board.Slot("DATE_CASHBACK")
	assert.Equal(t, "", date.Value)

	for _, key := range []string{"ODDS_CASHBACK", "RESULT_CASHBACK", "TEXT_CASHBACK"} {
		slot, ok := board.Slot(key)
		require.True(t, ok)
		assert.False(t, slot.Visible, key)
	}
	for i := 0; i < MaxIndicators; i++ {
		label, _ := board.Slot(state.IndicatorLabelKey(i))
		value, _ := board.Slot(state.IndicatorValueKey(i))
		assert.False(t, label.Visible)
		assert.False(t, value.Visible)
	}
	assert.Zero(t, state.VisibleIndicators())
}

func TestProjector_IndicatorsAreBounded(t *testing.T) {
	board := NewBoard()
	state := NewState("FREEBET", SingleOdds)
	p := NewProjector(zap.NewNop())

	require.NoError(t, p.Found(board, state, mustParse(t, manyIndicatorsReport), Options{}))

	assert.Equal(t, MaxIndicators, state.VisibleIndicators())
	last, _ := board.Slot("INDICATORS_FREEBET4")
	assert.Equal(t, "Cote", last.Value)
	_, overflow := board.Slot("INDICATORS_FREEBET5")
	assert.False(t, overflow)
}

func TestProjector_StaleIndicatorsAreHidden(t *testing.T) {
	board := NewBoard()
	state := NewState("COMBINE", CombinationOdds)
	p := NewProjector(zap.NewNop())

	long := NewState("COMBINE", CombinationOdds)
	long.Indicators[3] = IndicatorSlot{Label: Slot{Value: "Old", Visible: true}, Value: Slot{Value: "1", Visible: true}}
	long.Apply(board)

	require.NoError(t, p.Found(board, state, mustParse(t, combineReport), Options{}))

	stale, _ := board.Slot("INDICATORS_COMBINE3")
	assert.False(t, stale.Visible)
	assert.Equal(t, 1, state.VisibleIndicators())
}

func TestProjector_CombinationLayout(t *testing.T) {
	board := NewBoard()
	state := NewState("COMBINE", CombinationOdds)
	p := NewProjector(zap.NewNop())

	require.NoError(t, p.Found(board, state, mustParse(t, combineReport), Options{}))

	odds, _ := board.Slot("ODDS_COMBINE")
	assert.True(t, odds.Visible)
	assert.Equal(t, report.Table{
		{report.CombinationHeader, "winamax", "betclic"},
		{"Lyon / Lille", "1.5", "1.4"},
		{"Nice / Lens", "2.5", "2.6"},
	}, odds.Value)
}

func TestProjector_SwitchableLayout(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		combineCount int
		wantSingle   bool
		wantCombined bool
	}{
		{name: "single-match", text: twoWayReport, combineCount: 1, wantSingle: true},
		{name: "combined-matches", text: combineReport, combineCount: 2, wantCombined: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := NewBoard()
			state := NewState("GAGNANT", SwitchableOdds)
			p := NewProjector(zap.NewNop())

			require.NoError(t, p.Found(board, state, mustParse(t, tt.text), Options{CombineCount: tt.combineCount}))

			single, _ := board.Slot("ODDS_GAGNANT")
			combined, _ := board.Slot("ODDS_COMBINE_GAGNANT")
			assert.Equal(t, tt.wantSingle, single.Visible)
			assert.Equal(t, tt.wantCombined, combined.Visible)
		})
	}
}

func TestProjector_FoundErrorLeavesWindowUntouched(t *testing.T) {
	board := NewBoard()
	state := NewState("COMBINE", CombinationOdds)
	p := NewProjector(zap.NewNop())

	// One odd per bookmaker cannot line up with three legs.
	text := "A\n{'odds': {'x': [1.5]}}\n\n" + stakesMarker + "l1\t1\nl2\t1\nl3\t1\nTotal\t3\n"
	err := p.Found(board, state, mustParse(t, text), Options{})

	require.Error(t, err)
	assert.True(t, report.IsParseError(err))
	assert.Empty(t, board.Keys())
}

func TestProjector_FoundRejectsNotFoundReport(t *testing.T) {
	p := NewProjector(zap.NewNop())
	err := p.Found(NewBoard(), NewState("STAKE", SingleOdds), mustParse(t, "No match found"), Options{})
	assert.Error(t, err)
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"ev":              "Ev",
		"plus-value":      "Plus-value",
		"SOMME DES MISES": "Somme des mises",
		"économie":        "Économie",
		"":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Capitalize(in), in)
	}
}

func TestShowAndHideMatchOdds(t *testing.T) {
	board := NewBoard()
	date := time.Date(2020, 5, 17, 21, 0, 0, 0, time.UTC)

	ShowMatchOdds(board, "Lyon - Nice", []report.BookmakerOdds{
		{Bookmaker: "winamax", Odds: []report.Number{{Value: 1.5}, {Value: 2.5}}},
		{Bookmaker: "betclic", Odds: []report.Number{{Value: 1.4}, {Value: 2.6}}},
	}, &date)

	table, _ := board.Slot(OddsLookupTableKey)
	assert.Equal(t, "betclic", table.Value.(report.Table)[0][0])
	dateSlot, _ := board.Slot(OddsLookupDateKey)
	assert.Equal(t, Slot{Value: "Sunday 17 May 2020 21:00", Visible: true}, dateSlot)

	ShowMatchOdds(board, "Lyon - Nice", nil, nil)
	dateSlot, _ = board.Slot(OddsLookupDateKey)
	assert.False(t, dateSlot.Visible)

	HideMatchOdds(board)
	for _, key := range []string{OddsLookupTableKey, OddsLookupDateKey, OddsLookupMatchKey, OddsLookupDeleteKey} {
		slot, _ := board.Slot(key)
		assert.False(t, slot.Visible, key)
	}
}
