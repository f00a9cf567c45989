package scenario

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mselser95/betview/internal/engine"
	"github.com/mselser95/betview/internal/report"
	"github.com/mselser95/betview/internal/storage"
	"github.com/mselser95/betview/internal/testutil"
	"github.com/mselser95/betview/internal/view"
	"github.com/mselser95/betview/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	orch    *Orchestrator
	engine  *testutil.FakeEngine
	board   *view.Board
	cache   *cache.RistrettoCache
	storage *storage.ConsoleStorage
}

func newHarness(t *testing.T, strict bool) *harness {
	t.Helper()

	c, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	eng := testutil.NewFakeEngine(3)
	board := view.NewBoard()
	store := storage.NewConsoleStorage(zap.NewNop(), storage.WithOutput(&bytes.Buffer{}))

	orch := New(&Config{
		Engine:  eng,
		Window:  board,
		Cache:   c,
		Storage: store,
		Strict:  strict,
		Logger:  zap.NewNop(),
	})
	return &harness{orch: orch, engine: eng, board: board, cache: c, storage: store}
}

func (h *harness) slot(t *testing.T, key string) view.Slot {
	t.Helper()
	s, ok := h.board.Slot(key)
	require.True(t, ok, "slot %s not written", key)
	return s
}

func underConditionsForm() Form {
	return Form{
		"SITE_UNDER_CONDITION":          []string{"winamax"},
		"BET_UNDER_CONDITION":           "10",
		"ODD_UNDER_CONDITION":           "1.5",
		"SPORT_UNDER_CONDITION":         []string{"football"},
		"DATE_MIN_UNDER_CONDITION_BOOL": true,
		"DATE_MIN_UNDER_CONDITION":      "01/03/2021",
		"TIME_MIN_UNDER_CONDITION":      "14:30",
		"ONE_SITE_UNDER_CONDITION":      true,
	}
}

func stakeForm() Form {
	return Form{
		"SITE_STAKE":  []string{"winamax"},
		"BET_STAKE":   "10",
		"ODD_STAKE":   "1.5",
		"SPORT_STAKE": []string{"football"},
		"MATCHES":     []string{"Paris SG - Marseille"},
	}
}

func TestRun_FoundProjection(t *testing.T) {
	h := newHarness(t, false)
	h.engine.SetReport(engine.ReportUnderConditions, testutil.SimpleReport)

	out, err := h.orch.Run(context.Background(), UnderConditions, underConditionsForm())
	require.NoError(t, err)

	assert.Equal(t, BranchFound, out.Branch)
	assert.Equal(t, "Team A vs Team B", out.Match)
	assert.NotEmpty(t, out.ID)

	assert.Equal(t, view.Slot{Value: "Team A vs Team B", Visible: true}, h.slot(t, "MATCH_UNDER_CONDITION"))
	assert.Equal(t, view.Slot{Value: "Sunday 14 March 2021 20:45", Visible: true}, h.slot(t, "DATE_UNDER_CONDITION"))
	assert.Equal(t, view.Slot{
		Value:   report.Table{{"SiteX", "2.1", "-   ", "1.8"}},
		Visible: true,
	}, h.slot(t, "ODDS_UNDER_CONDITION"))
	assert.Equal(t, view.Slot{Value: "10.00€ sur SiteX", Visible: true}, h.slot(t, "RESULT_UNDER_CONDITION"))
	assert.True(t, h.slot(t, "TEXT_UNDER_CONDITION").Visible)
	assert.Equal(t, view.Slot{Value: "Ev", Visible: true}, h.slot(t, "INDICATORS_UNDER_CONDITION0"))
	assert.Equal(t, view.Slot{Value: "12.5", Visible: true}, h.slot(t, "RESULTS_UNDER_CONDITION0"))
	assert.False(t, h.slot(t, "INDICATORS_UNDER_CONDITION1").Visible)

	calls := h.engine.Calls()
	require.Len(t, calls, 1)
	args, ok := calls[0].Args.(engine.UnderConditionsArgs)
	require.True(t, ok)
	assert.Equal(t, engine.UnderConditionsArgs{
		Site:    "winamax",
		MinOdd:  1.5,
		Bet:     10,
		Sport:   "football",
		Range:   engine.DateRange{DateMin: "01/03/2021", TimeMin: "14h30"},
		OneSite: true,
	}, args)

	_, ok = h.orch.LastReport().Get()
	assert.False(t, ok, "under-conditions does not publish its report")

	records, err := h.storage.Recent(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, string(BranchFound), records[0].Branch)
	assert.Equal(t, []report.Indicator{{Label: "ev", Value: "12.5"}}, records[0].Indicators)
}

func TestRun_StaleIndicatorsHidden(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	h.engine.SetReport(engine.ReportUnderConditions, testutil.ThreeWayReport)
	_, err := h.orch.Run(ctx, UnderConditions, underConditionsForm())
	require.NoError(t, err)
	for i := range view.MaxIndicators {
		assert.True(t, h.slot(t, fmt.Sprintf("INDICATORS_UNDER_CONDITION%d", i)).Visible)
	}
	_, written := h.board.Slot("INDICATORS_UNDER_CONDITION5")
	assert.False(t, written, "at most five indicator slots")

	h.engine.SetReport(engine.ReportUnderConditions, testutil.SimpleReport)
	_, err = h.orch.Run(ctx, UnderConditions, underConditionsForm())
	require.NoError(t, err)

	assert.True(t, h.slot(t, "INDICATORS_UNDER_CONDITION0").Visible)
	for i := 1; i < view.MaxIndicators; i++ {
		assert.False(t, h.slot(t, fmt.Sprintf("INDICATORS_UNDER_CONDITION%d", i)).Visible)
		assert.False(t, h.slot(t, fmt.Sprintf("RESULTS_UNDER_CONDITION%d", i)).Visible)
	}
}

func TestRun_NotFound(t *testing.T) {
	h := newHarness(t, false)
	h.engine.SetReport(engine.ReportCombine, testutil.NotFoundReport)

	form := Form{
		"SITE_COMBINE":          []string{"winamax"},
		"BET_COMBINE":           "10",
		"ODD_COMBINE":           "2",
		"ODD_SELECTION_COMBINE": "1.1",
		"SPORT_COMBINE":         []string{"football"},
		"NB_MATCHES_COMBINE":    "2",
	}

	out, err := h.orch.Run(context.Background(), Combine, form)
	require.NoError(t, err)
	assert.Equal(t, BranchNotFound, out.Branch)

	assert.Equal(t, view.Slot{Value: MessageNoMatch, Visible: true}, h.slot(t, "MATCH_COMBINE"))
	assert.Equal(t, view.Slot{Value: "", Visible: true}, h.slot(t, "DATE_COMBINE"))
	for _, key := range []string{"ODDS_COMBINE", "RESULT_COMBINE", "TEXT_COMBINE"} {
		assert.False(t, h.slot(t, key).Visible, key)
	}
	for i := range view.MaxIndicators {
		assert.False(t, h.slot(t, fmt.Sprintf("INDICATORS_COMBINE%d", i)).Visible)
		assert.False(t, h.slot(t, fmt.Sprintf("RESULTS_COMBINE%d", i)).Visible)
	}

	entry, ok := h.orch.LastReport().Get()
	require.True(t, ok)
	assert.Equal(t, string(Combine), entry.Scenario)
	assert.False(t, entry.Report.Found())
}

func TestRun_CombinationPublishesLastReport(t *testing.T) {
	h := newHarness(t, false)
	h.engine.SetReport(engine.ReportStakesToBet, testutil.CombineReport)

	form := Form{
		"NB_MATCHES_STAKES": "2",
		"VISIBLE_STAKES":    2,
		"STAKE_STAKES_0":    "10",
		"SITE_STAKES_0":     "winamax",
		"ODD_STAKES_0":      "2.5",
		"STAKE_STAKES_1":    "5",
		"SITE_STAKES_1":     "betclic",
		"ODD_STAKES_1":      "3",
		"SPORT_STAKES":      []string{"football"},
	}

	out, err := h.orch.Run(context.Background(), StakesToBet, form)
	require.NoError(t, err)
	assert.Equal(t, BranchFound, out.Branch)

	want := report.Table{
		{report.CombinationHeader, "winamax", "betclic"},
		{"Lyon / Lille", "1.235", "1.2"},
		{"Nice / Lens", "2.5", "2.45"},
	}
	assert.Equal(t, view.Slot{Value: want, Visible: true}, h.slot(t, "ODDS_STAKES"))

	table, err := h.orch.LastReport().Odds()
	require.NoError(t, err)
	assert.Equal(t, want, table)

	args, ok := h.engine.Calls()[0].Args.(engine.StakesToBetArgs)
	require.True(t, ok)
	assert.Equal(t, []engine.StakeEntry{
		{Stake: 10, Site: "winamax", Odd: 2.5},
		{Stake: 5, Site: "betclic", Odd: 3},
	}, args.Stakes)
	assert.Equal(t, 2, args.NbMatches)
}

func TestRun_PariGagnantSwitchesOddsLayout(t *testing.T) {
	form := func(nb string) Form {
		return Form{
			"SITE_GAGNANT":       []string{"winamax"},
			"BET_GAGNANT":        "10",
			"ODD_GAGNANT":        "1.5",
			"SPORT_GAGNANT":      []string{"football"},
			"NB_MATCHES_GAGNANT": nb,
		}
	}

	t.Run("combined", func(t *testing.T) {
		h := newHarness(t, false)
		h.engine.SetReport(engine.ReportPariGagnant, testutil.CombineReport)

		_, err := h.orch.Run(context.Background(), PariGagnant, form("2"))
		require.NoError(t, err)

		assert.False(t, h.slot(t, "ODDS_GAGNANT").Visible)
		assert.True(t, h.slot(t, "ODDS_COMBINE_GAGNANT").Visible)
		_, ok := h.orch.LastReport().Get()
		assert.True(t, ok)
	})

	t.Run("single", func(t *testing.T) {
		h := newHarness(t, false)
		h.engine.SetReport(engine.ReportPariGagnant, testutil.ThreeWayReport)

		_, err := h.orch.Run(context.Background(), PariGagnant, form("1"))
		require.NoError(t, err)

		assert.True(t, h.slot(t, "ODDS_GAGNANT").Visible)
		assert.False(t, h.slot(t, "ODDS_COMBINE_GAGNANT").Visible)
	})

	t.Run("not-found-not-published", func(t *testing.T) {
		h := newHarness(t, false)
		h.engine.SetReport(engine.ReportPariGagnant, testutil.NotFoundReport)

		out, err := h.orch.Run(context.Background(), PariGagnant, form("2"))
		require.NoError(t, err)
		assert.Equal(t, BranchNotFound, out.Branch)
		assert.False(t, h.slot(t, "ODDS_COMBINE_GAGNANT").Visible)

		_, ok := h.orch.LastReport().Get()
		assert.False(t, ok)
	})
}

func TestRun_StakePopups(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(Form)
		engineErr error
		wantPopup string
	}{
		{
			name:      "selection-missing",
			mutate:    func(f Form) { f["SITE_STAKE"] = []string{} },
			wantPopup: MessageSelectionMissing,
		},
		{
			name:      "invalid-bet",
			mutate:    func(f Form) { f["BET_STAKE"] = "dix" },
			wantPopup: MessageInvalidInput,
		},
		{
			name:      "unavailable",
			mutate:    func(Form) {},
			engineErr: fmt.Errorf("%w: Paris SG - Marseille", engine.ErrUnavailable),
			wantPopup: "Match non disponible sur winamax",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, false)
			h.engine.SetReport(engine.ReportStake, testutil.ThreeWayReport)
			if tt.engineErr != nil {
				h.engine.SetError(engine.ReportStake, tt.engineErr)
			}

			form := stakeForm()
			tt.mutate(form)

			out, err := h.orch.Run(context.Background(), Stake, form)
			require.NoError(t, err)
			assert.Equal(t, BranchNotified, out.Branch)
			assert.Equal(t, tt.wantPopup, out.Popup)
			assert.Equal(t, []string{tt.wantPopup}, h.board.Popups())
			assert.Empty(t, h.board.Snapshot("STAKE"))

			records, err := h.storage.Recent(context.Background(), string(Stake), 10)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, tt.wantPopup, records[0].Popup)
		})
	}
}

func TestRun_StakeNotFoundAnywhereInText(t *testing.T) {
	h := newHarness(t, false)
	h.engine.SetReport(engine.ReportStake, "Paris SG - Marseille\nNo match found\n")

	out, err := h.orch.Run(context.Background(), Stake, stakeForm())
	require.NoError(t, err)

	assert.Equal(t, BranchNotFound, out.Branch)
	assert.Equal(t, view.Slot{Value: MessageOddTooHigh, Visible: true}, h.slot(t, "MATCH_STAKE"))
	assert.False(t, h.slot(t, "RESULT_STAKE").Visible)
}

func TestRun_InvalidInputNeverReachesEngine(t *testing.T) {
	tests := []struct {
		name     string
		scenario Name
		form     Form
		wantErr  bool
	}{
		{
			name:     "freebet-selection-ignored",
			scenario: Freebet,
			form:     Form{"BET_FREEBET": "10", "SPORT_FREEBET": []string{"football"}},
		},
		{
			name:     "under-conditions-input-ignored",
			scenario: UnderConditions,
			form: Form{
				"SITE_UNDER_CONDITION":  []string{"winamax"},
				"BET_UNDER_CONDITION":   "ten",
				"ODD_UNDER_CONDITION":   "1.5",
				"SPORT_UNDER_CONDITION": []string{"football"},
			},
		},
		{
			name:     "cashback-input-returned",
			scenario: Cashback,
			form: Form{
				"SITE_CASHBACK":  []string{"winamax"},
				"BET_CASHBACK":   "",
				"ODD_CASHBACK":   "1.5",
				"SPORT_CASHBACK": []string{"football"},
			},
			wantErr: true,
		},
		{
			name:     "freebets-input-returned",
			scenario: Freebets,
			form:     Form{"VISIBLE_FREEBETS": 1, "STAKE_FREEBETS_0": "x", "SITE_FREEBETS_0": "winamax"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, false)

			out, err := h.orch.Run(context.Background(), tt.scenario, tt.form)
			if tt.wantErr {
				var inputErr *InputError
				assert.ErrorAs(t, err, &inputErr)
				assert.Equal(t, BranchFailed, out.Branch)
			} else {
				require.NoError(t, err)
				assert.Equal(t, BranchIgnored, out.Branch)
			}

			assert.Empty(t, h.engine.Calls())
			assert.Empty(t, h.board.Keys())
			assert.Empty(t, h.board.Popups())
		})
	}
}

func TestRun_EngineFailurePropagates(t *testing.T) {
	h := newHarness(t, false)
	boom := errors.New("engine crashed")
	h.engine.SetError(engine.ReportUnderConditions, boom)

	out, err := h.orch.Run(context.Background(), UnderConditions, underConditionsForm())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, BranchFailed, out.Branch)
	assert.Empty(t, h.board.Keys())
}

func TestRun_FreebetUnavailableIgnored(t *testing.T) {
	h := newHarness(t, false)
	h.engine.SetError(engine.ReportFreebet, engine.ErrUnavailable)

	out, err := h.orch.Run(context.Background(), Freebet, Form{
		"SITE_FREEBET":  []string{"winamax"},
		"BET_FREEBET":   "10",
		"SPORT_FREEBET": []string{"football"},
	})
	require.NoError(t, err)
	assert.Equal(t, BranchIgnored, out.Branch)
}

func TestRun_MalformedReport(t *testing.T) {
	t.Run("production-degrades", func(t *testing.T) {
		h := newHarness(t, false)
		h.engine.SetReport(engine.ReportUnderConditions, testutil.MalformedReport)

		out, err := h.orch.Run(context.Background(), UnderConditions, underConditionsForm())
		require.NoError(t, err)
		assert.Equal(t, BranchDegraded, out.Branch)
		assert.Equal(t, view.Slot{Value: MessageNoMatch, Visible: true}, h.slot(t, "MATCH_UNDER_CONDITION"))
		assert.False(t, h.slot(t, "ODDS_UNDER_CONDITION").Visible)
	})

	t.Run("strict-returns", func(t *testing.T) {
		h := newHarness(t, true)
		h.engine.SetReport(engine.ReportUnderConditions, testutil.MalformedReport)

		out, err := h.orch.Run(context.Background(), UnderConditions, underConditionsForm())
		require.Error(t, err)
		assert.True(t, report.IsParseError(err))
		assert.Equal(t, BranchFailed, out.Branch)
		assert.Empty(t, h.board.Keys())
	})
}

func TestRun_CombineBoostedOutcomes(t *testing.T) {
	h := newHarness(t, false)
	h.engine.SetReport(engine.ReportCombineBoosted, testutil.CombineReport)

	form := Form{
		"SPORT_COMBI_OPT":   []string{"football"},
		"VISIBLE_COMBI_OPT": "2",
		"MATCH_COMBI_OPT_0": "Lyon - Nice",
		"N_RES_COMBI_OPT_0": true,
		"MATCH_COMBI_OPT_1": "Lille - Lens",
		"2_RES_COMBI_OPT_1": true,
		"SITE_COMBI_OPT":    []string{"winamax"},
		"STAKE_COMBI_OPT":   "50",
		"ODD_COMBI_OPT":     "4.2",
	}

	out, err := h.orch.Run(context.Background(), CombineBoosted, form)
	require.NoError(t, err)
	assert.Equal(t, BranchFound, out.Branch)

	args, ok := h.engine.Calls()[0].Args.(engine.CombineBoostedArgs)
	require.True(t, ok)
	assert.Equal(t, engine.CombineBoostedArgs{
		Matches:    []string{"Lyon - Nice", "Lille - Lens"},
		Outcomes:   []int{1, 2},
		Site:       "winamax",
		MaxStake:   50,
		Sport:      "football",
		BoostedOdd: 4.2,
	}, args)
}

func TestRun_CachesParsedReports(t *testing.T) {
	h := newHarness(t, false)
	h.engine.SetReport(engine.ReportUnderConditions, testutil.SimpleReport)

	_, err := h.orch.Run(context.Background(), UnderConditions, underConditionsForm())
	require.NoError(t, err)
	h.cache.Wait()

	v, ok := h.cache.Get(cache.TextKey(reportCacheNamespace, testutil.SimpleReport))
	require.True(t, ok)
	r, ok := v.(*report.Report)
	require.True(t, ok)
	assert.Equal(t, testutil.SimpleReport, r.Text)

	out, err := h.orch.Run(context.Background(), UnderConditions, underConditionsForm())
	require.NoError(t, err)
	assert.Equal(t, BranchFound, out.Branch)
}

func TestRun_UnknownScenario(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.orch.Run(context.Background(), Name("lottery"), Form{})
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestScenarioTable(t *testing.T) {
	all := All()
	require.Len(t, all, 9)

	suffixes := make(map[string]bool)
	for _, s := range all {
		assert.False(t, suffixes[s.Suffix], "duplicate suffix %s", s.Suffix)
		suffixes[s.Suffix] = true
		assert.NotNil(t, s.prepare, s.Name)

		found, ok := Lookup(s.Name)
		require.True(t, ok)
		assert.Same(t, s, found)
	}

	stake, _ := Lookup(Stake)
	assert.True(t, stake.NotFoundInText)
	assert.Equal(t, MessageOddTooHigh, stake.Fallback)

	gagnant, _ := Lookup(PariGagnant)
	assert.Equal(t, view.SwitchableOdds, gagnant.Layout)
	assert.Equal(t, MirrorFound, gagnant.Mirror)
}

func TestOutcomeLabels(t *testing.T) {
	assert.Equal(t, []string{"1", "N", "2"}, outcomeLabels(3))
	assert.Equal(t, []string{"1", "2"}, outcomeLabels(2))
}
