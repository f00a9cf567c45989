package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mselser95/betview/internal/capture"
	"github.com/mselser95/betview/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testOdds = `{
  "football": {
    "Lyon - Nice": {
      "date": "2020-05-17T21:00:00Z",
      "odds": [
        {"bookmaker": "winamax", "odds": [1.5, 3.2, 5]},
        {"bookmaker": "betclic", "odds": [1.45, 3.3, 5.5]}
      ]
    },
    "Lille - Lens": {
      "odds": [{"bookmaker": "unibet", "odds": [2.0, 3.0, 3.5]}]
    }
  }
}`

func newTestReplay(t *testing.T, files map[string]string) *Replay {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	r, err := NewReplay(&ReplayConfig{Dir: dir, Logger: zap.NewNop()})
	require.NoError(t, err)
	return r
}

func TestReplay_PrintsReportToStdout(t *testing.T) {
	r := newTestReplay(t, map[string]string{
		ReportCombine + ".txt": "No match found\n",
	})

	out, err := capture.Stdout(func() error {
		return r.BestMatchesCombine(context.Background(), CombineArgs{})
	})

	require.NoError(t, err)
	assert.Equal(t, "No match found\n", out)
}

func TestReplay_MissingReport(t *testing.T) {
	r := newTestReplay(t, nil)

	_, err := capture.Stdout(func() error {
		return r.BestMatchFreebet(context.Background(), FreebetArgs{})
	})
	assert.ErrorContains(t, err, "read freebet report")
}

func TestReplay_CancelledContext(t *testing.T) {
	r := newTestReplay(t, map[string]string{ReportCashback + ".txt": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.BestMatchCashback(ctx, CashbackArgs{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReplay_StakeAvailability(t *testing.T) {
	r := newTestReplay(t, map[string]string{
		oddsFileName:         testOdds,
		ReportStake + ".txt": "No match found\n",
	})
	ctx := context.Background()

	tests := []struct {
		name    string
		args    StakeArgs
		wantErr bool
	}{
		{name: "quoted-by-site", args: StakeArgs{Match: "Lyon - Nice", Site: "winamax", Sport: "football"}},
		{name: "site-missing", args: StakeArgs{Match: "Lyon - Nice", Site: "unibet", Sport: "football"}, wantErr: true},
		{name: "match-missing", args: StakeArgs{Match: "PSG - OM", Site: "winamax", Sport: "football"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := capture.Stdout(func() error {
				return r.BestStakesMatch(ctx, tt.args)
			})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnavailable)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestReplay_OddsStore(t *testing.T) {
	r := newTestReplay(t, map[string]string{oddsFileName: testOdds})
	ctx := context.Background()

	matches, err := r.Matches(ctx, "football")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lille - Lens", "Lyon - Nice"}, matches)

	mo, err := r.MatchOdds(ctx, "football", "Lyon - Nice")
	require.NoError(t, err)
	require.NotNil(t, mo.Date)
	assert.Equal(t, "winamax", mo.Odds[0].Bookmaker)
	assert.Equal(t, report.Table{
		{"betclic", "1.45", "3.3", "5.5"},
		{"winamax", "1.5", "3.2", "5"},
	}, report.SortedOddsTable(mo.Odds))

	noDate, err := r.MatchOdds(ctx, "football", "Lille - Lens")
	require.NoError(t, err)
	assert.Nil(t, noDate.Date)

	require.NoError(t, r.DeleteMatch(ctx, "football", "Lyon - Nice"))
	_, err = r.MatchOdds(ctx, "football", "Lyon - Nice")
	assert.ErrorIs(t, err, ErrUnknownMatch)
	assert.ErrorIs(t, r.DeleteMatch(ctx, "football", "Lyon - Nice"), ErrUnknownMatch)

	matches, err = r.Matches(ctx, "football")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lille - Lens"}, matches)
}

func TestReplay_OutcomeCount(t *testing.T) {
	r := newTestReplay(t, nil)
	assert.Equal(t, 3, r.OutcomeCount("football"))
	assert.Equal(t, 2, r.OutcomeCount("tennis"))
}

func TestNewReplay_InvalidOddsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, oddsFileName), []byte("{not json"), 0o600))

	_, err := NewReplay(&ReplayConfig{Dir: dir, Logger: zap.NewNop()})
	assert.ErrorContains(t, err, "decode odds file")
}

func TestNewReplay_UnevenOdds(t *testing.T) {
	dir := t.TempDir()
	odds := `{"football": {"A - B": {"odds": [
		{"bookmaker": "winamax", "odds": [1.5, 2.5, 3.5, 4.5]},
		{"bookmaker": "betclic", "odds": [1.6, 2.4]}
	]}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, oddsFileName), []byte(odds), 0o600))

	_, err := NewReplay(&ReplayConfig{Dir: dir, Logger: zap.NewNop()})
	assert.ErrorContains(t, err, "odds for football/A - B")
}

func TestReplay_Check(t *testing.T) {
	dir := t.TempDir()
	r, err := NewReplay(&ReplayConfig{Dir: dir, Logger: zap.NewNop()})
	require.NoError(t, err)

	require.NoError(t, r.Check(context.Background()))

	require.NoError(t, os.Remove(dir))
	assert.ErrorContains(t, r.Check(context.Background()), "stat replay dir")
}
