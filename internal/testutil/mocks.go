package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/mselser95/betview/internal/engine"
)

// Call is one recorded engine call.
type Call struct {
	Method string
	Args   any
}

// FakeEngine prints a configured report per strategy and records its calls.
type FakeEngine struct {
	mu       sync.Mutex
	reports  map[string]string
	errs     map[string]error
	outcomes int
	calls    []Call
}

// NewFakeEngine creates a fake engine for sports with the given outcome count.
func NewFakeEngine(outcomes int) *FakeEngine {
	return &FakeEngine{
		reports:  make(map[string]string),
		errs:     make(map[string]error),
		outcomes: outcomes,
	}
}

// SetReport sets the text printed for a strategy (engine.Report* names).
func (f *FakeEngine) SetReport(name string, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[name] = text
}

// SetError makes a strategy fail after printing its report.
func (f *FakeEngine) SetError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

// Calls returns the recorded calls.
func (f *FakeEngine) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeEngine) run(name string, args any) error {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Method: name, Args: args})
	text := f.reports[name]
	err := f.errs[name]
	f.mu.Unlock()

	fmt.Fprint(os.Stdout, text)
	return err
}

// BestMatchUnderConditions implements engine.Engine.
func (f *FakeEngine) BestMatchUnderConditions(_ context.Context, args engine.UnderConditionsArgs) error {
	return f.run(engine.ReportUnderConditions, args)
}

// BestStakesMatch implements engine.Engine.
func (f *FakeEngine) BestStakesMatch(_ context.Context, args engine.StakeArgs) error {
	return f.run(engine.ReportStake, args)
}

// BestMatchFreebet implements engine.Engine.
func (f *FakeEngine) BestMatchFreebet(_ context.Context, args engine.FreebetArgs) error {
	return f.run(engine.ReportFreebet, args)
}

// BestMatchCashback implements engine.Engine.
func (f *FakeEngine) BestMatchCashback(_ context.Context, args engine.CashbackArgs) error {
	return f.run(engine.ReportCashback, args)
}

// BestMatchesCombine implements engine.Engine.
func (f *FakeEngine) BestMatchesCombine(_ context.Context, args engine.CombineArgs) error {
	return f.run(engine.ReportCombine, args)
}

// BestMatchStakesToBet implements engine.Engine.
func (f *FakeEngine) BestMatchStakesToBet(_ context.Context, args engine.StakesToBetArgs) error {
	return f.run(engine.ReportStakesToBet, args)
}

// BestMatchesFreebet implements engine.Engine.
func (f *FakeEngine) BestMatchesFreebet(_ context.Context, args engine.FreebetsArgs) error {
	return f.run(engine.ReportFreebets, args)
}

// BestMatchPariGagnant implements engine.Engine.
func (f *FakeEngine) BestMatchPariGagnant(_ context.Context, args engine.PariGagnantArgs) error {
	return f.run(engine.ReportPariGagnant, args)
}

// BestCombineBoosted implements engine.Engine.
func (f *FakeEngine) BestCombineBoosted(_ context.Context, args engine.CombineBoostedArgs) error {
	return f.run(engine.ReportCombineBoosted, args)
}

// OutcomeCount implements engine.Engine.
func (f *FakeEngine) OutcomeCount(string) int {
	return f.outcomes
}
