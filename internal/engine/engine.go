// Package engine describes the arbitrage engine betview drives. The engine
// prints one report per call to os.Stdout; betview never consumes a return
// value other than the error.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/mselser95/betview/internal/report"
)

// ErrUnavailable is returned when the selected match is not offered by the
// selected site.
var ErrUnavailable = errors.New("match not available on site")

// ErrUnknownMatch is returned by odds lookups for a match the store does not hold.
var ErrUnknownMatch = errors.New("unknown match")

// DateRange bounds the kick-off of candidate matches. Empty fields are
// unbounded. Times use the engine's "14h30" format.
type DateRange struct {
	DateMin string
	TimeMin string
	DateMax string
	TimeMax string
}

// UnderConditionsArgs drive the best match for a bet under odds conditions.
type UnderConditionsArgs struct {
	Site    string
	MinOdd  float64
	Bet     float64
	Sport   string
	Range   DateRange
	OneSite bool
}

// StakeArgs drive the best stake split for a chosen match.
type StakeArgs struct {
	Match  string
	Site   string
	Bet    float64
	MinOdd float64
	Sport  string
}

// FreebetArgs drive the best match to convert a freebet.
type FreebetArgs struct {
	Site    string
	Freebet float64
	Sport   string
}

// CashbackArgs drive the best match for a cashback promotion.
type CashbackArgs struct {
	Site         string
	MinOdd       float64
	Bet          float64
	Sport        string
	Freebet      float64
	CombiMax     float64
	CombiOdd     float64
	RateCashback float64
	Range        DateRange
}

// CombineArgs drive the best combination of several matches.
type CombineArgs struct {
	Site            string
	MinOdd          float64
	Bet             float64
	Sport           string
	NbMatches       int
	OneSite         bool
	Range           DateRange
	MinOddSelection float64
}

// StakeEntry is one stake the user must place.
type StakeEntry struct {
	Stake float64
	Site  string
	Odd   float64
}

// StakesToBetArgs drive the best match for a list of required stakes.
type StakesToBetArgs struct {
	Stakes    []StakeEntry
	NbMatches int
	Sport     string
	DateMax   string
	TimeMax   string
}

// FreebetEntry is one freebet to convert.
type FreebetEntry struct {
	Amount float64
	Site   string
}

// FreebetsArgs drive the conversion of several freebets at once.
type FreebetsArgs struct {
	Sites    []string
	Freebets []FreebetEntry
}

// PariGagnantArgs drive the "winning bet" promotion.
type PariGagnantArgs struct {
	Site             string
	MinOdd           float64
	Bet              float64
	Sport            string
	Range            DateRange
	NbMatchesCombine int
}

// CombineBoostedArgs drive the optimal cover of a boosted combination.
type CombineBoostedArgs struct {
	Matches    []string
	Outcomes   []int
	Site       string
	MaxStake   float64
	Sport      string
	BoostedOdd float64
}

// Engine runs one betting strategy per call and prints its report.
type Engine interface {
	BestMatchUnderConditions(ctx context.Context, args UnderConditionsArgs) error
	BestStakesMatch(ctx context.Context, args StakeArgs) error
	BestMatchFreebet(ctx context.Context, args FreebetArgs) error
	BestMatchCashback(ctx context.Context, args CashbackArgs) error
	BestMatchesCombine(ctx context.Context, args CombineArgs) error
	BestMatchStakesToBet(ctx context.Context, args StakesToBetArgs) error
	BestMatchesFreebet(ctx context.Context, args FreebetsArgs) error
	BestMatchPariGagnant(ctx context.Context, args PariGagnantArgs) error
	BestCombineBoosted(ctx context.Context, args CombineBoostedArgs) error

	// OutcomeCount is 3 for sports with a draw, 2 otherwise.
	OutcomeCount(sport string) int
}

// MatchOdds are the stored odds of one match.
type MatchOdds struct {
	Odds []report.BookmakerOdds
	Date *time.Time
}

// OddsStore is the engine's store of known odds.
type OddsStore interface {
	MatchOdds(ctx context.Context, sport string, match string) (*MatchOdds, error)
	DeleteMatch(ctx context.Context, sport string, match string) error
	Matches(ctx context.Context, sport string) ([]string, error)
}
