package scenario

import (
	"context"
	"strconv"

	"github.com/mselser95/betview/internal/engine"
	"github.com/mselser95/betview/internal/view"
)

// Name identifies a scenario in URLs and logs.
type Name string

// Scenario names.
const (
	UnderConditions Name = "under-conditions"
	Stake           Name = "stake"
	Freebet         Name = "freebet"
	Cashback        Name = "cashback"
	Combine         Name = "combine"
	StakesToBet     Name = "stakes-to-bet"
	Freebets        Name = "freebets"
	PariGagnant     Name = "pari-gagnant"
	CombineBoosted  Name = "combine-boosted"
)

// User-facing messages.
const (
	MessageNoMatch          = "Aucun match trouvé"
	MessageOddTooHigh       = "Cote trop élevée pour le match choisi"
	MessageSelectionMissing = "Site ou match non défini"
	MessageInvalidInput     = "Mise ou cote invalide"
	MessageUnavailable      = "Match non disponible sur "
)

// Reaction is what a scenario does with one kind of caller-side failure.
type Reaction int

const (
	// Propagate returns the error to the caller.
	Propagate Reaction = iota
	// Ignore drops the invocation without touching any slot.
	Ignore
	// Notify shows a popup and returns no error.
	Notify
)

// Policy maps failure kinds to reactions.
type Policy struct {
	Selection   Reaction
	Input       Reaction
	Unavailable Reaction
}

func (p Policy) reaction(kind failureKind) Reaction {
	switch kind {
	case failureSelection:
		return p.Selection
	case failureInput:
		return p.Input
	case failureUnavailable:
		return p.Unavailable
	default:
		return Propagate
	}
}

// Mirror says when a scenario publishes its report to the last-report store.
type Mirror int

const (
	MirrorNever Mirror = iota
	MirrorAlways
	// MirrorFound only publishes reports that found a match.
	MirrorFound
)

// invocation is a fully coerced engine call.
type invocation struct {
	site string
	opts view.Options
	call func(ctx context.Context, eng engine.Engine) error
}

type prepareFunc func(f Form, eng engine.Engine) (*invocation, error)

// Scenario describes one betting strategy flow.
type Scenario struct {
	Name     Name
	Suffix   string
	Layout   view.OddsLayout
	Fallback string
	// NotFoundInText treats any mention of the sentinel as not found, before
	// parsing.
	NotFoundInText bool
	Mirror         Mirror
	Policy         Policy

	prepare prepareFunc
}

//nolint:gochecknoglobals // read-only scenario table
var scenarios = []*Scenario{
	{
		Name:     UnderConditions,
		Suffix:   "UNDER_CONDITION",
		Layout:   view.SingleOdds,
		Fallback: MessageNoMatch,
		Policy:   Policy{Selection: Ignore, Input: Ignore},
		prepare:  prepareUnderConditions,
	},
	{
		Name:           Stake,
		Suffix:         "STAKE",
		Layout:         view.SingleOdds,
		Fallback:       MessageOddTooHigh,
		NotFoundInText: true,
		Policy:         Policy{Selection: Notify, Input: Notify, Unavailable: Notify},
		prepare:        prepareStake,
	},
	{
		Name:     Freebet,
		Suffix:   "FREEBET",
		Layout:   view.SingleOdds,
		Fallback: MessageNoMatch,
		Policy:   Policy{Selection: Ignore, Input: Ignore, Unavailable: Ignore},
		prepare:  prepareFreebet,
	},
	{
		Name:     Cashback,
		Suffix:   "CASHBACK",
		Layout:   view.SingleOdds,
		Fallback: MessageNoMatch,
		Policy:   Policy{Selection: Ignore},
		prepare:  prepareCashback,
	},
	{
		Name:     Combine,
		Suffix:   "COMBINE",
		Layout:   view.CombinationOdds,
		Fallback: MessageNoMatch,
		Mirror:   MirrorAlways,
		Policy:   Policy{Selection: Ignore, Input: Ignore},
		prepare:  prepareCombine,
	},
	{
		Name:     StakesToBet,
		Suffix:   "STAKES",
		Layout:   view.CombinationOdds,
		Fallback: MessageNoMatch,
		Mirror:   MirrorAlways,
		prepare:  prepareStakesToBet,
	},
	{
		Name:     Freebets,
		Suffix:   "FREEBETS",
		Layout:   view.CombinationOdds,
		Fallback: MessageNoMatch,
		Mirror:   MirrorAlways,
		prepare:  prepareFreebets,
	},
	{
		Name:     PariGagnant,
		Suffix:   "GAGNANT",
		Layout:   view.SwitchableOdds,
		Fallback: MessageNoMatch,
		Mirror:   MirrorFound,
		Policy:   Policy{Selection: Ignore, Input: Ignore},
		prepare:  preparePariGagnant,
	},
	{
		Name:     CombineBoosted,
		Suffix:   "COMBI_OPT",
		Layout:   view.CombinationOdds,
		Fallback: MessageNoMatch,
		Mirror:   MirrorAlways,
		prepare:  prepareCombineBoosted,
	},
}

// All returns every scenario in display order.
func All() []*Scenario {
	out := make([]*Scenario, len(scenarios))
	copy(out, scenarios)
	return out
}

// Lookup finds a scenario by name.
func Lookup(name Name) (*Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

func prepareUnderConditions(f Form, _ engine.Engine) (*invocation, error) {
	const s = "UNDER_CONDITION"

	site, err := f.Selected("SITE_" + s)
	if err != nil {
		return nil, err
	}
	bet, err := f.Float("BET_" + s)
	if err != nil {
		return nil, err
	}
	minOdd, err := f.Float("ODD_" + s)
	if err != nil {
		return nil, err
	}
	sport, err := f.Selected("SPORT_" + s)
	if err != nil {
		return nil, err
	}

	args := engine.UnderConditionsArgs{
		Site:    site,
		MinOdd:  minOdd,
		Bet:     bet,
		Sport:   sport,
		Range:   f.DateRange(s),
		OneSite: f.Flag("ONE_SITE_" + s),
	}
	return &invocation{
		site: site,
		call: func(ctx context.Context, eng engine.Engine) error {
			return eng.BestMatchUnderConditions(ctx, args)
		},
	}, nil
}

func prepareStake(f Form, _ engine.Engine) (*invocation, error) {
	const s = "STAKE"

	site, err := f.Selected("SITE_" + s)
	if err != nil {
		return nil, err
	}
	bet, err := f.Float("BET_" + s)
	if err != nil {
		return nil, err
	}
	minOdd, err := f.Float("ODD_" + s)
	if err != nil {
		return nil, err
	}
	sport, err := f.Selected("SPORT_" + s)
	if err != nil {
		return nil, err
	}
	match, err := f.Selected("MATCHES")
	if err != nil {
		return nil, err
	}

	args := engine.StakeArgs{Match: match, Site: site, Bet: bet, MinOdd: minOdd, Sport: sport}
	return &invocation{
		site: site,
		call: func(ctx context.Context, eng engine.Engine) error {
			return eng.BestStakesMatch(ctx, args)
		},
	}, nil
}

func prepareFreebet(f Form, _ engine.Engine) (*invocation, error) {
	const s = "FREEBET"

	site, err := f.Selected("SITE_" + s)
	if err != nil {
		return nil, err
	}
	freebet, err := f.Float("BET_" + s)
	if err != nil {
		return nil, err
	}
	sport, err := f.Selected("SPORT_" + s)
	if err != nil {
		return nil, err
	}

	args := engine.FreebetArgs{Site: site, Freebet: freebet, Sport: sport}
	return &invocation{
		site: site,
		call: func(ctx context.Context, eng engine.Engine) error {
			return eng.BestMatchFreebet(ctx, args)
		},
	}, nil
}

func prepareCashback(f Form, _ engine.Engine) (*invocation, error) {
	const s = "CASHBACK"

	site, err := f.Selected("SITE_" + s)
	if err != nil {
		return nil, err
	}
	bet, err := f.Float("BET_" + s)
	if err != nil {
		return nil, err
	}
	minOdd, err := f.Float("ODD_" + s)
	if err != nil {
		return nil, err
	}
	sport, err := f.Selected("SPORT_" + s)
	if err != nil {
		return nil, err
	}
	freebet, err := f.Float("FREEBET_" + s)
	if err != nil {
		return nil, err
	}
	combiMax, err := f.Percent("COMBI_MAX_" + s)
	if err != nil {
		return nil, err
	}
	combiOdd, err := f.Float("COMBI_ODD_" + s)
	if err != nil {
		return nil, err
	}
	rate, err := f.Percent("RATE_" + s)
	if err != nil {
		return nil, err
	}

	args := engine.CashbackArgs{
		Site:         site,
		MinOdd:       minOdd,
		Bet:          bet,
		Sport:        sport,
		Freebet:      freebet,
		CombiMax:     combiMax,
		CombiOdd:     combiOdd,
		RateCashback: rate,
		Range:        f.DateRange(s),
	}
	return &invocation{
		site: site,
		call: func(ctx context.Context, eng engine.Engine) error {
			return eng.BestMatchCashback(ctx, args)
		},
	}, nil
}

func prepareCombine(f Form, _ engine.Engine) (*invocation, error) {
	const s = "COMBINE"

	site, err := f.Selected("SITE_" + s)
	if err != nil {
		return nil, err
	}
	bet, err := f.Float("BET_" + s)
	if err != nil {
		return nil, err
	}
	minOdd, err := f.Float("ODD_" + s)
	if err != nil {
		return nil, err
	}
	minOddSelection, err := f.Float("ODD_SELECTION_" + s)
	if err != nil {
		return nil, err
	}
	sport, err := f.Selected("SPORT_" + s)
	if err != nil {
		return nil, err
	}
	nbMatches, err := f.Int("NB_MATCHES_" + s)
	if err != nil {
		return nil, err
	}

	args := engine.CombineArgs{
		Site:            site,
		MinOdd:          minOdd,
		Bet:             bet,
		Sport:           sport,
		NbMatches:       nbMatches,
		OneSite:         f.Flag("ONE_SITE_" + s),
		Range:           f.DateRange(s),
		MinOddSelection: minOddSelection,
	}
	return &invocation{
		site: site,
		call: func(ctx context.Context, eng engine.Engine) error {
			return eng.BestMatchesCombine(ctx, args)
		},
	}, nil
}

func prepareStakesToBet(f Form, _ engine.Engine) (*invocation, error) {
	const s = "STAKES"

	nbMatches, err := f.Int("NB_MATCHES_" + s)
	if err != nil {
		return nil, err
	}
	visible, err := f.IntOr("VISIBLE_"+s, 1)
	if err != nil {
		return nil, err
	}

	stakes := make([]engine.StakeEntry, 0, visible)
	for i := range visible {
		idx := strconv.Itoa(i)
		stake, err := f.Float("STAKE_" + s + "_" + idx)
		if err != nil {
			return nil, err
		}
		site, err := f.Selected("SITE_" + s + "_" + idx)
		if err != nil {
			return nil, err
		}
		odd, err := f.Float("ODD_" + s + "_" + idx)
		if err != nil {
			return nil, err
		}
		stakes = append(stakes, engine.StakeEntry{Stake: stake, Site: site, Odd: odd})
	}

	sport, err := f.Selected("SPORT_" + s)
	if err != nil {
		return nil, err
	}
	bounds := f.DateRange(s)

	args := engine.StakesToBetArgs{
		Stakes:    stakes,
		NbMatches: nbMatches,
		Sport:     sport,
		DateMax:   bounds.DateMax,
		TimeMax:   bounds.TimeMax,
	}
	return &invocation{
		call: func(ctx context.Context, eng engine.Engine) error {
			return eng.BestMatchStakesToBet(ctx, args)
		},
	}, nil
}

func prepareFreebets(f Form, _ engine.Engine) (*invocation, error) {
	const s = "FREEBETS"

	visible, err := f.IntOr("VISIBLE_"+s, 1)
	if err != nil {
		return nil, err
	}

	freebets := make([]engine.FreebetEntry, 0, visible)
	for i := range visible {
		idx := strconv.Itoa(i)
		amount, err := f.Float("STAKE_" + s + "_" + idx)
		if err != nil {
			return nil, err
		}
		site, err := f.Selected("SITE_" + s + "_" + idx)
		if err != nil {
			return nil, err
		}
		freebets = append(freebets, engine.FreebetEntry{Amount: amount, Site: site})
	}

	args := engine.FreebetsArgs{
		Sites:    f.Selections("SITES_" + s),
		Freebets: freebets,
	}
	return &invocation{
		call: func(ctx context.Context, eng engine.Engine) error {
			return eng.BestMatchesFreebet(ctx, args)
		},
	}, nil
}

func preparePariGagnant(f Form, _ engine.Engine) (*invocation, error) {
	const s = "GAGNANT"

	site, err := f.Selected("SITE_" + s)
	if err != nil {
		return nil, err
	}
	bet, err := f.Float("BET_" + s)
	if err != nil {
		return nil, err
	}
	minOdd, err := f.Float("ODD_" + s)
	if err != nil {
		return nil, err
	}
	sport, err := f.Selected("SPORT_" + s)
	if err != nil {
		return nil, err
	}
	nbMatches, err := f.Int("NB_MATCHES_" + s)
	if err != nil {
		return nil, err
	}

	args := engine.PariGagnantArgs{
		Site:             site,
		MinOdd:           minOdd,
		Bet:              bet,
		Sport:            sport,
		Range:            f.DateRange(s),
		NbMatchesCombine: nbMatches,
	}
	return &invocation{
		site: site,
		opts: view.Options{CombineCount: nbMatches},
		call: func(ctx context.Context, eng engine.Engine) error {
			return eng.BestMatchPariGagnant(ctx, args)
		},
	}, nil
}

// outcomeLabels are the result checkboxes of a boosted combination leg.
func outcomeLabels(count int) []string {
	if count == 3 {
		return []string{"1", "N", "2"}
	}
	return []string{"1", "2"}
}

func prepareCombineBoosted(f Form, eng engine.Engine) (*invocation, error) {
	const s = "COMBI_OPT"

	sport, err := f.Selected("SPORT_" + s)
	if err != nil {
		return nil, err
	}
	visible, err := f.IntOr("VISIBLE_"+s, 1)
	if err != nil {
		return nil, err
	}

	labels := outcomeLabels(eng.OutcomeCount(sport))
	matches := make([]string, 0, visible)
	outcomes := make([]int, 0, visible)
	for i := range visible {
		idx := strconv.Itoa(i)
		match, err := f.Selected("MATCH_" + s + "_" + idx)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
		for j, label := range labels {
			if f.Flag(label + "_RES_" + s + "_" + idx) {
				outcomes = append(outcomes, j)
				break
			}
		}
	}

	site, err := f.Selected("SITE_" + s)
	if err != nil {
		return nil, err
	}
	maxStake, err := f.Float("STAKE_" + s)
	if err != nil {
		return nil, err
	}
	boosted, err := f.Float("ODD_" + s)
	if err != nil {
		return nil, err
	}

	args := engine.CombineBoostedArgs{
		Matches:    matches,
		Outcomes:   outcomes,
		Site:       site,
		MaxStake:   maxStake,
		Sport:      sport,
		BoostedOdd: boosted,
	}
	return &invocation{
		site: site,
		call: func(ctx context.Context, eng engine.Engine) error {
			return eng.BestCombineBoosted(ctx, args)
		},
	}, nil
}
