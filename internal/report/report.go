// Package report extracts structured facets from the text report the
// arbitrage engine prints for one invocation.
//
// A report looks like:
//
//	Team A vs Team B
//	{'date': datetime.datetime(2020, 5, 17, 21, 0),
//	 'odds': {'betclic': [1.5, 3.9, 2.5], 'winamax': [1.6, 3.8, 2.4]}}
//	plus-value = 1.53
//	somme des mises = 100
//
//	Répartition des mises (les totaux affichés prennent en compte les éventuels freebets):
//	...
//
// The first line is either the match name or NotFoundSentinel.
package report

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"
)

const (
	// NotFoundSentinel is the first line of a report with no qualifying match.
	NotFoundSentinel = "No match found"

	// StakesMarker precedes the stake allocation section.
	StakesMarker = "Répartition des mises (les totaux affichés prennent en compte les éventuels freebets):\n"

	// DateLayout is the human-readable form of the match date.
	DateLayout = "Monday 02 January 2006 15:04"

	literalTerminator = "}}"
	indicatorsStart   = "}}\n"
	indicatorsEnd     = "\nmises arrondies"
	indicatorSep      = " = "
)

// isoLayouts are accepted for dates printed as quoted strings.
//
//nolint:gochecknoglobals // read-only table
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// MatchInfo identifies the match a report is about. Found is false for the
// not-found sentinel, in which case Name and Date are empty.
type MatchInfo struct {
	Found bool
	Name  string
	Date  *time.Time
}

// FormattedDate returns the date in DateLayout, or "" when unknown.
func (m MatchInfo) FormattedDate() string {
	if m.Date == nil {
		return ""
	}
	return m.Date.Format(DateLayout)
}

// Indicator is one "label = value" line of the indicators block.
type Indicator struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// document is the first line plus the embedded mapping literal.
type document struct {
	name    string
	found   bool
	literal *Mapping
}

func parseDocument(text string, facet string) (*document, error) {
	lines := strings.Split(text, "\n")
	name := strings.TrimRight(lines[0], "\r")
	if name == NotFoundSentinel {
		return &document{}, nil
	}

	end := -1
	for i, line := range lines {
		if strings.Contains(line, literalTerminator) {
			end = i
			break
		}
	}
	if end < 1 {
		return nil, newParseError(facet, nil, "no %q terminated mapping after the match line", literalTerminator)
	}

	raw, err := parseLiteral(strings.Join(lines[1:end+1], ""))
	if err != nil {
		return nil, newParseError(facet, err, "invalid mapping literal")
	}
	m, ok := raw.(*Mapping)
	if !ok {
		return nil, newParseError(facet, nil, "expected a mapping literal, got %T", raw)
	}

	return &document{name: name, found: true, literal: m}, nil
}

func (d *document) date(facet string) (*time.Time, error) {
	v, ok := d.literal.Get("date")
	if !ok || v == nil {
		return nil, nil
	}

	switch t := v.(type) {
	case time.Time:
		return &t, nil
	case string:
		for _, layout := range isoLayouts {
			parsed, err := time.Parse(layout, t)
			if err == nil {
				return &parsed, nil
			}
		}
		return nil, newParseError(facet, nil, "unrecognised date %q", t)
	default:
		return nil, newParseError(facet, nil, "date has unsupported type %T", v)
	}
}

func (d *document) odds(facet string) ([]BookmakerOdds, error) {
	v, ok := d.literal.Get("odds")
	if !ok {
		return nil, newParseError(facet, nil, "mapping has no %q key", "odds")
	}
	m, ok := v.(*Mapping)
	if !ok {
		return nil, newParseError(facet, nil, "odds is %T, expected a mapping", v)
	}

	odds := make([]BookmakerOdds, 0, m.Len())
	for _, bookmaker := range m.Keys() {
		raw, _ := m.Get(bookmaker)
		items, ok := raw.([]any)
		if !ok {
			return nil, newParseError(facet, nil, "odds for %q are %T, expected a sequence", bookmaker, raw)
		}

		numbers := make([]Number, 0, len(items))
		for i, item := range items {
			n, ok := item.(Number)
			if !ok {
				return nil, newParseError(facet, nil, "odd %d for %q is %T, expected a number", i, bookmaker, item)
			}
			numbers = append(numbers, n)
		}
		odds = append(odds, BookmakerOdds{Bookmaker: bookmaker, Odds: numbers})
	}

	err := CheckOddsShape(odds)
	if err != nil {
		return nil, newParseError(facet, err, "uneven odds rows")
	}
	return odds, nil
}

// MentionsNotFound reports whether the sentinel appears anywhere in text.
func MentionsNotFound(text string) bool {
	return strings.Contains(text, NotFoundSentinel)
}

// MatchInfoOf returns the match name and date. For the not-found sentinel it
// returns a MatchInfo with Found == false and no error.
func MatchInfoOf(text string) (MatchInfo, error) {
	doc, err := parseDocument(text, FacetMatch)
	if err != nil {
		return MatchInfo{}, err
	}
	if !doc.found {
		return MatchInfo{}, nil
	}

	date, err := doc.date(FacetMatch)
	if err != nil {
		return MatchInfo{}, err
	}
	return MatchInfo{Found: true, Name: doc.name, Date: date}, nil
}

// OddsTableOf returns one row per bookmaker in report order:
// [bookmaker, odd1, odd2, odd3]. Two-outcome rows are padded with
// OddsPlaceholder in the middle.
func OddsTableOf(text string) (Table, error) {
	odds, err := oddsOf(text, FacetOdds)
	if err != nil {
		return nil, err
	}
	return OddsTable(odds), nil
}

// CombineOddsTableOf returns the odds of a combination bet laid out
// combination-major: the first row is ["Combination", bookmakers...] and each
// following row holds one leg label and its odds per bookmaker, rounded to 3
// decimals.
func CombineOddsTableOf(text string) (Table, error) {
	odds, err := oddsOf(text, FacetCombineOdds)
	if err != nil {
		return nil, err
	}

	stakes, err := stakeText(text, FacetCombineOdds)
	if err != nil {
		return nil, err
	}

	table, err := combineTable(legsOf(stakes), odds)
	if err != nil {
		return nil, newParseError(FacetCombineOdds, err, "legs and odds do not line up")
	}
	return table, nil
}

// IndicatorsOf returns the indicator lines found between the mapping
// terminator and the "mises arrondies" line. The sequence is lazy, stops at
// the first blank line and can be ranged over any number of times.
func IndicatorsOf(text string) (iter.Seq[Indicator], error) {
	_, region, ok := strings.Cut(text, indicatorsStart)
	if !ok {
		return nil, newParseError(FacetIndicators, nil, "no %q terminated mapping", literalTerminator)
	}
	region, _, _ = strings.Cut(region, indicatorsEnd)
	return indicatorSeq(region), nil
}

func indicatorSeq(region string) iter.Seq[Indicator] {
	return func(yield func(Indicator) bool) {
		for line := range strings.SplitSeq(region, "\n") {
			line = strings.TrimRight(line, "\r")
			if strings.TrimSpace(line) == "" {
				return
			}
			label, value, _ := strings.Cut(line, indicatorSep)
			if !yield(Indicator{Label: label, Value: value}) {
				return
			}
		}
	}
}

// StakeTextOf returns the stake allocation verbatim.
func StakeTextOf(text string) (string, error) {
	return stakeText(text, FacetStakes)
}

func stakeText(text string, facet string) (string, error) {
	_, after, ok := strings.Cut(text, StakesMarker)
	if !ok {
		return "", newParseError(facet, nil, "stake allocation marker not found")
	}
	return after, nil
}

// legsOf reads the per-leg labels of a combination: the text before the first
// tab of every line, trimmed. The last line is the totals line.
func legsOf(stakes string) []string {
	lines := strings.Split(strings.TrimRight(stakes, "\n"), "\n")
	if len(lines) == 0 {
		return nil
	}

	legs := make([]string, 0, len(lines)-1)
	for _, line := range lines[:len(lines)-1] {
		label, _, _ := strings.Cut(line, "\t")
		legs = append(legs, strings.TrimSpace(label))
	}
	return legs
}

func oddsOf(text string, facet string) ([]BookmakerOdds, error) {
	doc, err := parseDocument(text, facet)
	if err != nil {
		return nil, err
	}
	if !doc.found {
		return nil, newParseError(facet, nil, "report has no match")
	}
	return doc.odds(facet)
}

// Report holds every facet of one report, parsed once.
type Report struct {
	Text   string
	Match  MatchInfo
	Stakes string

	odds       []BookmakerOdds
	indicators iter.Seq[Indicator]
}

// Parse extracts all facets from text. A not-found report parses without
// error and only carries its Text.
func Parse(text string) (*Report, error) {
	r, err := parse(text)
	if err != nil {
		ReportsParsedTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if r.Found() {
		ReportsParsedTotal.WithLabelValues("found").Inc()
	} else {
		ReportsParsedTotal.WithLabelValues("not_found").Inc()
	}
	return r, nil
}

func parse(text string) (*Report, error) {
	doc, err := parseDocument(text, FacetMatch)
	if err != nil {
		return nil, err
	}
	if !doc.found {
		return &Report{Text: text, indicators: indicatorSeq("")}, nil
	}

	date, err := doc.date(FacetMatch)
	if err != nil {
		return nil, err
	}

	odds, err := doc.odds(FacetOdds)
	if err != nil {
		return nil, err
	}

	indicators, err := IndicatorsOf(text)
	if err != nil {
		return nil, err
	}

	stakes, err := StakeTextOf(text)
	if err != nil {
		return nil, err
	}

	return &Report{
		Text:       text,
		Match:      MatchInfo{Found: true, Name: doc.name, Date: date},
		Stakes:     stakes,
		odds:       odds,
		indicators: indicators,
	}, nil
}

// Found reports whether the engine found a qualifying match.
func (r *Report) Found() bool {
	return r.Match.Found
}

// Odds returns the raw per-bookmaker odds in report order.
func (r *Report) Odds() []BookmakerOdds {
	return r.odds
}

// OddsTable is OddsTableOf for an already parsed report.
func (r *Report) OddsTable() Table {
	return OddsTable(r.odds)
}

// CombineOddsTable is CombineOddsTableOf for an already parsed report.
func (r *Report) CombineOddsTable() (Table, error) {
	if !r.Found() {
		return nil, newParseError(FacetCombineOdds, nil, "report has no match")
	}
	table, err := combineTable(legsOf(r.Stakes), r.odds)
	if err != nil {
		return nil, newParseError(FacetCombineOdds, err, "legs and odds do not line up")
	}
	return table, nil
}

// Indicators returns the lazy indicator sequence.
func (r *Report) Indicators() iter.Seq[Indicator] {
	return r.indicators
}

// IsParseError reports whether err came from a malformed report.
func IsParseError(err error) bool {
	return errors.Is(err, ErrMalformedReport)
}

// String summarises the report for logs.
func (r *Report) String() string {
	if !r.Found() {
		return "Report[not found]"
	}
	return fmt.Sprintf("Report[%s @ %s, %d bookmakers]", r.Match.Name, r.Match.FormattedDate(), len(r.odds))
}
