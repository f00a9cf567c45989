package view

import (
	"time"

	"github.com/mselser95/betview/internal/report"
)

// Slot keys of the stored-odds lookup panel.
const (
	OddsLookupTableKey  = "ODDS_ODDS"
	OddsLookupDateKey   = "DATE_ODDS"
	OddsLookupMatchKey  = "MATCH_ODDS"
	OddsLookupDeleteKey = "DELETE_ODDS"

	// OddsLookupMatchesKey lists the matches of the lookup panel.
	OddsLookupMatchesKey = "MATCHES_ODDS"
	// StakeMatchesKey lists the matches the stake scenario can pick from.
	StakeMatchesKey = "MATCHES"
)

// ShowMatchOdds fills the lookup panel with one match's stored odds, rows
// sorted by bookmaker. The date slot is hidden when the date is unknown.
func ShowMatchOdds(w Window, match string, odds []report.BookmakerOdds, date *time.Time) {
	w.Update(OddsLookupTableKey, report.SortedOddsTable(odds), true)
	if date != nil {
		w.Update(OddsLookupDateKey, date.Format(report.DateLayout), true)
	} else {
		w.Update(OddsLookupDateKey, "", false)
	}
	w.Update(OddsLookupMatchKey, match, true)
	w.Update(OddsLookupDeleteKey, nil, true)

	ProjectionsTotal.WithLabelValues("ODDS", "found").Inc()
}

// HideMatchOdds clears the lookup panel after a match is deleted.
func HideMatchOdds(w Window) {
	w.Update(OddsLookupTableKey, nil, false)
	w.Update(OddsLookupDateKey, "", false)
	w.Update(OddsLookupMatchKey, "", false)
	w.Update(OddsLookupDeleteKey, nil, false)

	ProjectionsTotal.WithLabelValues("ODDS", "hidden").Inc()
}

// ShowMatchList refreshes both match pickers after the odds store changed.
func ShowMatchList(w Window, matches []string) {
	w.Update(OddsLookupMatchesKey, matches, true)
	w.Update(StakeMatchesKey, matches, true)
}
