package report

import (
	"fmt"
	"sort"
)

// OddsPlaceholder fills the draw column of two-outcome markets.
const OddsPlaceholder = "-   "

// CombinationHeader labels the first column of a combination odds table.
const CombinationHeader = "Combination"

// Table is a rectangular grid of display strings.
type Table [][]string

// Transpose swaps rows and columns. Ragged tables are rejected.
func Transpose(t Table) (Table, error) {
	if len(t) == 0 {
		return Table{}, nil
	}

	width := len(t[0])
	for i, row := range t {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), width)
		}
	}

	out := make(Table, width)
	for c := 0; c < width; c++ {
		out[c] = make([]string, len(t))
		for r := range t {
			out[c][r] = t[r][c]
		}
	}
	return out, nil
}

// BookmakerOdds holds one bookmaker's odds for a match, one per outcome.
type BookmakerOdds struct {
	Bookmaker string
	Odds      []Number
}

// CheckOddsShape verifies that the rows can form a rectangular table: every
// bookmaker quotes the same number of odds, or rows mix two and three odds
// (the two-odds rows are padded). An empty list is valid.
func CheckOddsShape(odds []BookmakerOdds) error {
	widest := 0
	for _, o := range odds {
		widest = max(widest, len(o.Odds))
	}

	for _, o := range odds {
		n := len(o.Odds)
		if n == widest || (n == 2 && widest == 3) {
			continue
		}
		return fmt.Errorf("bookmaker %q quotes %d odds, others quote %d", o.Bookmaker, n, widest)
	}
	return nil
}

// OddsTable renders odds rows in the given order. When any bookmaker quotes a
// two-outcome market, the placeholder is inserted in the middle of every
// two-odds row so that all rows share three odds columns. Rows are expected to
// pass CheckOddsShape; others come out ragged.
func OddsTable(odds []BookmakerOdds) Table {
	twoWay := false
	for _, o := range odds {
		if len(o.Odds) == 2 {
			twoWay = true
			break
		}
	}

	table := make(Table, 0, len(odds))
	for _, o := range odds {
		row := make([]string, 0, 4)
		row = append(row, o.Bookmaker)
		for i, n := range o.Odds {
			if twoWay && len(o.Odds) == 2 && i == 1 {
				row = append(row, OddsPlaceholder)
			}
			row = append(row, n.String())
		}
		table = append(table, row)
	}
	return table
}

// SortedOddsTable is OddsTable with rows ordered by bookmaker name.
func SortedOddsTable(odds []BookmakerOdds) Table {
	table := OddsTable(odds)
	sort.SliceStable(table, func(i, j int) bool {
		return table[i][0] < table[j][0]
	})
	return table
}

// combineTable builds the bookmaker-major table (header row of legs, then one
// row per bookmaker with odds rounded to 3 decimals) and transposes it.
func combineTable(legs []string, odds []BookmakerOdds) (Table, error) {
	bookmakerMajor := make(Table, 0, len(odds)+1)

	header := make([]string, 0, len(legs)+1)
	header = append(header, CombinationHeader)
	header = append(header, legs...)
	bookmakerMajor = append(bookmakerMajor, header)

	for _, o := range odds {
		row := make([]string, 0, len(o.Odds)+1)
		row = append(row, o.Bookmaker)
		for _, n := range o.Odds {
			row = append(row, n.Round(3).String())
		}
		bookmakerMajor = append(bookmakerMajor, row)
	}

	return Transpose(bookmakerMajor)
}
