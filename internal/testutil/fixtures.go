package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// NotFoundReport is printed when no match qualifies.
const NotFoundReport = "No match found\n"

// SimpleReport is a two-outcome single match report.
const SimpleReport = "Team A vs Team B\n" +
	"{'odds': {'SiteX': [2.1, 1.8]}, 'date': datetime.datetime(2021, 3, 14, 20, 45)}\n" +
	"}}\n" +
	"ev = 12.5\n" +
	"\n" +
	"Répartition des mises (les totaux affichés prennent en compte les éventuels freebets):\n" +
	"10.00€ sur SiteX"

// ThreeWayReport is a three-outcome single match report with six indicators.
const ThreeWayReport = "Paris SG - Marseille\n" +
	"{'date': datetime.datetime(2020, 5, 17, 21, 0),\n" +
	" 'odds': {'winamax': [1.6, 3.8, 5],\n" +
	"          'betclic': [1.55, 4.0, 5.2]}}\n" +
	"plus-value = 1.53\n" +
	"somme des mises = 100\n" +
	"gain min = 101.53\n" +
	"gain max = 103\n" +
	"cote = 1.6\n" +
	"taux = 98%\n" +
	"\n" +
	"Répartition des mises (les totaux affichés prennent en compte les éventuels freebets):\n" +
	"winamax: 62.5\n" +
	"betclic: 25\n"

// CombineReport is a two-leg combination report.
const CombineReport = "Lyon - Nice / Lille - Lens\n" +
	"{'date': datetime.datetime(2020, 5, 17, 21, 0),\n" +
	" 'odds': {'winamax': [1.23456, 2.5], 'betclic': [1.2, 2.45]}}\n" +
	"plus-value = 2.1\n" +
	"\n" +
	"Répartition des mises (les totaux affichés prennent en compte les éventuels freebets):\n" +
	"Lyon / Lille\twinamax: 10\n" +
	"Nice / Lens\tbetclic: 8\n" +
	"Total\t18\n"

// MalformedReport names a match but carries no mapping terminator.
const MalformedReport = "Team A vs Team B\n{'odds': {'SiteX': [2.1, 1.8]\nev = 1\n"

// OddsJSON is an odds.json fixture for the replay engine.
const OddsJSON = `{
  "football": {
    "Paris SG - Marseille": {
      "date": "2020-05-17T21:00:00Z",
      "odds": [
        {"bookmaker": "winamax", "odds": [1.6, 3.8, 5]},
        {"bookmaker": "betclic", "odds": [1.55, 4.0, 5.2]}
      ]
    },
    "Lyon - Nice": {
      "odds": [{"bookmaker": "unibet", "odds": [2.0, 3.0, 3.5]}]
    }
  }
}`

// WriteReplayDir writes files into a fresh temporary directory and returns it.
func WriteReplayDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600)
		if err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}
