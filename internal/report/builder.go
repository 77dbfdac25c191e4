// Package report derives the overview dashboard from category budgets and
// the decision history. Build is pure: the same inputs and the same now
// always yield the same Report.
package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"athena/internal/core"
)

// Range is the history window shown on the overview.
type Range string

const (
	Last24h Range = "24h"
	Last7d  Range = "7d"
	Last30d Range = "30d"
)

// Ranges lists the selectable windows in display order.
var Ranges = []Range{Last24h, Last7d, Last30d}

// ParseRange maps a query value to a Range. Unknown values fall back to 24h.
func ParseRange(s string) Range {
	switch Range(s) {
	case Last7d:
		return Last7d
	case Last30d:
		return Last30d
	default:
		return Last24h
	}
}

// Hours is the maximum age, in hours, an entry may have to fall inside the window.
func (r Range) Hours() float64 {
	switch r {
	case Last7d:
		return 168
	case Last30d:
		return 720
	default:
		return 24
	}
}

// Days is the number of day buckets for the range, or 0 for 24h.
func (r Range) Days() int {
	switch r {
	case Last7d:
		return 7
	case Last30d:
		return 30
	default:
		return 0
	}
}

func (r Range) String() string { return string(r) }

type Color string

const (
	Emerald Color = "emerald"
	Red     Color = "red"
	Slate   Color = "slate"
)

type Icon string

const (
	IconServer Icon = "server"
	IconSearch Icon = "search"
	IconShield Icon = "shield"
	IconBot    Icon = "bot"
)

const (
	StatMonthlySpend        = "monthly-spend"
	StatTransactionsScanned = "transactions-scanned"
	StatBlocked             = "blocked-transactions"
	StatActiveCategories    = "active-categories"
)

// Stat is one summary card on the overview.
type Stat struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Value         string `json:"value"`
	Subtitle      string `json:"subtitle"`
	SubtitleColor Color  `json:"subtitleColor"`
	IconType      Icon   `json:"iconType"`
}

// Bucket is one point of the allowed/blocked chart.
type Bucket struct {
	Label   string `json:"time"`
	Allowed int    `json:"allowed"`
	Blocked int    `json:"blocked"`
}

// Report is the derived overview for one range.
type Report struct {
	Range      Range           `json:"range"`
	Stats      []Stat          `json:"stats"`
	Series     []Bucket        `json:"chartData"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
	Scanned    int             `json:"scanned"`
	Blocked    int             `json:"blocked"`
	Allowed    int             `json:"allowed"`
}

// Build computes the overview report. Entries with unparseable timestamps
// are ignored; timestamps are read in now's location.
func Build(categories []core.Category, history []core.HistoryEntry, rng Range, now time.Time) Report {
	rng = ParseRange(string(rng))
	loc := now.Location()

	total := decimal.Zero
	for _, c := range categories {
		total = total.Add(c.Spent())
	}

	window := rng.Hours()
	var (
		blocked, allowed int
		kept             []keptEntry
	)
	for _, h := range history {
		t, ok := h.Time(loc)
		if !ok {
			continue
		}
		if now.Sub(t).Hours() > window {
			continue
		}
		if h.Blocked() {
			blocked++
		} else {
			allowed++
		}
		kept = append(kept, keptEntry{at: t, blocked: h.Blocked()})
	}
	scanned := blocked + allowed

	return Report{
		Range:      rng,
		Stats:      buildStats(total, scanned, blocked, len(categories), rng),
		Series:     buildSeries(kept, rng, now),
		TotalSpent: total,
		Scanned:    scanned,
		Blocked:    blocked,
		Allowed:    allowed,
	}
}

type keptEntry struct {
	at      time.Time
	blocked bool
}

func buildStats(total decimal.Decimal, scanned, blocked, categories int, rng Range) []Stat {
	spendColor := Slate
	if total.Round(2).IsPositive() {
		spendColor = Red
	}
	blockedColor, blockedSubtitle := Slate, "No threats detected"
	if blocked > 0 {
		blockedColor, blockedSubtitle = Red, "Requires review"
	}
	return []Stat{
		{
			ID:            StatMonthlySpend,
			Title:         "Monthly Spend",
			Value:         core.FormatUSD(total),
			Subtitle:      "Across all categories",
			SubtitleColor: spendColor,
			IconType:      IconServer,
		},
		{
			ID:            StatTransactionsScanned,
			Title:         fmt.Sprintf("Transactions Scanned (%s)", rng),
			Value:         core.FormatCount(scanned),
			Subtitle:      fmt.Sprintf("%s allowed", core.FormatCount(scanned-blocked)),
			SubtitleColor: Emerald,
			IconType:      IconSearch,
		},
		{
			ID:            StatBlocked,
			Title:         "Blocked Transactions",
			Value:         core.FormatCount(blocked),
			Subtitle:      blockedSubtitle,
			SubtitleColor: blockedColor,
			IconType:      IconShield,
		},
		{
			ID:            StatActiveCategories,
			Title:         "Active Categories",
			Value:         core.FormatCount(categories),
			Subtitle:      "Budgets monitored",
			SubtitleColor: Slate,
			IconType:      IconBot,
		},
	}
}

func buildSeries(entries []keptEntry, rng Range, now time.Time) []Bucket {
	var buckets []Bucket
	if days := rng.Days(); days > 0 {
		buckets = make([]Bucket, 0, days)
		for i := days - 1; i >= 0; i-- {
			buckets = append(buckets, Bucket{Label: DayLabel(now.AddDate(0, 0, -i))})
		}
	} else {
		buckets = make([]Bucket, 0, 12)
		for h := 0; h < 24; h += 2 {
			buckets = append(buckets, Bucket{Label: fmt.Sprintf("%02d:00", h)})
		}
	}

	index := make(map[string]int, len(buckets))
	for i, b := range buckets {
		index[b.Label] = i
	}
	for _, e := range entries {
		var label string
		if rng.Days() > 0 {
			label = DayLabel(e.at)
		} else {
			label = fmt.Sprintf("%02d:00", e.at.Hour()/2*2)
		}
		i, ok := index[label]
		if !ok {
			continue
		}
		if e.blocked {
			buckets[i].Blocked++
		} else {
			buckets[i].Allowed++
		}
	}
	return buckets
}

// DayLabel formats t as "M/DD", e.g. "5/07". The year is not part of the
// label, so 30-day windows that cross a year alias same-day entries.
func DayLabel(t time.Time) string {
	return fmt.Sprintf("%d/%02d", int(t.Month()), t.Day())
}
