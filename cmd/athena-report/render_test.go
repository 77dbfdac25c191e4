package main

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"athena/internal/core"
	"athena/internal/report"
)

func TestRenderListsStatsAndBuckets(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	r := report.Build(nil, []core.HistoryEntry{
		{ID: 1, Decision: core.Allow, Timestamp: "2024-05-10T09:00:00"},
		{ID: 2, Decision: core.Block, Timestamp: "2024-05-09T15:00:00"},
	}, report.Last7d, now)

	out := render(r, now)
	assert.Contains(t, out, "Monthly Spend")
	assert.Contains(t, out, "Blocked Transactions")
	assert.Contains(t, out, "5/04")
	assert.Contains(t, out, "5/10")
	assert.Contains(t, out, "range 7d")
}

func TestBarScalesToWidth(t *testing.T) {
	assert.Empty(t, bar(report.Bucket{}, 0, 10))
	assert.Equal(t, 10, lipgloss.Width(bar(report.Bucket{Allowed: 3, Blocked: 2}, 5, 10)))
	assert.Equal(t, 1, lipgloss.Width(bar(report.Bucket{Blocked: 1}, 100, 10)), "non-zero counts stay visible")
}
