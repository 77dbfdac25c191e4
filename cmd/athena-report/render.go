package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"athena/internal/report"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB")).Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	subtitleColors = map[report.Color]lipgloss.Color{
		report.Emerald: lipgloss.Color("#10B981"),
		report.Red:     lipgloss.Color("#EF4444"),
		report.Slate:   lipgloss.Color("#64748B"),
	}
)

// render lays out the stat cards and the bucket series as two tables.
func render(r report.Report, now time.Time) string {
	out := []string{
		titleStyle.Render("athena overview") + " " +
			labelStyle.Render("range "+r.Range.String()+" as of "+now.Format("2006-01-02 15:04")),
		statsTable(r.Stats),
		seriesTable(r.Series),
	}
	return strings.Join(out, "\n\n")
}

func statsTable(stats []report.Stat) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Stat", "Value", "Detail").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 && row >= 0 && row < len(stats) {
				return cellStyle.Foreground(subtitleColors[stats[row].SubtitleColor])
			}
			return cellStyle
		})
	for _, s := range stats {
		t.Row(s.Title, valueStyle.Render(s.Value), s.Subtitle)
	}
	return t.Render()
}

func seriesTable(series []report.Bucket) string {
	top := 0
	for _, b := range series {
		top = max(top, b.Allowed+b.Blocked)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Bucket", "Allowed", "Blocked", "").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, b := range series {
		t.Row(b.Label, strconv.Itoa(b.Allowed), strconv.Itoa(b.Blocked), bar(b, top, 30))
	}
	return t.Render()
}

// bar draws allowed then blocked segments scaled to width cells.
func bar(b report.Bucket, top, width int) string {
	if top == 0 {
		return ""
	}
	allowed := b.Allowed * width / top
	blocked := b.Blocked * width / top
	if b.Allowed > 0 && allowed == 0 {
		allowed = 1
	}
	if b.Blocked > 0 && blocked == 0 {
		blocked = 1
	}
	return lipgloss.NewStyle().Foreground(subtitleColors[report.Emerald]).Render(strings.Repeat("█", allowed)) +
		lipgloss.NewStyle().Foreground(subtitleColors[report.Red]).Render(strings.Repeat("█", blocked))
}
