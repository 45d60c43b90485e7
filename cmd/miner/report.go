package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ARMTS/internal/usecase"
)

var (
	colorPrimary = lipgloss.Color("62")
	colorMuted   = lipgloss.Color("241")
	colorScore   = lipgloss.Color("78")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(colorPrimary).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(14)

	scoreStyle = lipgloss.NewStyle().
			Foreground(colorScore).
			Bold(true)

	ruleStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)
)

// renderReport formats a run summary followed by the best rules.
func renderReport(rep usecase.Report) string {
	summary := []string{
		titleStyle.Render("run " + rep.RunID),
		field("mode", string(rep.Mode)),
		field("dimension", fmt.Sprint(rep.Dimension)),
		field("generations", fmt.Sprint(rep.Generations)),
		field("evaluations", fmt.Sprint(rep.Evaluations)),
		field("rules", fmt.Sprint(rep.ArchiveSize)),
		field("best fitness", scoreStyle.Render(fmt.Sprintf("%.6f", rep.BestFitness))),
		field("duration", rep.Duration.Round(1e6).String()),
	}

	var rules []string
	for i, e := range rep.Top {
		head := fmt.Sprintf("%2d. %s  sup=%.3f conf=%.3f inc=%.3f amp=%.3f",
			i+1, scoreStyle.Render(fmt.Sprintf("%.4f", e.Fitness)),
			e.Metrics.Support, e.Metrics.Confidence, e.Metrics.Inclusion, e.Metrics.Amplitude)
		rules = append(rules, head, ruleStyle.Render(e.Rule.String()))
	}
	if len(rules) == 0 {
		rules = append(rules, labelStyle.Render("no rules found"))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		boxStyle.Render(strings.Join(summary, "\n")),
		"",
		strings.Join(rules, "\n"),
	) + "\n"
}

func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func writeJSON(w io.Writer, rep usecase.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
