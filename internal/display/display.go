package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tickerbench/tickerbench/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2)

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	indeterminateStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6B7280"))

	rationaleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))
)

func statusStyle(status models.Status) lipgloss.Style {
	switch status {
	case models.StatusPass:
		return passStyle
	case models.StatusFail:
		return failStyle
	default:
		return indeterminateStyle
	}
}

// Render writes the result artifact in a human-readable form. Failed and
// indeterminate tickers are shown like everything else: partial results
// are still results.
func Render(w io.Writer, artifact *models.ResultArtifact) {
	fmt.Fprintln(w, headerStyle.Render(strings.Join(artifact.SummaryText, "\n")))
	fmt.Fprintln(w)

	for _, r := range artifact.Results {
		status := statusStyle(r.Status).Render(strings.ToUpper(string(r.Status)))
		fmt.Fprintf(w, "  %-8s %s  predicted=%s (%.2f) actual_increase=%v\n",
			r.Ticker, status, r.AgentOutcome, r.AgentConfidence, r.ActualIncrease)
		if r.Rationale != "" {
			fmt.Fprintf(w, "           %s\n", rationaleStyle.Render(r.Rationale))
		}
	}

	if len(artifact.Results) == 0 {
		fmt.Fprintln(w, indeterminateStyle.Render("  no tickers evaluated"))
	}
}
