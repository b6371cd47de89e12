package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/hylla/skillroute/internal/app"
)

// minPanelWidth keeps milestone panels readable on narrow terminals.
const minPanelWidth = 24

// markdownRenderer turns milestone detail markdown into terminal text.
// The glamour renderer is rebuilt only when the wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}
	width = max(width, minPanelWidth)
	if r.renderer == nil || r.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return markdown
		}
		r.renderer, r.width = renderer, width
	}
	out, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(out, "\n")
}

// milestoneMarkdown builds the detail panel body of one milestone.
func milestoneMarkdown(row app.MilestoneRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", row.Name)
	if row.EstimatedHours > 0 {
		fmt.Fprintf(&b, "_about %s_\n\n", formatHours(row.EstimatedHours))
	}
	if len(row.Resources) == 0 {
		b.WriteString("No resources listed yet.\n")
		return b.String()
	}
	for _, res := range row.Resources {
		title := strings.TrimSpace(res.Title)
		if title == "" {
			title = res.URL
		}
		line := "- "
		if res.URL != "" {
			line += fmt.Sprintf("[%s](%s)", title, res.URL)
		} else {
			line += title
		}
		meta := []string{string(res.Type)}
		if res.DurationLabel != "" {
			meta = append(meta, res.DurationLabel)
		}
		line += " · " + strings.Join(meta, ", ")
		b.WriteString(line + "\n")
	}
	return b.String()
}

func formatHours(hours float64) string {
	if hours == float64(int(hours)) {
		return fmt.Sprintf("%dh", int(hours))
	}
	return fmt.Sprintf("%.1fh", hours)
}
