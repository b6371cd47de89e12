package tui

import (
	"fmt"
	"image/color"
	"math"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hylla/skillroute/internal/app"
	"github.com/hylla/skillroute/internal/domain"
)

var (
	accentColor  = lipgloss.Color("62")
	mutedColor   = lipgloss.Color("241")
	dimColor     = lipgloss.Color("239")
	doneColor    = lipgloss.Color("78")
	errorColor   = lipgloss.Color("203")
	selectColor  = lipgloss.Color("212")
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle  = lipgloss.NewStyle().Foreground(dimColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	doneStyle    = lipgloss.NewStyle().Foreground(doneColor)
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	selectStyle  = lipgloss.NewStyle().Bold(true).Foreground(selectColor)
)

// View renders the current screen.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render returns the full screen text.
func (m Model) render() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	}
	if !m.ready || !m.loaded && m.screen == screenRoadmap {
		return "loading..."
	}

	var header string
	var body []string
	var cursorLine int
	if m.screen == screenAnalysis {
		header, body, cursorLine = m.renderAnalysis()
	} else {
		header, body, cursorLine = m.renderRoadmap()
	}

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	footer := m.renderToasts()
	if status := strings.TrimSpace(m.status); status != "" && status != "ready" {
		footer = append(footer, statusStyle.Render(status))
	}

	bodyHeight := len(body)
	if m.height > 0 {
		bodyHeight = max(1, m.height-lipgloss.Height(helpLine)-lipgloss.Height(header)-len(footer)-1)
	}
	body = scrollWindow(body, cursorLine, bodyHeight)

	sections := []string{header, ""}
	sections = append(sections, body...)
	content := strings.Join(sections, "\n")
	if len(footer) > 0 {
		content += "\n" + strings.Join(footer, "\n")
	}
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	full := content + "\n" + helpLine
	if m.confirm != nil {
		height := lipgloss.Height(full)
		if m.height > 0 {
			height = m.height
		}
		full = overlayOnContent(full, m.renderConfirm(m.width-8), max(1, m.width), max(1, height))
	}
	return full
}

// renderRoadmap returns the roadmap header, body lines, and the body line of the cursor.
func (m Model) renderRoadmap() (string, []string, int) {
	snap := m.snap
	header := titleStyle.Render("skillroute") + statusStyle.Render("  ["+string(m.view.Mode())+"]")
	if snap.Roadmap == nil {
		lines := []string{
			"No roadmap yet.",
		}
		if snap.Profile == nil {
			lines = append(lines, "Run `skillroute profile set` to describe your goals.")
		} else {
			lines = append(lines, fmt.Sprintf("Press g to generate a roadmap toward %s.", snap.Profile.TargetRole))
		}
		lines = append(lines, "Press a to review a skill-gap analysis.")
		return header, lines, 0
	}

	d := snap.Derivation
	header += "  " + snap.Roadmap.Title
	stats := []string{
		m.gauge("progress", float64(d.Percentage)),
		fmt.Sprintf("%d/%d phases", d.CompletedPhases, d.TotalPhases),
	}
	if d.StreakDays > 0 {
		stats = append(stats, fmt.Sprintf("%d-day streak", d.StreakDays))
	}
	if snap.Adapting {
		stats = append(stats, currentStyle.Render("adapting..."))
	}
	header += "\n" + strings.Join(stats, mutedStyle.Render("  •  "))
	if cd := snap.CareerDecision; cd != nil && strings.TrimSpace(cd.TargetRole) != "" {
		line := "target: " + cd.TargetRole
		if summary := strings.TrimSpace(cd.Summary); summary != "" {
			line += " - " + summary
		}
		header += "\n" + mutedStyle.Render(truncate(line, max(20, m.width-2)))
	}

	if m.view.Mode() == app.ViewModeClassic {
		lines, cursorLine := m.renderClassic(app.ClassicSteps(*snap.Roadmap, snap.Progress, m.view), m.cursor)
		return header, lines, cursorLine
	}
	lines, cursorLine := m.renderTimeline(app.TimelineRows(*snap.Roadmap, snap.Progress, m.view), m.cursor, snap.Pending)
	return header, lines, cursorLine
}

// renderTimeline draws rows with status markers and current/next tags.
func (m Model) renderTimeline(rows []app.TimelineRow, cursor int, pending []int) ([]string, int) {
	var lines []string
	cursorLine := 0
	flat := 0
	for _, row := range rows {
		marker := mutedStyle.Render("○")
		name := row.Name
		switch {
		case row.Status == domain.PhaseStatusCompleted:
			marker = doneStyle.Render("●")
		case row.Current:
			marker = currentStyle.Render("◉")
		}
		label := fmt.Sprintf("%d. %s", row.Index+1, name)
		if row.DurationLabel != "" {
			label += mutedStyle.Render("  " + row.DurationLabel)
		}
		if row.TotalHours > 0 {
			label += mutedStyle.Render("  " + formatHours(row.TotalHours))
		}
		switch {
		case row.Current:
			label += currentStyle.Render("  (current)")
		case row.Next:
			label += mutedStyle.Render("  (next)")
		}
		if slices.Contains(pending, row.Index) {
			label += statusStyle.Render("  saving…")
		}
		if flat == cursor {
			cursorLine = len(lines)
		}
		lines = append(lines, cursorPrefix(flat == cursor)+marker+" "+styleSelected(label, flat == cursor))
		flat++
		if !row.Expanded {
			continue
		}
		if len(row.FocusSkills) > 0 {
			lines = append(lines, "      "+mutedStyle.Render("focus: "+strings.Join(row.FocusSkills, ", ")))
		}
		for _, outcome := range row.Outcomes {
			lines = append(lines, "      "+mutedStyle.Render("→ "+outcome))
		}
		for _, ms := range row.Milestones {
			if flat == cursor {
				cursorLine = len(lines)
			}
			lines = append(lines, m.renderMilestone(ms, flat == cursor, "    │ ")...)
			flat++
		}
	}
	return lines, cursorLine
}

// renderClassic draws a vertical stepper.
func (m Model) renderClassic(steps []app.ClassicStep, cursor int) ([]string, int) {
	var lines []string
	cursorLine := 0
	flat := 0
	for idx, step := range steps {
		box := mutedStyle.Render("[ ]")
		switch step.State {
		case app.StepDone:
			box = doneStyle.Render("[✓]")
		case app.StepActive:
			box = currentStyle.Render("[▶]")
		}
		label := fmt.Sprintf("Step %d  %s", step.Index+1, step.Name)
		if step.DurationLabel != "" {
			label += mutedStyle.Render("  " + step.DurationLabel)
		}
		if flat == cursor {
			cursorLine = len(lines)
		}
		lines = append(lines, cursorPrefix(flat == cursor)+box+" "+styleSelected(label, flat == cursor))
		flat++
		for _, ms := range step.Milestones {
			if flat == cursor {
				cursorLine = len(lines)
			}
			lines = append(lines, m.renderMilestone(ms, flat == cursor, "   │  ")...)
			flat++
		}
		if idx < len(steps)-1 {
			lines = append(lines, "   "+mutedStyle.Render("│"))
		}
	}
	return lines, cursorLine
}

// renderMilestone draws one milestone line and, when open, its detail panel.
func (m Model) renderMilestone(ms app.MilestoneRow, selected bool, indent string) []string {
	label := ms.Name
	if ms.EstimatedHours > 0 {
		label += mutedStyle.Render("  " + formatHours(ms.EstimatedHours))
	}
	if n := len(ms.Resources); n > 0 {
		label += mutedStyle.Render(fmt.Sprintf("  %d resources", n))
	}
	lines := []string{cursorPrefix(selected) + mutedStyle.Render(indent) + styleSelected(label, selected)}
	if !ms.PanelOpen {
		return lines
	}
	panel := m.md.render(milestoneMarkdown(ms), max(minPanelWidth, m.width-len(indent)-6))
	for _, line := range strings.Split(panel, "\n") {
		lines = append(lines, "  "+mutedStyle.Render(indent)+line)
	}
	return lines
}

// renderAnalysis returns the skill-gap header, body lines, and cursor line.
func (m Model) renderAnalysis() (string, []string, int) {
	header := titleStyle.Render("skillroute") + statusStyle.Render("  [skill gap]")
	if m.analysisErr != nil {
		return header, []string{lipgloss.NewStyle().Foreground(errorColor).Render("could not load analysis: " + m.analysisErr.Error())}, 0
	}
	if m.analysis == nil {
		return header, []string{"No skill-gap analysis yet.", "Run `skillroute analyze --resume FILE --jd TEXT` to create one."}, 0
	}
	a := *m.analysis
	header += "\n" + m.gauge("match", a.MatchPercentage) + mutedStyle.Render("  •  ") + m.gauge("readiness", a.JobReadinessScore)

	lines := []string{
		doneStyle.Render("have: ") + joinOrNone(a.MatchedSkills),
		lipgloss.NewStyle().Foreground(errorColor).Render("need: ") + joinOrNone(a.MissingSkills),
	}
	if v := a.LearningVelocity; v.TotalEstimatedHours > 0 || v.WeeksToReadiness > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("about %dh over %.1f weeks", v.TotalEstimatedHours, v.WeeksToReadiness)))
	}
	if m.adopter != nil {
		switch m.adopter.State() {
		case app.AdoptPending:
			lines = append(lines, statusStyle.Render("adding plan to roadmap…"))
		case app.AdoptAdopted:
			lines = append(lines, doneStyle.Render("✓ added to roadmap"))
		default:
			lines = append(lines, mutedStyle.Render("press p to add this plan to your roadmap"))
		}
	}
	lines = append(lines, "")
	offset := len(lines)

	rows, err := app.AnalysisRows(a, m.analysisView)
	if err != nil {
		return header, append(lines, mutedStyle.Render("no learning plan in this analysis")), 0
	}
	planLines, cursorLine := m.renderTimeline(rows, m.analysisCursor, nil)
	return header, append(lines, planLines...), offset + cursorLine
}

// gauge draws a horizontal score meter sized by the ring radius.
func (m Model) gauge(label string, value float64) string {
	cells := max(1, m.ringRadius*4)
	clamped := domain.ClampScore(value)
	filled := int(math.Round(domain.ScoreToArc(clamped) / domain.RingCircumference * float64(cells)))
	filled = clamp(filled, 0, cells)
	bar := lipgloss.NewStyle().Foreground(accentColor).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(dimColor).Render(strings.Repeat("░", cells-filled))
	return fmt.Sprintf("%s %s %d%%", label, bar, int(math.Round(clamped)))
}

func (m Model) renderToasts() []string {
	out := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		var c color.Color = accentColor
		icon := "•"
		switch t.level {
		case app.NotificationSuccess:
			c, icon = doneColor, "✓"
		case app.NotificationError:
			c, icon = errorColor, "✗"
		}
		out = append(out, lipgloss.NewStyle().Foreground(c).Render(icon+" "+t.text))
	}
	return out
}

// renderConfirm draws the confirm modal for the open request.
func (m Model) renderConfirm(maxWidth int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(clamp(maxWidth, 36, 72))
	}
	prompt := m.confirm.prompt
	title := firstNonEmpty(prompt.Title, "Confirm")
	confirmLabel := firstNonEmpty(prompt.ConfirmLabel, "confirm")
	cancelLabel := firstNonEmpty(prompt.CancelLabel, "cancel")
	confirmStyle, cancelStyle := mutedStyle, mutedStyle
	if m.confirmChoice == 0 {
		confirmStyle = currentStyle
	} else {
		cancelStyle = currentStyle
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render(title),
	}
	if msg := strings.TrimSpace(prompt.Message); msg != "" {
		lines = append(lines, msg)
	}
	lines = append(lines,
		confirmStyle.Render("["+confirmLabel+"]")+"  "+cancelStyle.Render("["+cancelLabel+"]"),
		mutedStyle.Render("enter apply • esc cancel • h/l switch • y confirm • n cancel"),
	)
	return style.Render(strings.Join(lines, "\n"))
}

func cursorPrefix(selected bool) string {
	if selected {
		return selectStyle.Render("› ")
	}
	return "  "
}

func styleSelected(s string, selected bool) string {
	if selected {
		return selectStyle.Render(s)
	}
	return s
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return mutedStyle.Render("none")
	}
	return strings.Join(values, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// scrollWindow keeps the cursor line visible within height lines.
func scrollWindow(lines []string, cursorLine, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := clamp(cursorLine-height/2, 0, len(lines)-height)
	return lines[start : start+height]
}

// fitLines pads or truncates content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay above base on a canvas.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		return overlay + "\n\n" + base
	}
	canvas := lipgloss.NewCanvas(width, height)
	canvas.Compose(lipgloss.NewLayer(fitLines(base, height)).X(0).Y(0).Z(0))
	canvas.Compose(lipgloss.NewLayer(lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)).X(0).Y(0).Z(10))
	return canvas.Render()
}

func truncate(s string, limit int) string {
	rs := []rune(s)
	if limit <= 0 {
		return ""
	}
	if len(rs) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(rs[:limit-1]) + "…"
}
