package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"monori/internal/core"
)

var statusColor = map[core.CheckStatus]lipgloss.Color{
	core.StatusGood:        lipgloss.Color("42"),
	core.StatusVulnerable:  lipgloss.Color("196"),
	core.StatusCheckFailed: lipgloss.Color("214"),
	core.StatusManualCheck: lipgloss.Color("75"),
}

// summaryPrinter colours output only when w is a terminal.
type summaryPrinter struct {
	w      io.Writer
	title  lipgloss.Style
	muted  lipgloss.Style
	status map[core.CheckStatus]lipgloss.Style
}

func newSummaryPrinter(w io.Writer) *summaryPrinter {
	r := lipgloss.NewRenderer(w)
	p := &summaryPrinter{
		w:      w,
		title:  r.NewStyle().Bold(true),
		muted:  r.NewStyle().Foreground(lipgloss.Color("240")),
		status: map[core.CheckStatus]lipgloss.Style{},
	}
	for s, c := range statusColor {
		p.status[s] = r.NewStyle().Foreground(c).Bold(s == core.StatusVulnerable)
	}
	return p
}

func (p *summaryPrinter) renderStatus(s core.CheckStatus) string {
	label := fmt.Sprintf("%-6s", s.String())
	if style, ok := p.status[s]; ok {
		return style.Render(label)
	}
	return label
}

// printSummary writes one line per result followed by the verdict counts.
func printSummary(w io.Writer, r core.SecurityReport) {
	p := newSummaryPrinter(w)
	fmt.Fprintln(w, p.title.Render(fmt.Sprintf("%s  %s  (%s)", r.ComputerName, r.DateTime, r.OS)))
	for _, res := range r.Results {
		fmt.Fprintf(w, "  %s  %s  %s\n", res.Code, p.renderStatus(res.Status), res.Item)
		if res.Status != core.StatusGood && res.Detail != "" {
			fmt.Fprintln(w, p.muted.Render("          "+firstLine(res.Detail)))
		}
	}
	s := r.Summary()
	parts := make([]string, 0, len(core.Statuses()))
	for _, st := range core.Statuses() {
		parts = append(parts, fmt.Sprintf("%s %d", p.renderStatus(st), s.Count(st)))
	}
	fmt.Fprintf(w, "\n%s %d  |  %s\n", p.title.Render("전체"), s.Total, strings.Join(parts, "  "))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return core.Truncate(line, 160)
}
