package render

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"

	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/internal/domain/projection"
)

const (
	defaultBarWidth = 30
	labelWidth      = 18
	barRune         = "█"
	noAlertsText    = "(none)"
	ellipsis        = "…"
	cellGap         = 2
)

var tableHeaders = []string{"Player", "Date", "Type", "Value"}

// Theme holds the terminal colors.
type Theme struct {
	Heading lipgloss.Color
	Batting lipgloss.Color
	Bowling lipgloss.Color
	Muted   lipgloss.Color
	Status  lipgloss.Color
}

// DefaultTheme is a 256-color palette that reads on dark and light
// backgrounds.
func DefaultTheme() Theme {
	return Theme{
		Heading: lipgloss.Color("39"),
		Batting: lipgloss.Color("208"),
		Bowling: lipgloss.Color("34"),
		Muted:   lipgloss.Color("245"),
		Status:  lipgloss.Color("220"),
	}
}

// MonoTheme sets no colors. Bold and layout are kept.
func MonoTheme() Theme {
	return Theme{}
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithTheme overrides the colors.
func WithTheme(t Theme) TerminalOption {
	return func(term *Terminal) { term.theme = t }
}

// WithBarWidth sets the maximum bar length in cells.
func WithBarWidth(n int) TerminalOption {
	return func(term *Terminal) {
		if n > 0 {
			term.barWidth = n
		}
	}
}

// Terminal draws the dashboard as styled text. Surface calls only update
// state; Flush writes a full frame.
type Terminal struct {
	*Snapshot
	out      io.Writer
	renderer *lipgloss.Renderer
	theme    Theme
	barWidth int
}

// NewTerminal creates a terminal surface writing frames to out. Colors are
// only emitted when out is a terminal.
func NewTerminal(out io.Writer, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		Snapshot: NewSnapshot(),
		out:      out,
		renderer: lipgloss.NewRenderer(out),
		theme:    DefaultTheme(),
		barWidth: defaultBarWidth,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Surfaces returns the terminal as every surface.
func (t *Terminal) Surfaces() Surfaces {
	return Surfaces{Chart: t, Table: t, Slots: t}
}

// Flush writes the current frame.
func (t *Terminal) Flush(_ context.Context) error {
	if _, err := io.WriteString(t.out, t.Render()+"\n"); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Render returns the current frame.
func (t *Terminal) Render() string {
	v := t.View()
	heading := t.renderer.NewStyle().Bold(true).Foreground(t.theme.Heading)
	muted := t.renderer.NewStyle().Foreground(t.theme.Muted)

	sections := []string{
		heading.Render("Recent entries"),
		v.Primary,
		"",
		heading.Render("History"),
		t.renderTable(v.Rows, muted),
		"",
		heading.Render("Current form"),
		t.renderChart(v.Chart, muted),
		"",
		heading.Render("Alerts"),
	}
	if v.Alerts == "" {
		sections = append(sections, muted.Render(noAlertsText))
	} else {
		sections = append(sections, v.Alerts)
	}
	if v.FormStatus != "" {
		status := t.renderer.NewStyle().Foreground(t.theme.Status)
		sections = append(sections, "", status.Render(v.FormStatus))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (t *Terminal) renderTable(rows []projection.Row, muted lipgloss.Style) string {
	if len(rows) == 0 {
		return muted.Render("(no rows)")
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{r.PlayerName, r.MatchDate, r.PerformanceType, r.PerformanceValue}
	}

	header := t.renderer.NewStyle().Bold(true).PaddingRight(cellGap)
	cell := t.renderer.NewStyle().PaddingRight(cellGap)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(muted).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(tableHeaders...).
		Rows(cells...).
		String()
}

func (t *Terminal) renderChart(c *ChartView, muted lipgloss.Style) string {
	if c == nil || len(c.Data.Labels) == 0 {
		return muted.Render("(no players)")
	}
	batStyle := t.renderer.NewStyle().Foreground(t.theme.Batting)
	bowlStyle := t.renderer.NewStyle().Foreground(t.theme.Bowling)

	batMax := seriesMax(c.Data.Batting)
	bowlMax := seriesMax(c.Data.Bowling)

	lines := []string{
		batStyle.Render(barRune+" "+c.Axes.Datasets[0].Label) + "   " + bowlStyle.Render(barRune+" "+c.Axes.Datasets[1].Label),
	}
	for i, label := range c.Data.Labels {
		name := truncate(label, labelWidth)
		name += strings.Repeat(" ", max(labelWidth-lipgloss.Width(name), 0))
		lines = append(lines,
			name+" "+t.bar(batStyle, c.Data.Batting[i], batMax),
			strings.Repeat(" ", labelWidth)+" "+t.bar(bowlStyle, c.Data.Bowling[i], bowlMax),
		)
	}
	return strings.Join(lines, "\n")
}

func (t *Terminal) bar(style lipgloss.Style, v model.MetricValue, maxValue float64) string {
	f, ok := v.Float()
	if !ok {
		return v.String()
	}
	n := 0
	if maxValue > 0 && f > 0 {
		n = int(math.Round(f / maxValue * float64(t.barWidth)))
		n = max(n, 1)
	}
	return style.Render(strings.Repeat(barRune, n)) + " " + v.String()
}

func seriesMax(series []model.MetricValue) float64 {
	out := 0.0
	for _, v := range series {
		if f, ok := v.Float(); ok && f > out {
			out = f
		}
	}
	return out
}

func truncate(s string, width int) string {
	return ansi.Truncate(s, width, ellipsis)
}
