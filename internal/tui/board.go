// Package tui renders crossing page snapshots as a live terminal board.
package tui

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zachdehooge/crossing-dashboard/internal/page"
)

const pollInterval = 200 * time.Millisecond

// Actions are the user actions the board can trigger. Implementations must be
// safe to call from the UI goroutine.
type Actions interface {
	Refresh()
	ToggleAutoRefresh()
	AdjustInterval(deltaSeconds int)
	AdjustFontScale(delta int)
}

// Board hands snapshots from the session loop to the UI goroutine.
type Board struct {
	latest atomic.Pointer[page.Snapshot]
}

func NewBoard() *Board {
	return &Board{}
}

// Publish stores s as the snapshot the next frame will draw.
func (b *Board) Publish(s page.Snapshot) {
	b.latest.Store(&s)
}

func (b *Board) Latest() (page.Snapshot, bool) {
	s := b.latest.Load()
	if s == nil {
		return page.Snapshot{}, false
	}
	return *s, true
}

type pollMsg time.Time

func pollCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

type Model struct {
	board   *Board
	actions Actions
	styles  Styles

	snap    page.Snapshot
	ready   bool
	width   int
	spinner spinner.Model
	bar     progress.Model
}

func NewModel(board *Board, actions Actions) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		board:   board,
		actions: actions,
		styles:  DefaultStyles(),
		spinner: s,
		bar: progress.New(
			progress.WithGradient("#89ddff", "#ff5370"),
			progress.WithWidth(60),
			progress.WithoutPercentage(),
		),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, pollCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.actions.Refresh()
		case "a":
			m.actions.ToggleAutoRefresh()
		case "+", "=":
			m.actions.AdjustInterval(10)
		case "-", "_":
			m.actions.AdjustInterval(-10)
		case ">", ".":
			m.actions.AdjustFontScale(1)
		case "<", ",":
			m.actions.AdjustFontScale(-1)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(10, min(80, msg.Width-4))
		return m, nil

	case pollMsg:
		if s, ok := m.board.Latest(); ok {
			m.snap = s
			m.ready = true
		}
		return m, pollCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("🚦 Level Crossing Status"))
	b.WriteString("\n")

	if !m.ready {
		b.WriteString(m.spinner.View() + " loading…\n")
		return b.String()
	}
	s := m.snap

	if s.Hero != nil {
		b.WriteString(m.heroView(s))
		b.WriteString("\n")
	}

	b.WriteString(m.controlsView(s))
	b.WriteString("\n\n")

	if s.Empty != "" {
		b.WriteString(m.styles.Empty.Render(s.Empty))
		b.WriteString("\n")
	} else {
		b.WriteString(m.rowsView(s))
	}

	if s.Pagination.TotalPages > 1 {
		b.WriteString("\n" + m.paginationView(s.Pagination) + "\n")
	}
	if s.LastUpdated != "" {
		b.WriteString("\n" + m.styles.Muted.Render(s.LastUpdated) + "\n")
	}
	if s.Sticky.Visible {
		b.WriteString("\n" + s.Sticky.Countdown + "  " + m.styles.Chip(s.Sticky.Gate) + "\n")
		b.WriteString(m.bar.ViewAs(s.Sticky.Progress) + "\n")
	}

	b.WriteString(m.styles.Help.Render("r refresh · a auto-refresh · +/- interval · </> text size · q quit"))
	return b.String()
}

func (m Model) heroView(s page.Snapshot) string {
	h := s.Hero
	body := fmt.Sprintf("Next: #%s %s   %s\n%s\n%s",
		h.TrainNo, h.Name,
		m.styles.Chip(h.Gate),
		m.styles.Countdown.Render(h.Countdown),
		m.styles.Muted.Render("Arrives at "+h.ETAFormatted),
	)
	style := m.styles.Hero
	if s.FontScale > 20 {
		style = m.styles.HeroLarge
	}
	return style.Render(body)
}

func (m Model) controlsView(s page.Snapshot) string {
	auto := "off"
	if s.Controls.AutoRefresh {
		auto = fmt.Sprintf("on, every %ds", s.Controls.IntervalSeconds)
	}
	line := fmt.Sprintf("Auto refresh: %s · text size %dpx", auto, s.FontScale)
	if s.Controls.Loading {
		line += " · " + m.spinner.View() + " refreshing"
	}
	return m.styles.Muted.Render(line)
}

func (m Model) rowsView(s page.Snapshot) string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render(fmt.Sprintf("%-8s %-28s %-8s %-28s %s", "Train", "Name", "ETA", "", "Source")))
	b.WriteString("\n")
	for _, r := range s.Rows {
		line := fmt.Sprintf("%-8s %-28s %-8s %-28s %s", "#"+r.TrainNo, truncate(r.Name, 28), r.ETAFormatted, r.Relative, r.Source)
		if s.Controls.Loading {
			line = m.styles.Muted.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) paginationView(p page.Pagination) string {
	parts := make([]string, 0, len(p.Links))
	for _, l := range p.Links {
		switch {
		case l.Ellipsis:
			parts = append(parts, "…")
		case l.Current:
			parts = append(parts, m.styles.Current.Render(fmt.Sprintf("%d", l.Number)))
		default:
			parts = append(parts, fmt.Sprintf("%d", l.Number))
		}
	}
	return "Page " + strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
