package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Zachdehooge/crossing-dashboard/internal/gate"
)

type Styles struct {
	Title     lipgloss.Style
	Hero      lipgloss.Style
	HeroLarge lipgloss.Style
	Countdown lipgloss.Style
	Muted     lipgloss.Style
	Header    lipgloss.Style
	Current   lipgloss.Style
	Empty     lipgloss.Style
	Help      lipgloss.Style
	Chips     map[gate.State]lipgloss.Style
}

func DefaultStyles() Styles {
	chip := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	hero := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1)

	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e0e0e0")).MarginBottom(1),
		Hero:      hero,
		HeroLarge: hero.Padding(1, 2),
		Countdown: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Header:    lipgloss.NewStyle().Bold(true).Underline(true),
		Current:   lipgloss.NewStyle().Bold(true).Underline(true),
		Empty:     lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#888888")),
		Help:      lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).MarginTop(1),
		Chips: map[gate.State]lipgloss.Style{
			gate.Open:    chip.Background(lipgloss.Color("#1a3d24")).Foreground(lipgloss.Color("#c3e88d")),
			gate.Closing: chip.Background(lipgloss.Color("#3d2e1a")).Foreground(lipgloss.Color("#ffcb6b")),
			gate.Closed:  chip.Background(lipgloss.Color("#3d1a1a")).Foreground(lipgloss.Color("#ff5370")),
		},
	}
}

func (s Styles) Chip(st gate.State) string {
	return s.Chips[st].Render(st.Icon() + " " + st.Label())
}
