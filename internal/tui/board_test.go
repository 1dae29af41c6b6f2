package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zachdehooge/crossing-dashboard/internal/gate"
	"github.com/Zachdehooge/crossing-dashboard/internal/page"
)

type recordedActions struct {
	calls []string
}

func (r *recordedActions) Refresh()              { r.calls = append(r.calls, "refresh") }
func (r *recordedActions) ToggleAutoRefresh()    { r.calls = append(r.calls, "toggle") }
func (r *recordedActions) AdjustInterval(d int)  { r.calls = append(r.calls, "interval"+sign(d)) }
func (r *recordedActions) AdjustFontScale(d int) { r.calls = append(r.calls, "font"+sign(d)) }

func sign(d int) string {
	if d > 0 {
		return "+"
	}
	return "-"
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeyBindings(t *testing.T) {
	actions := &recordedActions{}
	var m tea.Model = NewModel(NewBoard(), actions)

	for _, k := range []string{"r", "a", "+", "-", ">", "<"} {
		m, _ = m.Update(key(k))
	}

	want := []string{"refresh", "toggle", "interval+", "interval-", "font+", "font-"}
	if strings.Join(actions.calls, ",") != strings.Join(want, ",") {
		t.Errorf("actions = %v, expected %v", actions.calls, want)
	}

	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q did not return a quit command")
	}
}

func TestViewBeforeFirstSnapshot(t *testing.T) {
	m := NewModel(NewBoard(), &recordedActions{})
	if !strings.Contains(m.View(), "loading") {
		t.Error("view without a snapshot should show loading")
	}
}

func TestViewRendersSnapshot(t *testing.T) {
	board := NewBoard()
	board.Publish(page.Snapshot{
		Hero: &page.Hero{TrainNo: "12627", Name: "Karnataka Exp", Countdown: "1 min, 30 secs", Gate: gate.Closing, ETAFormatted: "10:15"},
		Sticky: page.Sticky{Enabled: true, Visible: true, Countdown: "1 min, 30 secs", Gate: gate.Closing, Progress: 0.4},
		Rows: []page.Row{
			{TrainNo: "12627", Name: "Karnataka Exp", ETAFormatted: "10:15", Relative: "in 1 minute and 30 seconds", Source: "erail"},
		},
		Pagination:  page.Pagination{Page: 1, TotalPages: 3, Links: []page.PageLink{{Number: 1, Current: true}, {Number: 2}, {Number: 3}}},
		Controls:    page.Controls{AutoRefresh: true, IntervalSeconds: 60},
		FontScale:   18,
		LastUpdated: "Last updated 10:13:30",
	})

	var m tea.Model = NewModel(board, &recordedActions{})
	m, _ = m.Update(pollMsg(time.Now()))
	view := m.View()

	for _, want := range []string{
		"#12627 Karnataka Exp",
		"1 min, 30 secs",
		"Gate Closing Soon",
		"in 1 minute and 30 seconds",
		"on, every 60s",
		"Last updated 10:13:30",
		"Page ",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestViewEmptyState(t *testing.T) {
	board := NewBoard()
	board.Publish(page.Snapshot{Empty: "No upcoming trains at this crossing right now.", FontScale: 18})

	var m tea.Model = NewModel(board, &recordedActions{})
	m, _ = m.Update(pollMsg(time.Now()))
	view := m.View()

	if !strings.Contains(view, "No upcoming trains") {
		t.Errorf("empty message missing:\n%s", view)
	}
	if strings.Contains(view, "Next:") {
		t.Error("hero rendered without a next train")
	}
}

func TestBoardLatest(t *testing.T) {
	b := NewBoard()
	if _, ok := b.Latest(); ok {
		t.Error("new board reported a snapshot")
	}
	b.Publish(page.Snapshot{FontScale: 22})
	b.Publish(page.Snapshot{FontScale: 23})
	if s, ok := b.Latest(); !ok || s.FontScale != 23 {
		t.Errorf("Latest() = %+v, %v", s, ok)
	}
}
