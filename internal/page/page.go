// Package page holds the document model a crossing session mutates. It is
// owned by the event loop goroutine; renderers only ever see Snapshot values.
package page

import (
	"github.com/Zachdehooge/crossing-dashboard/internal/gate"
)

// Hero is the "next train" card.
type Hero struct {
	ArrivalAttr  string
	TrainNo      string
	Name         string
	ETAFormatted string
	Countdown    string
	Aria         string
	Gate         gate.State
}

// Sticky is the bar pinned to the bottom of the page.
type Sticky struct {
	Enabled   bool
	Visible   bool
	Countdown string
	Gate      gate.State
	Progress  float64
}

// Row is one train in the cards/table list.
type Row struct {
	TrainNo      string
	Name         string
	Source       string
	ArrivalAttr  string
	ETAFormatted string
	Relative     string
}

// PageLink is a pagination entry. Ellipsis entries have Number 0.
type PageLink struct {
	Number   int
	Current  bool
	Ellipsis bool
}

type Pagination struct {
	Page       int
	TotalPages int
	Total      int
	Links      []PageLink
}

type Controls struct {
	AutoRefresh     bool
	IntervalSeconds int
	Loading         bool
}

// Snapshot is an immutable copy of the page for renderers.
type Snapshot struct {
	Hero        *Hero
	Sticky      Sticky
	Rows        []Row
	Empty       string
	Pagination  Pagination
	Controls    Controls
	FontScale   int
	LastUpdated string
}

type Page struct {
	hero        *Hero
	sticky      Sticky
	rows        []Row
	empty       string
	pagination  Pagination
	controls    Controls
	fontScale   int
	lastUpdated string
	dirty       bool
}

// New returns an empty page. stickyBar controls whether the sticky progress
// bar exists at all.
func New(stickyBar bool) *Page {
	return &Page{
		sticky: Sticky{Enabled: stickyBar},
		dirty:  true,
	}
}

// TakeDirty reports whether the page changed since the last call and resets
// the flag.
func (p *Page) TakeDirty() bool {
	d := p.dirty
	p.dirty = false
	return d
}

func (p *Page) Snapshot() Snapshot {
	s := Snapshot{
		Sticky:      p.sticky,
		Empty:       p.empty,
		Pagination:  p.pagination,
		Controls:    p.controls,
		FontScale:   p.fontScale,
		LastUpdated: p.lastUpdated,
	}
	if p.hero != nil {
		h := *p.hero
		s.Hero = &h
	}
	if p.rows != nil {
		s.Rows = append([]Row(nil), p.rows...)
	}
	s.Pagination.Links = append([]PageLink(nil), p.pagination.Links...)
	return s
}

// ShowHero replaces the hero card, including any countdown text left from
// the previous train.
func (p *Page) ShowHero(h Hero) {
	p.hero = &h
	p.sticky.Countdown = ""
	p.sticky.Progress = 0
	p.sticky.Visible = p.sticky.Enabled
	p.dirty = true
}

func (p *Page) ClearHero() {
	if p.hero == nil {
		return
	}
	p.hero = nil
	p.sticky.Visible = false
	p.sticky.Countdown = ""
	p.sticky.Progress = 0
	p.dirty = true
}

// Countdown view. Every setter is a no-op without a hero.

func (p *Page) SetCountdown(text string) {
	if p.hero == nil {
		return
	}
	p.setString(&p.hero.Countdown, text)
	if p.sticky.Visible {
		p.setString(&p.sticky.Countdown, text)
	}
}

func (p *Page) SetAria(text string) {
	if p.hero == nil {
		return
	}
	p.setString(&p.hero.Aria, text)
}

func (p *Page) SetGate(s gate.State) {
	if p.hero == nil {
		return
	}
	if p.hero.Gate != s || p.sticky.Gate != s {
		p.hero.Gate = s
		p.sticky.Gate = s
		p.dirty = true
	}
}

func (p *Page) SetProgress(frac float64) {
	if p.hero == nil || !p.sticky.Visible {
		return
	}
	if p.sticky.Progress != frac {
		p.sticky.Progress = frac
		p.dirty = true
	}
}

// Relative-time view.

// ArrivalAttrs returns the arrival timestamp attribute of every row, in
// display order.
func (p *Page) ArrivalAttrs() []string {
	attrs := make([]string, len(p.rows))
	for i, r := range p.rows {
		attrs[i] = r.ArrivalAttr
	}
	return attrs
}

func (p *Page) SetRelative(i int, label string) {
	if i < 0 || i >= len(p.rows) {
		return
	}
	p.setString(&p.rows[i].Relative, label)
}

// Refresh view.

func (p *Page) SetLoading(loading bool) {
	if p.controls.Loading != loading {
		p.controls.Loading = loading
		p.dirty = true
	}
}

// ShowRows replaces every row and clears any empty-state message.
func (p *Page) ShowRows(rows []Row, pg Pagination) {
	p.rows = append([]Row(nil), rows...)
	p.empty = ""
	p.pagination = pg
	p.dirty = true
}

func (p *Page) ShowEmpty(msg string, pg Pagination) {
	p.rows = nil
	p.empty = msg
	p.pagination = pg
	p.dirty = true
}

func (p *Page) SetLastUpdated(text string) {
	p.setString(&p.lastUpdated, text)
}

// Controls and font scale.

func (p *Page) SetAutoRefresh(on bool) {
	if p.controls.AutoRefresh != on {
		p.controls.AutoRefresh = on
		p.dirty = true
	}
}

func (p *Page) SetIntervalSeconds(secs int) {
	if p.controls.IntervalSeconds != secs {
		p.controls.IntervalSeconds = secs
		p.dirty = true
	}
}

func (p *Page) SetFontScale(px int) {
	if p.fontScale != px {
		p.fontScale = px
		p.dirty = true
	}
}

func (p *Page) Rows() []Row {
	return append([]Row(nil), p.rows...)
}

func (p *Page) Hero() (Hero, bool) {
	if p.hero == nil {
		return Hero{}, false
	}
	return *p.hero, true
}

func (p *Page) setString(dst *string, v string) {
	if *dst != v {
		*dst = v
		p.dirty = true
	}
}
