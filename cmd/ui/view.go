package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/deck/cmd/bitmap"
	"github.com/gigurra/deck/cmd/playback"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	artistStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	albumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	clockStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	buttonStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("236"))
	pressedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
)

// marqueeStep is how long the title stays put before scrolling one rune.
const marqueeStep = 300 * time.Millisecond

// Screen is what the panel shows. The pump owns it; nothing else writes it.
type Screen struct {
	Song     playback.Song
	HasSong  bool
	Duration time.Duration
	Progress time.Duration // last whole second posted by the controller
	Playing  bool
	Pressed  WidgetID

	sincePost time.Duration
	scroll    time.Duration
	offset    int
}

// Elapsed interpolates between progress posts while playing.
func (s *Screen) Elapsed() time.Duration {
	e := s.Progress
	if s.Playing {
		e += s.sincePost
	}
	if s.Duration > 0 && e > s.Duration {
		e = s.Duration
	}
	return e
}

// SetSong switches the displayed song and restarts the title scroll.
func (s *Screen) SetSong(song playback.Song) {
	s.Song = song
	s.HasSong = true
	s.scroll = 0
	s.offset = 0
}

// SetProgress records a progress post.
func (s *Screen) SetProgress(p time.Duration) {
	s.Progress = p
	s.sincePost = 0
}

// Advance moves animations forward by dt.
func (s *Screen) Advance(dt time.Duration) {
	if s.Playing {
		s.sincePost = min(s.sincePost+dt, time.Second)
	}
	s.scroll += dt
	for s.scroll >= marqueeStep {
		s.scroll -= marqueeStep
		s.offset++
	}
}

// Icons are the optional button bitmaps.
type Icons struct {
	Play, Pause, Prev, Next *bitmap.Bitmap
}

// View renders a Screen into a fixed-size frame.
type View struct {
	layout Layout
	labels map[string]string
}

// NewView creates a view for a width x height cell panel. Icons that are
// present replace the text labels.
func NewView(width, height int, icons Icons) *View {
	layout := NewLayout(width, height)
	v := &View{
		layout: layout,
		labels: map[string]string{
			"prev":  "|<",
			"play":  "▶",
			"pause": "❚❚",
			"next":  ">|",
		},
	}

	bw, bh := layout.Buttons[0].Rect.W-2, layout.Buttons[0].Rect.H
	for name, icon := range map[string]*bitmap.Bitmap{
		"prev": icons.Prev, "play": icons.Play, "pause": icons.Pause, "next": icons.Next,
	} {
		if icon == nil {
			continue
		}
		if art := icon.ASCII(bw, bh); art != nil {
			v.labels[name] = strings.Join(art, "\n")
		}
	}
	return v
}

// Layout returns the geometry used for hit testing.
func (v *View) Layout() Layout {
	return v.layout
}

// Render draws the whole frame, exactly Height lines of Width cells.
func (v *View) Render(s *Screen) string {
	w := v.layout.Width

	title, artist, album := "No songs", "", ""
	if s.HasSong {
		title, artist, album = s.Song.Meta.Title, s.Song.Meta.Artist, s.Song.Meta.Album
	}

	rows := []string{
		titleStyle.Render(Marquee(title, w, s.offset)),
		artistStyle.Render(PadRight(artist, w)),
		albumStyle.Render(PadRight(album, w)),
		strings.Repeat(" ", w),
		v.progress(s),
		strings.Repeat(" ", w),
	}
	rows = append(rows, v.buttons(s))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *View) progress(s *Screen) string {
	w := v.layout.Width
	clock := " " + FormatClock(s.Elapsed()) + "/" + FormatClock(s.Duration)
	barWidth := max(w-lipgloss.Width(clock), 1)

	filled := 0
	if s.Duration > 0 {
		filled = int(int64(barWidth) * int64(s.Elapsed()) / int64(s.Duration))
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return barStyle.Render(bar) + clockStyle.Render(PadRight(clock, w-barWidth))
}

func (v *View) buttons(s *Screen) string {
	cells := make([]string, 0, len(v.layout.Buttons))
	for _, b := range v.layout.Buttons {
		label := v.labels["prev"]
		switch b.ID {
		case PlayPauseButton:
			label = v.labels["play"]
			if s.Playing {
				label = v.labels["pause"]
			}
		case NextButton:
			label = v.labels["next"]
		}

		style := buttonStyle
		if s.Pressed == b.ID {
			style = pressedStyle
		}
		cells = append(cells, style.
			Width(b.Rect.W).
			Height(b.Rect.H).
			MaxHeight(b.Rect.H).
			Align(lipgloss.Center, lipgloss.Center).
			Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}
