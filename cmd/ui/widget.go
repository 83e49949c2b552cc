package ui

import (
	"github.com/gigurra/deck/cmd/playback"
	"github.com/gigurra/deck/cmd/touch"
)

// WidgetID names a control on the panel.
type WidgetID uint8

const (
	NoWidget WidgetID = iota
	PrevButton
	PlayPauseButton
	NextButton
)

func (w WidgetID) String() string {
	switch w {
	case PrevButton:
		return "prev"
	case PlayPauseButton:
		return "play/pause"
	case NextButton:
		return "next"
	}
	return "none"
}

// Rect is a cell rectangle, half-open on the right and bottom.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Contains(p touch.Point) bool {
	x, y := int(p.X), int(p.Y)
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Layout places the panel's text rows and buttons.
type Layout struct {
	Width, Height int
	ProgressRow   int
	Buttons       []Button
}

type Button struct {
	ID   WidgetID
	Rect Rect
}

const (
	MinWidth   = 24
	MinHeight  = 8
	headerRows = 6
)

// NewLayout lays out a panel of width x height cells: title, artist and
// album on top, the progress bar below them and three buttons filling the
// rest.
func NewLayout(width, height int) Layout {
	width = max(width, MinWidth)
	height = max(height, MinHeight)

	bw := width / 3
	bh := height - headerRows
	ids := []WidgetID{PrevButton, PlayPauseButton, NextButton}
	buttons := make([]Button, len(ids))
	for i, id := range ids {
		w := bw
		if i == len(ids)-1 {
			w = width - 2*bw
		}
		buttons[i] = Button{ID: id, Rect: Rect{X: i * bw, Y: headerRows, W: w, H: bh}}
	}

	return Layout{Width: width, Height: height, ProgressRow: 4, Buttons: buttons}
}

// Hit returns the widget under p.
func (l Layout) Hit(p touch.Point) WidgetID {
	for _, b := range l.Buttons {
		if b.Rect.Contains(p) {
			return b.ID
		}
	}
	return NoWidget
}

// dispatch maps a control to the command it sends given the displayed
// transport state.
var dispatch = map[WidgetID]func(playing bool) playback.Command{
	PrevButton: func(bool) playback.Command { return playback.Previous },
	NextButton: func(bool) playback.Command { return playback.Next },
	PlayPauseButton: func(playing bool) playback.Command {
		if playing {
			return playback.Pause
		}
		return playback.Play
	},
}

// Gesture turns TOUCH/RELEASE pairs into clicks: a click fires when the
// release lands on the widget the touch started on.
type Gesture struct {
	layout  Layout
	pressed WidgetID
}

// Input feeds one event and returns the clicked widget, if any.
func (g *Gesture) Input(ev touch.Event) (WidgetID, bool) {
	switch ev.Kind {
	case touch.Touch:
		g.pressed = g.layout.Hit(ev.Point)
	case touch.Release:
		pressed := g.pressed
		g.pressed = NoWidget
		if pressed != NoWidget && g.layout.Hit(ev.Point) == pressed {
			return pressed, true
		}
	}
	return NoWidget, false
}

// Pressed returns the widget currently held down.
func (g *Gesture) Pressed() WidgetID {
	return g.pressed
}
