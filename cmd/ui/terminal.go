package ui

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gigurra/deck/cmd/touch"
	"golang.org/x/term"
)

// ErrQuit is returned by Terminal.Run when the user quits.
var ErrQuit = errors.New("ui: quit")

const refreshInterval = 20 * time.Millisecond

// Terminal is a panel drawn in the terminal. It is both the Display and
// the touch Sensor: the mouse stands in for a finger. Like the real panel
// it is mounted upside down, so raw points come out inverted and need
// touch.InvertAxes to land on the display.
type Terminal struct {
	width, height int

	mu      sync.Mutex
	frame   string
	touched bool
	latched bool // a press not yet seen by Touched
	raw     touch.Point
}

// NewTerminal creates a width x height cell panel.
func NewTerminal(width, height int) *Terminal {
	return &Terminal{width: width, height: height}
}

// PanelSize returns the current terminal size, or the given fallback when
// stdout is not a terminal.
func PanelSize(fallbackWidth, fallbackHeight int) (int, int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return fallbackWidth, fallbackHeight
	}
	return w, h
}

func (t *Terminal) Size() (int, int) {
	return t.width, t.height
}

// Draw replaces the frame shown on the next refresh. It never blocks.
func (t *Terminal) Draw(frame string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frame = frame
}

// Touched reports whether the button is down. A press is reported at least
// once even when it was released before the next sample.
func (t *Terminal) Touched() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	touched := t.touched || t.latched
	t.latched = false
	return touched
}

func (t *Terminal) RawPoint() touch.Point {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.raw
}

func (t *Terminal) mouse(msg tea.MouseMsg) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		t.touched = true
		t.latched = true
	case tea.MouseActionRelease:
		t.touched = false
		return
	case tea.MouseActionMotion:
		if !t.touched {
			return
		}
	}
	t.raw = touch.Point{
		X: int16(t.width - msg.X),
		Y: int16(t.height - msg.Y),
	}
}

func (t *Terminal) view() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frame
}

// Run shows the panel until ctx is done or the user quits.
func (t *Terminal) Run(ctx context.Context) error {
	p := tea.NewProgram(panelModel{term: t},
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return ErrQuit
}

type refreshMsg time.Time

type panelModel struct {
	term *Terminal
}

func refreshCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m panelModel) Init() tea.Cmd {
	return refreshCmd()
}

func (m panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		return m, refreshCmd()
	case tea.MouseMsg:
		m.term.mouse(msg)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m panelModel) View() string {
	return m.term.view()
}
