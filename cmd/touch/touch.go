// Package touch turns periodic touch-panel samples into edge-triggered
// TOUCH and RELEASE events.
package touch

import "fmt"

// Kind tags an Event.
type Kind uint8

const (
	None Kind = iota
	Touch
	Release
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Touch:
		return "touch"
	case Release:
		return "release"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Point is a screen coordinate.
type Point struct {
	X, Y int16
}

// Event is what the input task sends to the UI. None is never sent.
type Event struct {
	Kind  Kind
	Point Point
}

// State is the input state machine's state.
type State uint8

const (
	StateIdle State = iota
	StateTouch
	StateRelease
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTouch:
		return "touch"
	case StateRelease:
		return "release"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Sensor is the touch controller.
type Sensor interface {
	Touched() bool
	// RawPoint is only meaningful while Touched reports true.
	RawPoint() Point
}

// Transform maps raw sensor coordinates to screen coordinates.
type Transform func(raw Point) Point

// Identity leaves coordinates untouched.
func Identity(raw Point) Point { return raw }

// InvertAxes maps a panel mounted upside down relative to the display:
// x runs from width to 0 and y from height to 0.
func InvertAxes(width, height int16) Transform {
	return func(raw Point) Point {
		return Point{
			X: mapRange(raw.X, 0, width, width, 0),
			Y: mapRange(raw.Y, 0, height, height, 0),
		}
	}
}

func mapRange(x, inMin, inMax, outMin, outMax int16) int16 {
	return int16((int32(x)-int32(inMin))*(int32(outMax)-int32(outMin))/(int32(inMax)-int32(inMin)) + int32(outMin))
}

// Machine is the IDLE -> TOUCH -> RELEASE -> IDLE state machine. It emits
// TOUCH when leaving IDLE and RELEASE once the panel has read "not touched"
// for timeout consecutive samples. A touch during RELEASE returns to TOUCH
// without a new event.
type Machine struct {
	state     State
	timeout   int
	released  int
	point     Point
	transform Transform
}

// NewMachine creates a machine in IDLE. A timeout below one is treated as one.
func NewMachine(timeout int, transform Transform) *Machine {
	if timeout < 1 {
		timeout = 1
	}
	if transform == nil {
		transform = Identity
	}
	return &Machine{timeout: timeout, transform: transform}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Step feeds one sample. sample is only called while touched, since the
// panel cannot report a position after contact ends; RELEASE carries the
// last touched position.
func (m *Machine) Step(touched bool, sample func() Point) (Event, bool) {
	if touched {
		m.point = m.transform(sample())
	}

	switch m.state {
	case StateIdle:
		if touched {
			m.state = StateTouch
			return Event{Kind: Touch, Point: m.point}, true
		}

	case StateTouch:
		if !touched {
			m.state = StateRelease
			m.released = 1
			return m.expire()
		}

	case StateRelease:
		if touched {
			m.state = StateTouch
			m.released = 0
			return Event{}, false
		}
		m.released++
		return m.expire()

	default:
		m.state = StateIdle
	}

	return Event{}, false
}

func (m *Machine) expire() (Event, bool) {
	if m.released < m.timeout {
		return Event{}, false
	}
	m.state = StateIdle
	m.released = 0
	return Event{Kind: Release, Point: m.point}, true
}
