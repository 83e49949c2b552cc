// Package playback owns the song cursor and transport state. It consumes
// commands from the UI and publishes the current song, progress and
// duration through latest-value mailboxes.
package playback

import "fmt"

// Command is a transport request from the UI.
type Command uint8

const (
	Previous Command = iota
	Play
	Pause
	Next
)

func (c Command) String() string {
	switch c {
	case Previous:
		return "previous"
	case Play:
		return "play"
	case Pause:
		return "pause"
	case Next:
		return "next"
	}
	return fmt.Sprintf("command(%d)", uint8(c))
}
