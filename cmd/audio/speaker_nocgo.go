//go:build !cgo

package audio

import "log/slog"

// SpeakerAvailable reports whether this build can play sound. The sound
// device needs cgo, so this build streams silently at the nominal rate.
const SpeakerAvailable = false

// NewOutput returns a paced silent output.
func NewOutput(bitRate int, logger *slog.Logger) Output {
	if logger != nil {
		logger.Info("audio output unavailable without cgo, streaming silently")
	}
	return NewPacedOutput(bitRate)
}
