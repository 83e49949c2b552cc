// Package audio moves song bytes from storage to the audio output in
// fixed-size chunks.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gigurra/deck/cmd/playback"
	"github.com/spf13/afero"
)

var ErrNotOpen = errors.New("audio: no song open")

// Output is the decoder side of the stream. Begin starts a new song, which
// is heard once the previous ended song has played out. End marks that
// every byte has been written. Stop abandons everything still buffered.
type Output interface {
	Begin() error
	Write(ctx context.Context, p []byte) error
	End() error
	Stop()
	SetPaused(paused bool)
	Close() error
}

// FileStreamer reads the open song in chunks and hands them to an Output.
type FileStreamer struct {
	fs    afero.Fs
	chunk []byte
	out   Output
	file  afero.File
	path  string
}

// NewFileStreamer creates a streamer reading chunkSize bytes per Stream call.
func NewFileStreamer(fs afero.Fs, chunkSize int, out Output) *FileStreamer {
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	return &FileStreamer{fs: fs, chunk: make([]byte, chunkSize), out: out}
}

// Open opens song from the start. A song still open is cut off; one that
// reached its end is left to play out.
func (s *FileStreamer) Open(song playback.Song) error {
	if s.file != nil {
		s.closeFile()
		s.out.Stop()
	}

	f, err := s.fs.Open(song.Path)
	if err != nil {
		return err
	}
	if err := s.out.Begin(); err != nil {
		f.Close()
		return fmt.Errorf("starting output for %s: %w", song.Path, err)
	}
	s.file = f
	s.path = song.Path
	return nil
}

// Stream moves one chunk. It reports complete once the file is exhausted,
// after which the song is closed.
func (s *FileStreamer) Stream(ctx context.Context) (bool, error) {
	if s.file == nil {
		return false, ErrNotOpen
	}

	n, err := s.file.Read(s.chunk)
	if n > 0 {
		if werr := s.out.Write(ctx, s.chunk[:n]); werr != nil {
			return false, fmt.Errorf("writing %s: %w", s.path, werr)
		}
	}
	switch {
	case errors.Is(err, io.EOF):
		s.closeFile()
		return true, s.out.End()
	case err != nil:
		return false, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return false, nil
}

// SetPaused forwards the transport state to the output.
func (s *FileStreamer) SetPaused(paused bool) {
	s.out.SetPaused(paused)
}

// Close releases the file and the output.
func (s *FileStreamer) Close() error {
	s.closeFile()
	return s.out.Close()
}

func (s *FileStreamer) closeFile() {
	if s.file != nil {
		s.file.Close()
		s.file = nil
		s.path = ""
	}
}
