package library

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gigurra/deck/cmd/playback"
	"github.com/spf13/afero"
)

var ErrNoMetadata = errors.New("library: no metadata record")

// Trailing metadata record layout: "TAG", then fixed-width title, artist
// and album fields, padded with NULs or spaces.
const (
	recordSize  = 128
	recordMagic = "TAG"
	fieldSize   = 30
)

// ReadMetadata reads the trailing metadata record of the file at path.
// Files without one return ErrNoMetadata.
func ReadMetadata(fs afero.Fs, path string) (playback.Metadata, error) {
	f, err := fs.Open(path)
	if err != nil {
		return playback.Metadata{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return playback.Metadata{}, err
	}
	return readRecord(f, info.Size())
}

func readRecord(r io.ReaderAt, size int64) (playback.Metadata, error) {
	if size < recordSize {
		return playback.Metadata{}, ErrNoMetadata
	}

	buf := make([]byte, recordSize)
	if _, err := r.ReadAt(buf, size-recordSize); err != nil && !errors.Is(err, io.EOF) {
		return playback.Metadata{}, fmt.Errorf("reading metadata record: %w", err)
	}
	if string(buf[:len(recordMagic)]) != recordMagic {
		return playback.Metadata{}, ErrNoMetadata
	}

	field := func(i int) string {
		start := len(recordMagic) + i*fieldSize
		return string(bytes.TrimRight(buf[start:start+fieldSize], "\x00 "))
	}
	return playback.Metadata{
		Title:  field(0),
		Artist: field(1),
		Album:  field(2),
	}, nil
}
