// Package library discovers songs on the storage medium.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gigurra/deck/cmd/playback"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

var ErrTooManySongs = errors.New("library: too many songs")

// Scan walks root depth-first and returns every regular file whose
// extension matches ext (case-insensitive), in walk order. Finding more
// than max songs is an error; max <= 0 means no limit.
func Scan(afs afero.Fs, root, ext string, max int) ([]playback.Song, error) {
	var paths []string
	err := afero.Walk(afs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	paths = lo.Filter(paths, func(p string, _ int) bool {
		return strings.EqualFold(filepath.Ext(p), ext)
	})
	if max > 0 && len(paths) > max {
		return nil, fmt.Errorf("%w: found %d, capacity %d", ErrTooManySongs, len(paths), max)
	}

	songs := make([]playback.Song, 0, len(paths))
	for _, p := range paths {
		song, err := load(afs, p)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	return songs, nil
}

func load(afs afero.Fs, path string) (playback.Song, error) {
	info, err := afs.Stat(path)
	if err != nil {
		return playback.Song{}, err
	}

	meta, err := ReadMetadata(afs, path)
	if err != nil && !errors.Is(err, ErrNoMetadata) {
		slog.Debug("unreadable metadata", "path", path, "error", err)
	}

	base := filepath.Base(path)
	return playback.Song{
		ID:       uuid.NewString(),
		Name:     strings.TrimSuffix(base, filepath.Ext(base)),
		Path:     path,
		Size:     info.Size(),
		Duration: playback.EstimateDuration(info.Size(), playback.DefaultBitRate),
		Meta:     meta.WithDefaults(),
	}, nil
}

// WithBitRate re-estimates every song's duration at bitRate.
func WithBitRate(songs []playback.Song, bitRate int) []playback.Song {
	return lo.Map(songs, func(s playback.Song, _ int) playback.Song {
		s.Duration = playback.EstimateDuration(s.Size, bitRate)
		return s
	})
}
