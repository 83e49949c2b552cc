package playback

import (
	"errors"
	"time"
)

var ErrEmptySongList = errors.New("playback: song list is empty")

const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// DefaultBitRate is the nominal bit rate used to estimate durations.
const DefaultBitRate = 128000

// Metadata is the descriptive part of a song.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// WithDefaults fills empty fields with the "Unknown ..." placeholders.
func (m Metadata) WithDefaults() Metadata {
	if m.Title == "" {
		m.Title = UnknownTitle
	}
	if m.Artist == "" {
		m.Artist = UnknownArtist
	}
	if m.Album == "" {
		m.Album = UnknownAlbum
	}
	return m
}

// Song is one media file found at startup.
type Song struct {
	ID       string        // Unique identifier
	Name     string        // File name without extension
	Path     string        // Path inside the storage root
	Size     int64         // Size in bytes
	Duration time.Duration // Estimated from Size at the nominal bit rate
	Meta     Metadata
}

// EstimateDuration derives a duration from a file size at a fixed bit rate.
func EstimateDuration(size int64, bitRate int) time.Duration {
	if size <= 0 || bitRate <= 0 {
		return 0
	}
	return time.Duration(size*8) * time.Second / time.Duration(bitRate)
}

// SongList is the ordered song list plus the playback cursor. The songs
// are fixed at construction; only the cursor moves.
type SongList struct {
	songs  []Song
	cursor int
}

// NewSongList creates a list positioned on the first song.
func NewSongList(songs []Song) *SongList {
	return &SongList{songs: append([]Song(nil), songs...)}
}

// Len returns the number of songs.
func (l *SongList) Len() int {
	return len(l.songs)
}

// Index returns the cursor position.
func (l *SongList) Index() int {
	return l.cursor
}

// Songs returns a copy of the list.
func (l *SongList) Songs() []Song {
	return append([]Song(nil), l.songs...)
}

// Current returns the song under the cursor.
func (l *SongList) Current() (Song, error) {
	if len(l.songs) == 0 {
		return Song{}, ErrEmptySongList
	}
	return l.songs[l.cursor], nil
}

// Next moves the cursor forward, wrapping to the first song.
func (l *SongList) Next() (Song, error) {
	if len(l.songs) == 0 {
		return Song{}, ErrEmptySongList
	}
	l.cursor = (l.cursor + 1) % len(l.songs)
	return l.songs[l.cursor], nil
}

// Prev moves the cursor back, wrapping to the last song.
func (l *SongList) Prev() (Song, error) {
	if len(l.songs) == 0 {
		return Song{}, ErrEmptySongList
	}
	l.cursor = (l.cursor - 1 + len(l.songs)) % len(l.songs)
	return l.songs[l.cursor], nil
}
