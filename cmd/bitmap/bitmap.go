// Package bitmap loads small grayscale icons (binary PGM) into a fixed
// pool of frame buffers.
package bitmap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gigurra/deck/cmd/rtos"
	"github.com/spf13/afero"
)

var (
	ErrBadMagic    = errors.New("bitmap: not a binary PGM file")
	ErrBadHeader   = errors.New("bitmap: malformed header")
	ErrUnsupported = errors.New("bitmap: unsupported maxval")
	ErrTooLarge    = errors.New("bitmap: image too large")
)

const (
	MaxSide = 64 // Largest width or height
	Slots   = 4  // Frame buffers in the pool
)

// Pixels is one frame buffer, row-major.
type Pixels [MaxSide * MaxSide]byte

// Loader reads PGM files into pooled frame buffers.
type Loader struct {
	fs   afero.Fs
	pool *rtos.Pool[Pixels]
}

// NewLoader creates a loader with Slots frame buffers.
func NewLoader(fs afero.Fs) (*Loader, error) {
	pool, err := rtos.NewPool[Pixels](Slots)
	if err != nil {
		return nil, err
	}
	return &Loader{fs: fs, pool: pool}, nil
}

// Available returns the number of free frame buffers.
func (l *Loader) Available() int {
	return l.pool.Available()
}

// Bitmap is a loaded image. Its pixels live in the loader's pool until
// Release.
type Bitmap struct {
	Name   string
	Width  int
	Height int
	MaxVal int

	pool   *rtos.Pool[Pixels]
	handle rtos.Handle
}

// Load parses the file at path. Running out of frame buffers returns an
// error wrapping rtos.ErrExhausted.
func (l *Loader) Load(path string) (*Bitmap, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	width, height, maxval, err := readHeader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var px Pixels
	for y := 0; y < height; y++ {
		if _, err := io.ReadFull(r, px[y*MaxSide:y*MaxSide+width]); err != nil {
			return nil, fmt.Errorf("%s: reading pixels: %w", path, err)
		}
	}

	h, err := l.pool.Acquire()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := l.pool.Store(h, px); err != nil {
		l.pool.Release(h)
		return nil, err
	}

	return &Bitmap{
		Name:   path,
		Width:  width,
		Height: height,
		MaxVal: maxval,
		pool:   l.pool,
		handle: h,
	}, nil
}

func readHeader(r *bufio.Reader) (width, height, maxval int, err error) {
	magic := make([]byte, 2)
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != "P5" {
		return 0, 0, 0, ErrBadMagic
	}

	for _, field := range []*int{&width, &height, &maxval} {
		if *field, err = readNumber(r); err != nil {
			return 0, 0, 0, err
		}
	}

	switch {
	case maxval <= 0 || maxval >= 256:
		return 0, 0, 0, fmt.Errorf("%w: %d", ErrUnsupported, maxval)
	case width <= 0 || height <= 0:
		return 0, 0, 0, fmt.Errorf("%w: %dx%d", ErrBadHeader, width, height)
	case width > MaxSide || height > MaxSide:
		return 0, 0, 0, fmt.Errorf("%w: %dx%d", ErrTooLarge, width, height)
	}

	// Exactly one whitespace byte separates the header from the data.
	c, err := r.ReadByte()
	if err != nil || !isSpace(c) {
		return 0, 0, 0, fmt.Errorf("%w: missing separator", ErrBadHeader)
	}
	return width, height, maxval, nil
}

// readNumber skips whitespace and comments, then reads a decimal number.
func readNumber(r *bufio.Reader) (int, error) {
	for {
		c, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrBadHeader, err)
		}
		if c == '#' {
			if _, err := r.ReadString('\n'); err != nil {
				return 0, fmt.Errorf("%w: %v", ErrBadHeader, err)
			}
			continue
		}
		if isSpace(c) {
			continue
		}
		r.UnreadByte()
		break
	}

	n, digits := 0, 0
	for {
		c, err := r.ReadByte()
		if err != nil || c < '0' || c > '9' {
			if err == nil {
				r.UnreadByte()
			}
			break
		}
		if digits >= 9 {
			return 0, fmt.Errorf("%w: number too long", ErrBadHeader)
		}
		n = n*10 + int(c-'0')
		digits++
	}
	if digits == 0 {
		return 0, fmt.Errorf("%w: expected a number", ErrBadHeader)
	}
	return n, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// Pixels returns a copy of the image's frame buffer.
func (b *Bitmap) Pixels() (Pixels, error) {
	return b.pool.Load(b.handle)
}

// Release returns the frame buffer to the pool. Releasing twice fails with
// rtos.ErrInvalidHandle.
func (b *Bitmap) Release() error {
	return b.pool.Release(b.handle)
}

const ramp = " .:-=+*#%@"

// ASCII downsamples the image to cols x rows characters, brighter pixels
// getting denser glyphs. A released bitmap renders as nothing.
func (b *Bitmap) ASCII(cols, rows int) []string {
	px, err := b.Pixels()
	if err != nil || cols <= 0 || rows <= 0 {
		return nil
	}

	lines := make([]string, rows)
	for row := 0; row < rows; row++ {
		y0, y1 := span(row, rows, b.Height)
		var sb strings.Builder
		for col := 0; col < cols; col++ {
			x0, x1 := span(col, cols, b.Width)
			sum, n := 0, 0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					sum += int(px[y*MaxSide+x])
					n++
				}
			}
			level := 0
			if n > 0 {
				level = sum * (len(ramp) - 1) / (n * b.MaxVal)
			}
			sb.WriteByte(ramp[min(level, len(ramp)-1)])
		}
		lines[row] = sb.String()
	}
	return lines
}

// span maps cell i of n onto [lo, hi) of size pixels, never empty.
func span(i, n, size int) (int, int) {
	lo := i * size / n
	hi := (i + 1) * size / n
	if hi <= lo {
		hi = min(lo+1, size)
		lo = hi - 1
	}
	return lo, hi
}
