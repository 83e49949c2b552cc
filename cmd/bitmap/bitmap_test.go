package bitmap

import (
	"fmt"
	"testing"

	"github.com/gigurra/deck/cmd/rtos"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pgm(header string, w, h int, fill func(x, y int) byte) []byte {
	data := []byte(header)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			data = append(data, fill(x, y))
		}
	}
	return data
}

func newLoader(t *testing.T, files map[string][]byte) *Loader {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, data := range files {
		require.NoError(t, afero.WriteFile(fs, name, data, 0o644))
	}
	l, err := NewLoader(fs)
	require.NoError(t, err)
	return l
}

func TestLoad_ParsesHeaderWithComments(t *testing.T) {
	l := newLoader(t, map[string][]byte{
		"/icon/play.pgm": pgm("P5\n# made by hand\n4 2\n255\n", 4, 2, func(x, y int) byte { return byte(x*10 + y) }),
	})

	b, err := l.Load("/icon/play.pgm")
	require.NoError(t, err)
	assert.Equal(t, 4, b.Width)
	assert.Equal(t, 2, b.Height)
	assert.Equal(t, 255, b.MaxVal)
	assert.Equal(t, Slots-1, l.Available())

	px, err := b.Pixels()
	require.NoError(t, err)
	assert.Equal(t, byte(30), px[3])
	assert.Equal(t, byte(31), px[MaxSide+3])

	require.NoError(t, b.Release())
	assert.Equal(t, Slots, l.Available())
	assert.ErrorIs(t, b.Release(), rtos.ErrInvalidHandle)
}

func TestLoad_Errors(t *testing.T) {
	zero := func(int, int) byte { return 0 }
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"ascii pgm", pgm("P2\n1 1\n255\n", 1, 1, zero), ErrBadMagic},
		{"empty", nil, ErrBadMagic},
		{"16 bit", pgm("P5 1 1 65535\n", 1, 1, zero), ErrUnsupported},
		{"too wide", pgm("P5 65 1 255\n", 65, 1, zero), ErrTooLarge},
		{"zero height", []byte("P5 1 0 255\n"), ErrBadHeader},
		{"no separator", []byte("P5 1 1 255"), ErrBadHeader},
		{"garbage", []byte("P5 x 1 255\n"), ErrBadHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLoader(t, map[string][]byte{"/a.pgm": tt.data})
			_, err := l.Load("/a.pgm")
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, Slots, l.Available())
		})
	}
}

func TestLoad_TruncatedData(t *testing.T) {
	l := newLoader(t, map[string][]byte{"/a.pgm": []byte("P5 4 4 255\nabc")})
	_, err := l.Load("/a.pgm")
	assert.Error(t, err)
	assert.Equal(t, Slots, l.Available())
}

func TestLoad_PoolExhaustion(t *testing.T) {
	files := map[string][]byte{}
	for i := 0; i <= Slots; i++ {
		files[fmt.Sprintf("/%d.pgm", i)] = pgm("P5 1 1 255\n", 1, 1, func(int, int) byte { return 1 })
	}
	l := newLoader(t, files)

	var loaded []*Bitmap
	for i := 0; i < Slots; i++ {
		b, err := l.Load(fmt.Sprintf("/%d.pgm", i))
		require.NoError(t, err)
		loaded = append(loaded, b)
	}

	_, err := l.Load(fmt.Sprintf("/%d.pgm", Slots))
	assert.ErrorIs(t, err, rtos.ErrExhausted)

	require.NoError(t, loaded[0].Release())
	_, err = l.Load(fmt.Sprintf("/%d.pgm", Slots))
	assert.NoError(t, err)
}

func TestASCII(t *testing.T) {
	l := newLoader(t, map[string][]byte{
		"/half.pgm": pgm("P5 4 4 255\n", 4, 4, func(x, _ int) byte {
			if x < 2 {
				return 0
			}
			return 255
		}),
	})
	b, err := l.Load("/half.pgm")
	require.NoError(t, err)

	assert.Equal(t, []string{" @", " @"}, b.ASCII(2, 2))
	assert.Equal(t, []string{"  @@"}, b.ASCII(4, 1))
	assert.Len(t, b.ASCII(8, 8), 8, "upsampling repeats pixels")

	require.NoError(t, b.Release())
	assert.Nil(t, b.ASCII(2, 2))
}
