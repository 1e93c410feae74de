package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{name: "width bound, ratio kept", width: 800, height: 600, wantW: 400, wantH: 300},
		{name: "height bound dominates", width: 300, height: 900, wantW: 100, wantH: 300},
		{name: "both steps apply", width: 1000, height: 1000, wantW: 300, wantH: 300},
		{name: "already inside", width: 200, height: 100, wantW: 200, wantH: 100},
		{name: "exactly at bounds", width: 400, height: 300, wantW: 400, wantH: 300},
		{name: "never below one pixel", width: 4000, height: 1, wantW: 400, wantH: 1},
		{name: "no pixels", width: 0, height: 10, wantW: 0, wantH: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ScaleDimensions(tt.width, tt.height, DefaultMaxWidth, DefaultMaxHeight)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
			assert.LessOrEqual(t, w, DefaultMaxWidth)
			assert.LessOrEqual(t, h, DefaultMaxHeight)
		})
	}
}

func TestScaleDimensions_PreservesRatio(t *testing.T) {
	w, h := ScaleDimensions(1600, 1200, 400, 300)
	assert.Equal(t, 1600*h, 1200*w)
}

func TestOptionsNormalize(t *testing.T) {
	assert.Equal(t, DefaultOptions(), Options{}.Normalize())

	opts := Options{MaxWidth: 50, MaxHeight: -1, Quality: 3}.Normalize()
	assert.Equal(t, 50, opts.MaxWidth)
	assert.Equal(t, DefaultMaxHeight, opts.MaxHeight)
	assert.Equal(t, 1.0, opts.Quality)

	assert.Equal(t, 70, DefaultOptions().JPEGQuality())
	assert.Equal(t, 1, Options{Quality: 0.001}.JPEGQuality())
}
