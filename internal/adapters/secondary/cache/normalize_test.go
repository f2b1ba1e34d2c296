package cache

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 50" width="100" height="50">
<rect x="0" y="0" width="100" height="50" fill="#005596"/>
</svg>`

func TestNormalize(t *testing.T) {
	t.Run("small png passes through", func(t *testing.T) {
		data := pngBytes(t, 40, 20)
		n, err := Normalize(data, "image/png", 1920, 1080)
		require.NoError(t, err)
		assert.Equal(t, data, n.Data)
		assert.Equal(t, ".png", n.Ext)
		assert.Equal(t, 40, n.Width)
	})

	t.Run("large raster is downscaled keeping aspect", func(t *testing.T) {
		n, err := Normalize(pngBytes(t, 400, 200), "image/png", 100, 100)
		require.NoError(t, err)
		assert.Equal(t, 100, n.Width)
		assert.Equal(t, 50, n.Height)

		img, err := png.Decode(bytes.NewReader(n.Data))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 100, 50), img.Bounds())
	})

	t.Run("svg is rasterized to png", func(t *testing.T) {
		n, err := Normalize([]byte(testSVG), "", 1920, 1080)
		require.NoError(t, err)
		assert.Equal(t, "image/png", n.ContentType)
		assert.Equal(t, 512, n.Width)
		assert.Equal(t, 256, n.Height)

		img, err := png.Decode(bytes.NewReader(n.Data))
		require.NoError(t, err)
		_, _, b, a := img.At(256, 128).RGBA()
		assert.NotZero(t, a)
		assert.Greater(t, b, uint32(0))
	})

	t.Run("garbage fails", func(t *testing.T) {
		_, err := Normalize([]byte("nope"), "application/octet-stream", 100, 100)
		assert.Error(t, err)
	})
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{100, 100, 200, 200, 100, 100},
		{3840, 2160, 1920, 1080, 1920, 1080},
		{1000, 2000, 1920, 1080, 540, 1080},
		{500, 500, 0, 0, 500, 500},
	}
	for _, tt := range tests {
		w, h := fit(tt.w, tt.h, tt.maxW, tt.maxH)
		assert.Equal(t, tt.wantW, w)
		assert.Equal(t, tt.wantH, h)
	}
}
