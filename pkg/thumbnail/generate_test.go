package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodePNG renders a solid-colored PNG of the given dimensions.
func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 40, G: 90, B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestGenerate_ScalesPreservingAspect(t *testing.T) {
	src := encodePNG(t, 1000, 400)

	for _, width := range Sizes {
		out, err := Generate(src, width)
		require.NoError(t, err)

		w, h := decodeSize(t, out)
		assert.Equal(t, width, w)
		assert.Equal(t, 400*width/1000, h)
	}
}

func TestGenerate_DoesNotUpscale(t *testing.T) {
	src := encodePNG(t, 80, 60)

	out, err := Generate(src, 500)
	require.NoError(t, err)

	w, h := decodeSize(t, out)
	assert.Equal(t, 80, w)
	assert.Equal(t, 60, h)
}

func TestGenerate_RejectsBadInput(t *testing.T) {
	_, err := Generate([]byte("not an image"), 100)
	assert.Error(t, err)

	_, err = Generate(encodePNG(t, 10, 10), 0)
	assert.Error(t, err)
}
