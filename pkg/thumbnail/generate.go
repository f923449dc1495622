// Package thumbnail derives fixed-width preview renditions from uploaded
// images. Generation runs asynchronously: uploads enqueue a job and a pool
// of workers produces the renditions out of band.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Sizes lists the target widths of the derived renditions, in pixels.
var Sizes = []int{500, 250, 100}

// Generate decodes src and produces a rendition scaled to the given width,
// preserving the aspect ratio. Images narrower than the target width are
// returned re-encoded at their original size rather than upscaled. The
// rendition is encoded in the source format.
func Generate(src []byte, width int) ([]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid thumbnail width %d", width)
	}

	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > width {
		height := bounds.Dy() * width / bounds.Dx()
		if height < 1 {
			height = 1
		}

		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		img = scaled
	}

	var buf bytes.Buffer

	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpeg.DefaultQuality})
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = png.Encode(&buf, img)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to encode %s thumbnail: %w", format, err)
	}

	return buf.Bytes(), nil
}
