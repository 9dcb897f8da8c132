package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

const (
	maxPictureDimension = 400
	pictureJPEGQuality  = 95
)

// ProcessProfilePicture decodes an uploaded image, scales it down so neither
// side exceeds 400 pixels, and re-encodes it as JPEG. Images already within
// bounds keep their dimensions but are still re-encoded.
func ProcessProfilePicture(r io.Reader) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > maxPictureDimension || height > maxPictureDimension {
		scale := float64(maxPictureDimension) / float64(width)
		if height > width {
			scale = float64(maxPictureDimension) / float64(height)
		}
		width = int(float64(width) * scale)
		height = int(float64(height) * scale)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: pictureJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}
