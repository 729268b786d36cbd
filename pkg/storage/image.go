package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // some Discogs thumbnails are PNG

	"golang.org/x/image/draw"
)

// Downscale decodes data and re-encodes it as JPEG fitting within a
// maxDim x maxDim box with the aspect ratio preserved. Images that already
// fit are returned unchanged.
func Downscale(data []byte, maxDim int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxDim && height <= maxDim {
		return data, nil
	}

	if width >= height {
		height = max(1, height*maxDim/width)
		width = maxDim
	} else {
		width = max(1, width*maxDim/height)
		height = maxDim
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
