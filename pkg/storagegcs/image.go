package storagegcs

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"

	"storefront.app/pkg/media"
)

var contentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

var extensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

// prepare returns the bytes to store and their format. Formats image URLs
// cannot carry are re-encoded as PNG; JPEG and PNG wider than maxWidth are
// scaled down.
func prepare(f *media.File, maxWidth int) ([]byte, string, error) {
	_, storable := contentTypes[f.Format]
	resizable := f.Format == "jpeg" || f.Format == "png"
	if storable && (maxWidth <= 0 || f.Width <= maxWidth || !resizable) {
		return f.Data, f.Format, nil
	}

	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil, "", fmt.Errorf("invalid image format: %w", err)
	}

	format := f.Format
	if !resizable {
		format = "png"
	}
	if maxWidth > 0 {
		img = downscale(img, maxWidth)
	}
	out, err := encode(img, format)
	if err != nil {
		return nil, "", err
	}
	return out, format, nil
}

// downscale resizes img to maxWidth keeping the aspect ratio, using
// Catmull-Rom interpolation. Narrower images are returned as is.
func downscale(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= maxWidth {
		return img
	}

	ratio := float64(bounds.Dy()) / float64(bounds.Dx())
	height := int(math.Round(float64(maxWidth) * ratio))
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}

func encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, fmt.Errorf("failed to encode as JPEG: %w", err)
		}
	default:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode as PNG: %w", err)
		}
	}
	return buf.Bytes(), nil
}
