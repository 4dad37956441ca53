// Package media validates image URLs and proof-of-payment files before they
// reach the API.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/url"
	"path"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"storefront.app/pkg/errs"
)

// ImageExtensions are the suffixes accepted on image URLs
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".avif"}

const (
	// MaxProofSize bounds proof files read into memory
	MaxProofSize = 5 << 20

	minDimension = 10
	maxDimension = 10000
)

// ValidateImageURL checks that raw is an absolute http(s) URL whose path
// ends in a known image extension. Query strings are ignored.
func ValidateImageURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errs.Validation("image URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errs.Validation("image URL must be a valid http(s) URL")
	}
	ext := strings.ToLower(path.Ext(u.Path))
	for _, allowed := range ImageExtensions {
		if ext == allowed {
			return nil
		}
	}
	return errs.Validation(fmt.Sprintf("image URL must end in one of %s", strings.Join(ImageExtensions, " ")))
}

// ValidateImageURLs checks every non-empty entry; at least one is required
func ValidateImageURLs(urls []string) error {
	if len(urls) == 0 {
		return errs.Validation("at least one image URL is required")
	}
	for _, u := range urls {
		if err := ValidateImageURL(u); err != nil {
			return err
		}
	}
	return nil
}

// File is an in-memory proof of payment
type File struct {
	Name        string
	ContentType string
	Format      string
	Width       int
	Height      int
	Data        []byte
}

// NewFile sniffs data and returns a File when it decodes as a supported
// raster image of sane dimensions. Formats image URLs cannot carry are
// re-encoded as PNG, and the name's extension always matches the format.
func NewFile(name string, data []byte) (*File, error) {
	if len(data) == 0 {
		return nil, errs.Validation("proof file is empty")
	}
	if len(data) > MaxProofSize {
		return nil, errs.Validation(fmt.Sprintf("proof file exceeds %d bytes", MaxProofSize))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Validation("proof file is not a supported image")
	}
	if cfg.Width < minDimension || cfg.Height < minDimension {
		return nil, errs.Validation(fmt.Sprintf("image dimensions too small: %dx%d", cfg.Width, cfg.Height))
	}
	if cfg.Width > maxDimension || cfg.Height > maxDimension {
		return nil, errs.Validation(fmt.Sprintf("image dimensions too large: %dx%d", cfg.Width, cfg.Height))
	}

	if _, ok := formats[format]; !ok {
		if data, err = toPNG(data); err != nil {
			return nil, errs.Validation("proof file is not a supported image")
		}
		format = "png"
	}

	return &File{
		Name:        fileName(name, format),
		ContentType: formats[format].contentType,
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Data:        data,
	}, nil
}

type formatInfo struct {
	contentType string
	extensions  []string // first is canonical
}

// formats lists the decoded formats an image URL can carry
var formats = map[string]formatInfo{
	"jpeg": {"image/jpeg", []string{".jpg", ".jpeg"}},
	"png":  {"image/png", []string{".png"}},
	"gif":  {"image/gif", []string{".gif"}},
	"webp": {"image/webp", []string{".webp"}},
}

// fileName keeps the base of name and swaps its extension for one that
// matches format. Empty names become "proof".
func fileName(name, format string) string {
	base := filepath.Base(strings.TrimSpace(name))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" || stem == "." || base == string(filepath.Separator) {
		stem = "proof"
	}
	exts := formats[format].extensions
	if slices.Contains(exts, strings.ToLower(ext)) {
		return stem + ext
	}
	return stem + exts[0]
}

func toPNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
