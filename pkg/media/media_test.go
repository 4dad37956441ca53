package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"storefront.app/pkg/errs"
)

func TestValidateImageURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://cdn.example.com/a/beach.jpg", true},
		{"http://cdn.example.com/b.JPEG", true},
		{"https://cdn.example.com/c.webp?w=400", true},
		{"https://cdn.example.com/icon.svg", true},
		{"https://cdn.example.com/photo.avif", true},
		{"https://cdn.example.com/doc.pdf", false},
		{"https://cdn.example.com/noext", false},
		{"ftp://cdn.example.com/a.png", false},
		{"/relative/a.png", false},
		{"not a url", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateImageURL(tt.url)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errs.IsValidation(err), "expected validation error, got %v", err)
			}
		})
	}
}

func TestValidateImageURLs(t *testing.T) {
	assert.True(t, errs.IsValidation(ValidateImageURLs(nil)))
	assert.NoError(t, ValidateImageURLs([]string{"https://x.io/a.png", "https://x.io/b.gif"}))
	assert.True(t, errs.IsValidation(ValidateImageURLs([]string{"https://x.io/a.png", "https://x.io/b.txt"})))
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	return img
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func TestNewFile(t *testing.T) {
	f, err := NewFile("/tmp/receipt.png", encodePNG(t, 40, 30))
	require.NoError(t, err)
	assert.Equal(t, "receipt.png", f.Name)
	assert.Equal(t, "png", f.Format)
	assert.Equal(t, "image/png", f.ContentType)
	assert.Equal(t, 40, f.Width)
	assert.Equal(t, 30, f.Height)
}

func TestNewFileBMP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, testImage(20, 20)))

	f, err := NewFile("", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "png", f.Format)
	assert.Equal(t, "image/png", f.ContentType)
	assert.Equal(t, "proof.png", f.Name)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(f.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 20, cfg.Width)
}

func TestNewFileName(t *testing.T) {
	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, testImage(20, 20), nil))
	pngData := encodePNG(t, 20, 20)

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"receipt", pngData, "receipt.png"},
		{"receipt.png", pngData, "receipt.png"},
		{"receipt.jpg", pngData, "receipt.png"},
		{"transfer.pdf", pngData, "transfer.png"},
		{"  ", pngData, "proof.png"},
		{".png", pngData, "proof.png"},
		{"scan.JPEG", jpg.Bytes(), "scan.JPEG"},
		{"scan.jpeg", jpg.Bytes(), "scan.jpeg"},
		{"scan", jpg.Bytes(), "scan.jpg"},
		{"dir/scan.v2", jpg.Bytes(), "scan.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFile(tt.name, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Name)
			assert.NoError(t, ValidateImageURL("https://cdn.example.com/files/"+f.Name))
		})
	}
}

func TestNewFileRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("definitely not an image")},
		{"too small", encodePNG(t, 5, 5)},
		{"too big", make([]byte, MaxProofSize+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFile("x.png", tt.data)
			assert.True(t, errs.IsValidation(err), "got %v", err)
		})
	}
}
