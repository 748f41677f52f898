// Package imagefile validates and probes local image files before they
// enter the analysis workflow.
package imagefile

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Info describes a probed image file.
type Info struct {
	Format string
	Width  int
	Height int
}

// Probe checks that path is a readable, decodable image and returns its
// format and dimensions. Only the header is decoded, not pixel data.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Info{}, fmt.Errorf("decode image %s: %w", filepath.Base(path), err)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// ContentType maps an image filename to its MIME type for upload.
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".webp":
		return "image/webp"
	}
	return "application/octet-stream"
}
