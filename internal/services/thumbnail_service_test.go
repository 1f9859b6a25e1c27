package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestGenerateThumbnail(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		wantH int
	}{
		{name: "downscale", w: 600, h: 400, wantH: 200},
		{name: "upscale", w: 100, h: 50, wantH: 150},
		{name: "tall", w: 900, h: 1200, wantH: 400},
		{name: "rounding", w: 1000, h: 333, wantH: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assets, mem := newTestAssets(t)
			thumbs := NewThumbnailService(assets)

			name, _, err := assets.SaveOriginal("pic.png", bytes.NewReader(testPNG(t, tt.w, tt.h)))
			if err != nil {
				t.Fatal(err)
			}

			bounds, err := thumbs.Generate(name)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if bounds.Dx() != ThumbnailWidth || bounds.Dy() != tt.wantH {
				t.Errorf("Expected %dx%d, got %dx%d", ThumbnailWidth, tt.wantH, bounds.Dx(), bounds.Dy())
			}

			f, err := mem.Open("/thumbs/" + name)
			if err != nil {
				t.Fatalf("thumbnail missing: %v", err)
			}
			defer f.Close()
			cfg, format, err := image.DecodeConfig(f)
			if err != nil {
				t.Fatalf("DecodeConfig: %v", err)
			}
			if format != "png" || cfg.Width != ThumbnailWidth || cfg.Height != tt.wantH {
				t.Errorf("Unexpected thumbnail %s %dx%d", format, cfg.Width, cfg.Height)
			}
		})
	}
}

func TestGenerateJPEGThumbnail(t *testing.T) {
	assets, mem := newTestAssets(t)
	thumbs := NewThumbnailService(assets)

	// PNG bytes stored under a .jpg name are still decoded; the output follows the name
	name, _, err := assets.SaveOriginal("photo.jpg", bytes.NewReader(testPNG(t, 60, 30)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := thumbs.Generate(name); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	f, err := mem.Open("/thumbs/" + name)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	_, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if format != "jpeg" {
		t.Errorf("Expected jpeg thumbnail, got %s", format)
	}
}

func TestGenerateUnsupportedImage(t *testing.T) {
	assets, mem := newTestAssets(t)
	thumbs := NewThumbnailService(assets)

	name, _, err := assets.SaveOriginal("notes.jpg", strings.NewReader("definitely not an image"))
	if err != nil {
		t.Fatal(err)
	}

	_, err = thumbs.Generate(name)
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("Expected ErrUnsupportedImage, got %v", err)
	}
	if ok, _ := afero.Exists(mem, "/thumbs/"+name); ok {
		t.Errorf("Expected no thumbnail for undecodable input")
	}
}

func TestRebuildMissing(t *testing.T) {
	assets, mem := newTestAssets(t)
	thumbs := NewThumbnailService(assets)

	if err := afero.WriteFile(mem, "/images/a.png", testPNG(t, 40, 20), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(mem, "/images/b.png", testPNG(t, 40, 20), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(mem, "/images/broken.png", []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(mem, "/thumbs/b.png", []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	created, err := thumbs.RebuildMissing(context.Background())
	if err != nil {
		t.Fatalf("RebuildMissing: %v", err)
	}
	if created != 1 {
		t.Errorf("Expected 1 thumbnail created, got %d", created)
	}
	if ok, _ := afero.Exists(mem, "/thumbs/a.png"); !ok {
		t.Errorf("Expected thumbnail for a.png")
	}
	data, _ := afero.ReadFile(mem, "/thumbs/b.png")
	if string(data) != "existing" {
		t.Errorf("Existing thumbnail was overwritten")
	}
}

func TestRebuildMissingCanceled(t *testing.T) {
	assets, mem := newTestAssets(t)
	thumbs := NewThumbnailService(assets)
	if err := afero.WriteFile(mem, "/images/a.png", testPNG(t, 10, 10), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := thumbs.RebuildMissing(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
