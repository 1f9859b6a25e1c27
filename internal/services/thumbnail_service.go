package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"k8s.io/klog/v2"
)

// ThumbnailWidth is the fixed width of every generated thumbnail.
const ThumbnailWidth = 300

const thumbnailQuality = 85

// ErrUnsupportedImage is returned when an upload cannot be decoded.
var ErrUnsupportedImage = errors.New("unsupported or corrupt image")

type ThumbnailService struct {
	assets *AssetService
	width  int
}

func NewThumbnailService(assets *AssetService) *ThumbnailService {
	return &ThumbnailService{assets: assets, width: ThumbnailWidth}
}

// Generate reads the stored original and writes a ThumbnailWidth-wide copy
// under the same name into the thumbnail directory.
func (s *ThumbnailService) Generate(name string) (image.Rectangle, error) {
	f, _, err := s.assets.Open(AssetOriginal, name)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("open original: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("%w: %s: %v", ErrUnsupportedImage, name, err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return image.Rectangle{}, fmt.Errorf("%w: %s has no pixels", ErrUnsupportedImage, name)
	}
	height := int(float64(b.Dy())*float64(s.width)/float64(b.Dx()) + 0.5)
	if height < 1 {
		height = 1
	}

	klog.V(1).Infof("creating %dx%d thumb for %s (%s %dx%d)", s.width, height, name, format, b.Dx(), b.Dy())
	rimg := transform.Resize(img, s.width, height, transform.Lanczos)

	out, err := s.assets.Create(AssetThumbnail, name)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("create thumb: %w", err)
	}
	if err := encoderFor(name)(out, rimg); err != nil {
		out.Close()
		_ = s.assets.Remove(AssetThumbnail, name)
		return image.Rectangle{}, fmt.Errorf("encode thumb: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = s.assets.Remove(AssetThumbnail, name)
		return image.Rectangle{}, fmt.Errorf("close thumb: %w", err)
	}
	return rimg.Bounds(), nil
}

// RebuildMissing creates thumbnails for originals that have none.
func (s *ThumbnailService) RebuildMissing(ctx context.Context) (int, error) {
	names, err := s.assets.List(AssetOriginal)
	if err != nil {
		return 0, fmt.Errorf("list originals: %w", err)
	}

	created := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		if s.assets.Exists(AssetThumbnail, name) {
			continue
		}
		if _, err := s.Generate(name); err != nil {
			klog.Warningf("thumbnail rebuild failed for %s: %v", name, err)
			continue
		}
		created++
		klog.Infof("thumbnail rebuilt: %s", name)
	}
	return created, nil
}

// encoderFor picks the output format from the stored file's extension.
func encoderFor(name string) imgio.Encoder {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return imgio.PNGEncoder()
	case ".bmp":
		return imgio.BMPEncoder()
	case ".gif":
		return func(w io.Writer, img image.Image) error {
			return gif.Encode(w, img, nil)
		}
	default:
		return imgio.JPEGEncoder(thumbnailQuality)
	}
}
