package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pmxy/gallery/internal/models"
	"github.com/pmxy/gallery/internal/store"
	"github.com/pmxy/gallery/pkg/validation"
	"k8s.io/klog/v2"
)

var (
	ErrGalleryNotFound     = errors.New("gallery not found")
	ErrGalleryExists       = errors.New("gallery already exists")
	ErrGalleryNameRequired = errors.New("gallery name is required")
	ErrGalleryNameInvalid  = errors.New("gallery name is invalid")
)

type GalleryService struct {
	store  store.DocumentStore
	assets *AssetService
	thumbs *ThumbnailService
	mirror AssetMirror
}

// NewGalleryService wires the document store and asset pipeline. mirror may
// be nil.
func NewGalleryService(docs store.DocumentStore, assets *AssetService, thumbs *ThumbnailService, mirror AssetMirror) *GalleryService {
	return &GalleryService{
		store:  docs,
		assets: assets,
		thumbs: thumbs,
		mirror: mirror,
	}
}

// ListGallerySummaries returns name and cover of every gallery in document order.
func (s *GalleryService) ListGallerySummaries(ctx context.Context) ([]models.GallerySummary, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Summaries(), nil
}

// GetGallery returns the gallery with exactly this name.
func (s *GalleryService) GetGallery(ctx context.Context, name string) (*models.Gallery, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	g := doc.Find(name)
	if g == nil {
		return nil, ErrGalleryNotFound
	}
	out := g.Clone()
	return &out, nil
}

// CreateGallery appends an empty gallery.
func (s *GalleryService) CreateGallery(ctx context.Context, name string) (*models.Gallery, error) {
	name = validation.SanitizeString(name)
	if name == "" {
		return nil, ErrGalleryNameRequired
	}
	if !validation.ValidateGalleryName(name) {
		return nil, ErrGalleryNameInvalid
	}

	created := models.Gallery{Name: name, Images: []models.GalleryImage{}}
	err := s.store.Update(ctx, func(doc *models.Document) error {
		if doc.Find(name) != nil {
			return ErrGalleryExists
		}
		doc.Galleries = append(doc.Galleries, created.Clone())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteGallery removes the gallery if present. Image files stay on disk.
func (s *GalleryService) DeleteGallery(ctx context.Context, name string) error {
	return s.store.Update(ctx, func(doc *models.Document) error {
		if !doc.Remove(name) {
			klog.V(1).Infof("delete of unknown gallery %q ignored", name)
		}
		return nil
	})
}

// AddImage stores the upload, generates its thumbnail and appends it to the
// gallery. The first image of a gallery becomes its cover. The document is
// only touched after both files exist, and the pipeline keeps running if the
// client goes away.
func (s *GalleryService) AddImage(ctx context.Context, galleryName, filename string, r io.Reader) (*models.GalleryImage, error) {
	ctx = context.WithoutCancel(ctx)

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if doc.Find(galleryName) == nil {
		return nil, ErrGalleryNotFound
	}

	name, size, err := s.assets.SaveOriginal(filename, r)
	if err != nil {
		return nil, fmt.Errorf("store original: %w", err)
	}
	klog.V(1).Infof("stored original %s (%d bytes) for gallery %q", name, size, galleryName)

	if _, err := s.thumbs.Generate(name); err != nil {
		s.cleanup(name)
		return nil, fmt.Errorf("thumbnail: %w", err)
	}

	img := models.GalleryImage{Name: name, Title: ImageTitle(filename)}
	err = s.store.Update(ctx, func(doc *models.Document) error {
		g := doc.Find(galleryName)
		if g == nil {
			return ErrGalleryNotFound
		}
		g.AddImage(img)
		return nil
	})
	if err != nil {
		s.cleanup(name)
		return nil, err
	}

	s.mirrorImage(ctx, name)
	return &img, nil
}

// RemoveImage drops an image from the gallery list. Files stay on disk.
func (s *GalleryService) RemoveImage(ctx context.Context, galleryName, imageName string) error {
	return s.store.Update(ctx, func(doc *models.Document) error {
		g := doc.Find(galleryName)
		if g == nil {
			return ErrGalleryNotFound
		}
		if !g.RemoveImage(imageName) {
			klog.V(1).Infof("remove of unknown image %q in gallery %q ignored", imageName, galleryName)
		}
		return nil
	})
}

func (s *GalleryService) cleanup(name string) {
	for _, kind := range []AssetKind{AssetOriginal, AssetThumbnail} {
		if err := s.assets.Remove(kind, name); err != nil {
			klog.Warningf("cleanup of %s/%s failed: %v", kind, name, err)
		}
	}
}

// mirrorImage copies both files to the mirror. Failures are logged only.
func (s *GalleryService) mirrorImage(ctx context.Context, name string) {
	if s.mirror == nil {
		return
	}
	for _, kind := range []AssetKind{AssetOriginal, AssetThumbnail} {
		f, _, err := s.assets.Open(kind, name)
		if err != nil {
			klog.Warningf("mirror: open %s/%s: %v", kind, name, err)
			continue
		}
		contentType, err := DetectContentType(f)
		if err == nil {
			err = s.mirror.Put(ctx, kind, name, f, contentType)
		}
		f.Close()
		if err != nil {
			klog.Warningf("mirror: upload %s/%s: %v", kind, name, err)
		}
	}
}
