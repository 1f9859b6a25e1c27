package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pmxy/gallery/internal/store"
	"github.com/spf13/afero"
)

type recordingMirror struct {
	mu           sync.Mutex
	keys         []string
	contentTypes map[string]string
	fail         bool
}

func (m *recordingMirror) Put(_ context.Context, kind AssetKind, name string, body io.Reader, contentType string) error {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, ObjectKey(kind, name))
	if m.contentTypes == nil {
		m.contentTypes = map[string]string{}
	}
	m.contentTypes[ObjectKey(kind, name)] = contentType
	if m.fail {
		return errors.New("mirror unavailable")
	}
	return nil
}

type galleryFixture struct {
	svc    *GalleryService
	docs   *store.FileStore
	mem    afero.Fs
	mirror *recordingMirror
}

func newGalleryFixture(t *testing.T) *galleryFixture {
	t.Helper()
	docs, err := store.NewFileStore(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatal(err)
	}
	assets, mem := newTestAssets(t)
	mirror := &recordingMirror{}
	return &galleryFixture{
		svc:    NewGalleryService(docs, assets, NewThumbnailService(assets), mirror),
		docs:   docs,
		mem:    mem,
		mirror: mirror,
	}
}

func TestCreateGallery(t *testing.T) {
	f := newGalleryFixture(t)
	ctx := context.Background()

	g, err := f.svc.CreateGallery(ctx, "trip")
	if err != nil {
		t.Fatalf("CreateGallery: %v", err)
	}
	if g.Name != "trip" || g.Image != nil || g.Images == nil || len(g.Images) != 0 {
		t.Errorf("Unexpected gallery %+v", g)
	}

	if _, err := f.svc.CreateGallery(ctx, "trip"); !errors.Is(err, ErrGalleryExists) {
		t.Errorf("Expected ErrGalleryExists, got %v", err)
	}
	if _, err := f.svc.CreateGallery(ctx, "   "); !errors.Is(err, ErrGalleryNameRequired) {
		t.Errorf("Expected ErrGalleryNameRequired, got %v", err)
	}
	if _, err := f.svc.CreateGallery(ctx, "a/b"); !errors.Is(err, ErrGalleryNameInvalid) {
		t.Errorf("Expected ErrGalleryNameInvalid, got %v", err)
	}

	summaries, err := f.svc.ListGallerySummaries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 || summaries[0].Name != "trip" {
		t.Errorf("Expected only trip, got %+v", summaries)
	}
}

func TestGetGalleryNotFound(t *testing.T) {
	f := newGalleryFixture(t)

	if _, err := f.svc.GetGallery(context.Background(), "nope"); !errors.Is(err, ErrGalleryNotFound) {
		t.Errorf("Expected ErrGalleryNotFound, got %v", err)
	}
}

func TestAddImageSetsCoverOnFirstImage(t *testing.T) {
	f := newGalleryFixture(t)
	ctx := context.Background()
	if _, err := f.svc.CreateGallery(ctx, "trip"); err != nil {
		t.Fatal(err)
	}

	first, err := f.svc.AddImage(ctx, "trip", "sunset.png", bytes.NewReader(testPNG(t, 600, 300)))
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	if first.Name != "sunset-1700000000000.png" || first.Title != "sunset" {
		t.Errorf("Unexpected image %+v", first)
	}

	second, err := f.svc.AddImage(ctx, "trip", "beach.png", bytes.NewReader(testPNG(t, 30, 30)))
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}

	g, err := f.svc.GetGallery(ctx, "trip")
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Images) != 2 || g.Images[0] != *first || g.Images[1] != *second {
		t.Errorf("Unexpected images %+v", g.Images)
	}
	if g.Image == nil || *g.Image != *first {
		t.Errorf("Expected cover %+v, got %+v", first, g.Image)
	}

	for _, p := range []string{"/images/" + first.Name, "/thumbs/" + first.Name, "/thumbs/" + second.Name} {
		if ok, _ := afero.Exists(f.mem, p); !ok {
			t.Errorf("Expected %s to exist", p)
		}
	}

	want := []string{
		"images/" + first.Name, "thumbs/" + first.Name,
		"images/" + second.Name, "thumbs/" + second.Name,
	}
	if strings.Join(f.mirror.keys, ",") != strings.Join(want, ",") {
		t.Errorf("Unexpected mirror uploads %v", f.mirror.keys)
	}
}

func TestAddImageMirrorsSniffedContentType(t *testing.T) {
	f := newGalleryFixture(t)
	ctx := context.Background()
	if _, err := f.svc.CreateGallery(ctx, "trip"); err != nil {
		t.Fatal(err)
	}

	// png bytes under a .webp name: the thumbnail is re-encoded as jpeg
	img, err := f.svc.AddImage(ctx, "trip", "pic.webp", bytes.NewReader(testPNG(t, 20, 10)))
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}

	if got := f.mirror.contentTypes["images/"+img.Name]; got != "image/png" {
		t.Errorf("Expected original mirrored as image/png, got %q", got)
	}
	if got := f.mirror.contentTypes["thumbs/"+img.Name]; got != "image/jpeg" {
		t.Errorf("Expected thumbnail mirrored as image/jpeg, got %q", got)
	}
}

func TestAddImageUnknownGallery(t *testing.T) {
	f := newGalleryFixture(t)

	_, err := f.svc.AddImage(context.Background(), "nope", "a.png", bytes.NewReader(testPNG(t, 10, 10)))
	if !errors.Is(err, ErrGalleryNotFound) {
		t.Fatalf("Expected ErrGalleryNotFound, got %v", err)
	}
	infos, _ := afero.ReadDir(f.mem, "/images")
	if len(infos) != 0 {
		t.Errorf("Expected no stored originals, got %d", len(infos))
	}
}

func TestAddImageThumbnailFailureLeavesDocumentUnchanged(t *testing.T) {
	f := newGalleryFixture(t)
	ctx := context.Background()
	if _, err := f.svc.CreateGallery(ctx, "trip"); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.AddImage(ctx, "trip", "broken.jpg", strings.NewReader("not an image"))
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("Expected ErrUnsupportedImage, got %v", err)
	}

	g, err := f.svc.GetGallery(ctx, "trip")
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Images) != 0 || g.Image != nil {
		t.Errorf("Expected untouched gallery, got %+v", g)
	}
	for _, dir := range []string{"/images", "/thumbs"} {
		infos, _ := afero.ReadDir(f.mem, dir)
		if len(infos) != 0 {
			t.Errorf("Expected %s to be empty, got %d entries", dir, len(infos))
		}
	}
	if len(f.mirror.keys) != 0 {
		t.Errorf("Expected no mirror uploads, got %v", f.mirror.keys)
	}
}

func TestAddImageMirrorFailureIsNotFatal(t *testing.T) {
	f := newGalleryFixture(t)
	f.mirror.fail = true
	ctx := context.Background()
	if _, err := f.svc.CreateGallery(ctx, "trip"); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.AddImage(ctx, "trip", "a.png", bytes.NewReader(testPNG(t, 10, 10))); err != nil {
		t.Fatalf("AddImage: %v", err)
	}
}

func TestAddImageWithoutMirror(t *testing.T) {
	f := newGalleryFixture(t)
	f.svc.mirror = nil
	ctx := context.Background()
	if _, err := f.svc.CreateGallery(ctx, "trip"); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.AddImage(ctx, "trip", "a.png", bytes.NewReader(testPNG(t, 10, 10))); err != nil {
		t.Fatalf("AddImage: %v", err)
	}
}

func TestRemoveImage(t *testing.T) {
	f := newGalleryFixture(t)
	ctx := context.Background()
	if _, err := f.svc.CreateGallery(ctx, "trip"); err != nil {
		t.Fatal(err)
	}
	first, err := f.svc.AddImage(ctx, "trip", "a.png", bytes.NewReader(testPNG(t, 10, 10)))
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.AddImage(ctx, "trip", "b.png", bytes.NewReader(testPNG(t, 10, 10)))
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.RemoveImage(ctx, "trip", "unknown.png"); err != nil {
		t.Errorf("Removing unknown image: %v", err)
	}
	if err := f.svc.RemoveImage(ctx, "nope", first.Name); !errors.Is(err, ErrGalleryNotFound) {
		t.Errorf("Expected ErrGalleryNotFound, got %v", err)
	}

	if err := f.svc.RemoveImage(ctx, "trip", first.Name); err != nil {
		t.Fatalf("RemoveImage: %v", err)
	}
	g, err := f.svc.GetGallery(ctx, "trip")
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Images) != 1 || g.Images[0] != *second {
		t.Errorf("Unexpected images %+v", g.Images)
	}
	if g.Image == nil || *g.Image != *second {
		t.Errorf("Expected cover to move to %+v, got %+v", second, g.Image)
	}
	if ok, _ := afero.Exists(f.mem, "/images/"+first.Name); !ok {
		t.Errorf("Expected original file to stay on disk")
	}
}

func TestDeleteGalleryIsIdempotent(t *testing.T) {
	f := newGalleryFixture(t)
	ctx := context.Background()
	for _, name := range []string{"a", "b"} {
		if _, err := f.svc.CreateGallery(ctx, name); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 2; i++ {
		if err := f.svc.DeleteGallery(ctx, "a"); err != nil {
			t.Fatalf("DeleteGallery #%d: %v", i+1, err)
		}
	}

	doc, err := f.docs.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Galleries) != 1 || doc.Galleries[0].Name != "b" {
		t.Errorf("Unexpected galleries %+v", doc.Galleries)
	}
}

func TestConcurrentCreateGallery(t *testing.T) {
	f := newGalleryFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateGallery(ctx, "same")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case !errors.Is(err, ErrGalleryExists):
			t.Errorf("Unexpected error %v", err)
		}
	}
	if created != 1 {
		t.Errorf("Expected exactly one creation, got %d", created)
	}
}
