package services

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pmxy/gallery/internal/config"
	"github.com/spf13/afero"
)

// AssetKind selects one of the two asset directories.
type AssetKind string

const (
	AssetOriginal  AssetKind = "images"
	AssetThumbnail AssetKind = "thumbs"
)

const maxNameAttempts = 1000

// AssetService stores originals and thumbnails in two flat directories.
type AssetService struct {
	originals afero.Fs
	thumbs    afero.Fs
	now       func() time.Time
}

// NewAssetService creates the asset directories under the configured paths.
func NewAssetService(cfg *config.Config) (*AssetService, error) {
	osFs := afero.NewOsFs()
	for _, dir := range []string{cfg.ImagesPath, cfg.ThumbsPath} {
		if err := osFs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return NewAssetServiceFs(
		afero.NewBasePathFs(osFs, cfg.ImagesPath),
		afero.NewBasePathFs(osFs, cfg.ThumbsPath),
	), nil
}

func NewAssetServiceFs(originals, thumbs afero.Fs) *AssetService {
	return &AssetService{originals: originals, thumbs: thumbs, now: time.Now}
}

func (s *AssetService) fs(kind AssetKind) afero.Fs {
	if kind == AssetThumbnail {
		return s.thumbs
	}
	return s.originals
}

// SaveOriginal stores an upload under a fresh name: the base name with
// "-<unix millis>" inserted before the extension. The timestamp is bumped
// until the name is unused.
func (s *AssetService) SaveOriginal(originalName string, r io.Reader) (string, int64, error) {
	f, name, err := s.createUnique(originalName)
	if err != nil {
		return "", 0, err
	}

	n, err := io.Copy(f, r)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.originals.Remove(name)
		return "", 0, err
	}
	return name, n, nil
}

func (s *AssetService) createUnique(originalName string) (afero.File, string, error) {
	base := SanitizeFilename(originalName)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	ts := s.now().UnixMilli()
	for i := 0; i < maxNameAttempts; i++ {
		name := stem + "-" + strconv.FormatInt(ts+int64(i), 10) + ext
		f, err := s.originals.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free name for %s after %d attempts", base, maxNameAttempts)
}

// ImageTitle strips the final extension from the uploaded filename, so
// "my.trip.jpg" becomes "my.trip".
func ImageTitle(originalName string) string {
	base := SanitizeFilename(originalName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SanitizeFilename reduces an uploaded filename to a safe flat base name.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(path.Base(name))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "image"
	}
	return name
}

// Create opens name for writing, truncating any existing file.
func (s *AssetService) Create(kind AssetKind, name string) (afero.File, error) {
	return s.fs(kind).Create(name)
}

// Open returns a regular file from the asset directory. Directories and
// names with path separators are reported as fs.ErrNotExist.
func (s *AssetService) Open(kind AssetKind, name string) (afero.File, os.FileInfo, error) {
	if name == "" || name != path.Base(name) || name == "." || name == ".." {
		return nil, nil, fs.ErrNotExist
	}
	f, err := s.fs(kind).Open(name)
	if err != nil {
		return nil, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if st.IsDir() {
		f.Close()
		return nil, nil, fs.ErrNotExist
	}
	return f, st, nil
}

func (s *AssetService) Exists(kind AssetKind, name string) bool {
	ok, _ := afero.Exists(s.fs(kind), name)
	return ok
}

// Remove deletes name; a missing file is not an error.
func (s *AssetService) Remove(kind AssetKind, name string) error {
	err := s.fs(kind).Remove(name)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List returns the regular file names in the asset directory.
func (s *AssetService) List(kind AssetKind) ([]string, error) {
	infos, err := afero.ReadDir(s.fs(kind), "/")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		names = append(names, fi.Name())
	}
	return names, nil
}

// DetectContentType sniffs the stored bytes of f and rewinds it. Thumbnails
// keep the original's name but not always its format.
func DetectContentType(f io.ReadSeeker) (string, error) {
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mtype.String(), nil
}
