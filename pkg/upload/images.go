// Package upload stores product images on local disk and hands back the
// relative URL they are served from.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted image file.
const MaxImageSize = 5 << 20

// URLPrefix is where stored images are served.
const URLPrefix = "/uploads/"

var (
	ErrUnsupportedType = errors.New("only image files are allowed")
	ErrTooLarge        = errors.New("image exceeds the 5MB limit")
)

var allowedExtensions = map[string]bool{
	".jpeg": true, ".jpg": true, ".png": true, ".gif": true, ".webp": true,
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true, "image/jpg": true, "image/png": true, "image/gif": true, "image/webp": true,
}

// DiskStore writes images into a single directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates dir if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir is the directory images are written to.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Validate checks the file name extension, the declared content type and
// the size. Both the extension and the content type must be image types.
func Validate(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	mediaType, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err != nil || !allowedExtensions[ext] || !allowedContentTypes[strings.ToLower(mediaType)] {
		return ErrUnsupportedType
	}
	if fh.Size > MaxImageSize {
		return ErrTooLarge
	}
	return nil
}

// Save validates fh and writes it as product-<uuid><ext>. It returns the
// relative URL of the stored file.
func (s *DiskStore) Save(fh *multipart.FileHeader) (string, error) {
	if err := Validate(fh); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	name := "product-" + uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}

	// The size header comes from the client; the copy enforces the limit.
	n, err := io.Copy(dst, io.LimitReader(src, MaxImageSize+1))
	closeErr := dst.Close()
	if err == nil && n > MaxImageSize {
		err = ErrTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filepath.Join(s.dir, name))
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return URLPrefix + name, nil
}

// Remove deletes a previously saved image by its URL. Unknown or foreign
// URLs are ignored.
func (s *DiskStore) Remove(url string) error {
	if !strings.HasPrefix(url, URLPrefix) {
		return nil
	}
	name := path.Base(url)
	if name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}
