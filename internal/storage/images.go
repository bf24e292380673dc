package storage

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize caps uploaded bug images at 5 MB.
const MaxImageSize = 5 << 20

// PublicPrefix is the URL path the stored files are served under.
const PublicPrefix = "/uploads/"

var (
	ErrImageTooLarge   = errors.New("image exceeds maximum size")
	ErrUnsupportedType = errors.New("unsupported image type")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ImageStore keeps bug images on local disk under a single directory and
// hands out public paths resolvable by the static file route.
type ImageStore struct {
	dir string
}

func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ImageStore{dir: dir}, nil
}

func (s *ImageStore) Dir() string {
	return s.dir
}

// Save writes an uploaded file under a generated name and returns its
// public path.
func (s *ImageStore) Save(file *multipart.FileHeader) (string, error) {
	if file.Size > MaxImageSize {
		return "", ErrImageTooLarge
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))

	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uuid.NewString() + ext

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return PublicPrefix + name, nil
}

// Remove deletes the backing file for a stored public path. A file that is
// already gone is not an error.
func (s *ImageStore) Remove(publicPath string) error {
	if publicPath == "" {
		return nil
	}

	name := path.Base(publicPath)

	if name == "." || name == "/" {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, name))

	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}
