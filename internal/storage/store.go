package storage

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge        = errors.New("file_too_large")
	ErrUnsupportedFileType = errors.New("unsupported_file_type")
	ErrFileNotFound        = errors.New("file_not_found")
)

var allowedContentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// normalizeContentType strips the parameters DetectContentType appends
// ("text/html; charset=utf-8") so the bare media type keys the allow-list.
func normalizeContentType(value string) string {
	if idx := strings.Index(value, ";"); idx >= 0 {
		value = value[:idx]
	}
	return strings.ToLower(strings.TrimSpace(value))
}

// Store saves passport uploads on local disk under a single directory,
// with randomized names so uploaded filenames never reach the filesystem.
type Store struct {
	dir      string
	maxBytes int64
}

func NewStore(dir string, maxBytes int64) (*Store, error) {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Save validates size and content type, then writes the upload to disk
// and returns the stored file name. The content type is sniffed from the
// file bytes, not taken from the client-supplied header.
func (s *Store) Save(header *multipart.FileHeader) (string, error) {
	if header.Size > s.maxBytes {
		return "", ErrFileTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	sniff := make([]byte, 512)
	n, err := io.ReadFull(src, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	sniff = sniff[:n]

	ext, ok := allowedContentTypes[normalizeContentType(http.DetectContentType(sniff))]
	if !ok {
		return "", ErrUnsupportedFileType
	}

	name := "passport-" + uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := dst.Write(sniff); err != nil {
		return "", err
	}
	// header.Size can lie; count the bytes actually read
	remaining := s.maxBytes - int64(len(sniff))
	written, err := io.Copy(dst, io.LimitReader(src, remaining+1))
	if err != nil {
		return "", err
	}
	if written > remaining {
		_ = os.Remove(filepath.Join(s.dir, name))
		return "", ErrFileTooLarge
	}

	return name, nil
}

// Path resolves a stored file name to its on-disk path. Only base names
// are accepted so clients cannot traverse out of the upload directory.
func (s *Store) Path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrFileNotFound
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", ErrFileNotFound
	}
	return path, nil
}
