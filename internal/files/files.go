package files

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"catalog-admin/internal/config"
)

// URLPrefix is the public prefix stored in File columns for every upload.
const URLPrefix = "/uploads"

var (
	ErrNotDataURL     = errors.New("payload is not a base64 data URL")
	ErrTypeNotAllowed = errors.New("file type not allowed")
	ErrTooLarge       = errors.New("file exceeds the size limit")
)

var dataURLPattern = regexp.MustCompile(`^data:(\w+/[\w.+-]+);base64,`)

// allowedMIME lists the accepted non-image types; any image/* passes.
var allowedMIME = map[string]bool{
	"application/pdf":    true,
	"text/plain":         true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

// extByMIME overrides the extension derived from the MIME subtype.
var extByMIME = map[string]string{
	"image/jpeg":         "jpg",
	"image/svg+xml":      "svg",
	"text/plain":         "txt",
	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"application/vnd.ms-excel": "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "xlsx",
}

// Store writes uploads under a single root directory and hands out
// /uploads/<name> URLs for File columns.
type Store struct {
	root string
	max  int64
	log  zerolog.Logger
}

func New(cfg config.StorageConfig, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{root: cfg.UploadsDir, max: cfg.MaxFileSize, log: log}, nil
}

// SaveDataURL decodes a base64 data URL, checks its MIME type against the
// allow-list and stores it under a random name. Returns the public URL.
func (s *Store) SaveDataURL(dataURL string) (string, error) {
	match := dataURLPattern.FindStringSubmatch(dataURL)
	if match == nil {
		return "", ErrNotDataURL
	}
	mimeType := match[1]
	if !strings.HasPrefix(mimeType, "image/") && !allowedMIME[mimeType] {
		return "", fmt.Errorf("%w: %s", ErrTypeNotAllowed, mimeType)
	}

	data, err := base64.StdEncoding.DecodeString(dataURL[len(match[0]):])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotDataURL, err)
	}
	if s.max > 0 && int64(len(data)) > s.max {
		return "", ErrTooLarge
	}

	name := uuid.New().String() + "." + extensionFor(mimeType)
	if err := os.WriteFile(filepath.Join(s.root, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return URLPrefix + "/" + name, nil
}

// DeleteURLList unlinks every upload in a comma-joined URL list. Failures
// are logged and swallowed; file cleanup never blocks a row mutation.
func (s *Store) DeleteURLList(joined string) {
	for _, url := range strings.Split(joined, ",") {
		url = strings.TrimSpace(url)
		if !strings.HasPrefix(url, URLPrefix) {
			continue
		}
		name := filepath.Base(url)
		if err := os.Remove(filepath.Join(s.root, name)); err != nil && !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("file", name).Msg("could not delete upload")
		}
	}
}

// Resolve maps a bare file name to its path under the uploads root. Names
// carrying path separators or traversal segments are rejected.
func (s *Store) Resolve(fileName string) (string, error) {
	if fileName == "" || fileName != filepath.Base(fileName) || strings.Contains(fileName, "..") {
		return "", fmt.Errorf("invalid file name %q", fileName)
	}
	return filepath.Join(s.root, fileName), nil
}

func extensionFor(mimeType string) string {
	if ext, ok := extByMIME[mimeType]; ok {
		return ext
	}
	_, subtype, _ := strings.Cut(mimeType, "/")
	return subtype
}

// MimeByExtension maps a stored file name back to a Content-Type for
// downloads.
func MimeByExtension(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
