package files

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-admin/internal/config"
)

func newTestStore(t *testing.T, maxSize int64) *Store {
	t.Helper()
	s, err := New(config.StorageConfig{
		UploadsDir:  filepath.Join(t.TempDir(), "uploads"),
		MaxFileSize: maxSize,
	}, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func dataURL(mime string, content []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(content)
}

func TestSaveDataURL(t *testing.T) {
	s := newTestStore(t, 1<<20)

	url, err := s.SaveDataURL(dataURL("image/png", []byte("png-bytes")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	path, err := s.Resolve(filepath.Base(url))
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), content)
}

func TestSaveDataURLExtensions(t *testing.T) {
	s := newTestStore(t, 1<<20)

	tests := []struct {
		mime string
		ext  string
	}{
		{"image/jpeg", ".jpg"},
		{"text/plain", ".txt"},
		{"application/pdf", ".pdf"},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", ".docx"},
	}
	for _, tt := range tests {
		url, err := s.SaveDataURL(dataURL(tt.mime, []byte("x")))
		require.NoError(t, err, tt.mime)
		assert.True(t, strings.HasSuffix(url, tt.ext), "%s -> %s", tt.mime, url)
	}
}

func TestSaveDataURLRejections(t *testing.T) {
	s := newTestStore(t, 8)

	_, err := s.SaveDataURL("not a data url")
	assert.ErrorIs(t, err, ErrNotDataURL)

	_, err = s.SaveDataURL("data:image/png;base64,%%%%")
	assert.ErrorIs(t, err, ErrNotDataURL)

	_, err = s.SaveDataURL(dataURL("application/zip", []byte("x")))
	assert.ErrorIs(t, err, ErrTypeNotAllowed)

	_, err = s.SaveDataURL(dataURL("image/png", []byte("more than eight bytes")))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDeleteURLList(t *testing.T) {
	s := newTestStore(t, 1<<20)

	first, err := s.SaveDataURL(dataURL("image/png", []byte("a")))
	require.NoError(t, err)
	second, err := s.SaveDataURL(dataURL("image/png", []byte("b")))
	require.NoError(t, err)

	s.DeleteURLList(first + "," + second + ",/elsewhere/skip.png,/uploads/missing.png")

	for _, url := range []string{first, second} {
		path, err := s.Resolve(filepath.Base(url))
		require.NoError(t, err)
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err), "%s deleted", url)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	s := newTestStore(t, 1<<20)

	for _, name := range []string{"", "../secret", "a/b.png", "..", "dir/../x.png"} {
		_, err := s.Resolve(name)
		assert.Error(t, err, "name %q", name)
	}

	_, err := s.Resolve("plain.png")
	assert.NoError(t, err)
}

func TestMimeByExtension(t *testing.T) {
	assert.Equal(t, "image/jpeg", MimeByExtension("photo.JPG"))
	assert.Equal(t, "application/pdf", MimeByExtension("doc.pdf"))
	assert.Equal(t, "application/octet-stream", MimeByExtension("blob.bin"))
}
