package files

import (
	"encoding/base64"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerApp(t *testing.T) (*fiber.App, *Store) {
	t.Helper()
	s := newTestStore(t, 1<<20)
	app := fiber.New()
	NewHandler(s).RegisterRoutes(app.Group("/api"))
	return app, s
}

func TestGetImage(t *testing.T) {
	app, s := newHandlerApp(t)
	url, err := s.SaveDataURL("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes")))
	require.NoError(t, err)
	name := filepath.Base(url)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/getImage?fileName="+name, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	content, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), content)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/getImage", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/getImage?fileName=nope.png", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/getImage?fileName=..%2Fsecret", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestDownloadFile(t *testing.T) {
	app, s := newHandlerApp(t)
	url, err := s.SaveDataURL("data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("pdf-bytes")))
	require.NoError(t, err)
	name := filepath.Base(url)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/downloadFile?fileName="+name, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
}
