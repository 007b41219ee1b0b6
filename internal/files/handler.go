package files

import (
	"os"

	"github.com/gofiber/fiber/v2"
)

// Handler serves stored uploads: inline for images, attachment for
// downloads.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// GetImage streams an upload inline by file name.
func (h *Handler) GetImage(c *fiber.Ctx) error {
	path, err := h.resolve(c)
	if err != nil {
		return err
	}
	return c.SendFile(path)
}

// DownloadFile streams an upload as an attachment with the Content-Type
// inferred from its extension.
func (h *Handler) DownloadFile(c *fiber.Ctx) error {
	path, err := h.resolve(c)
	if err != nil {
		return err
	}
	name := c.Query("fileName")
	if err := c.Download(path, name); err != nil {
		return err
	}
	// SendFile guesses the type from a fixed table; ours knows the office
	// formats too
	c.Set(fiber.HeaderContentType, MimeByExtension(name))
	return nil
}

func (h *Handler) resolve(c *fiber.Ctx) (string, error) {
	name := c.Query("fileName")
	if name == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "fileName is required")
	}
	path, err := h.store.Resolve(name)
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid file name")
	}
	if _, err := os.Stat(path); err != nil {
		return "", fiber.NewError(fiber.StatusNotFound, "file not found")
	}
	return path, nil
}

// RegisterRoutes wires the file routes onto the /api group.
func (h *Handler) RegisterRoutes(api fiber.Router) {
	api.Get("/getImage", h.GetImage)
	api.Get("/downloadFile", h.DownloadFile)
}
