package engine

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"catalog-admin/internal/files"
	"catalog-admin/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Handler serves the generic entity routes; the entity comes from the path
// and everything else from its metadata.
type Handler struct {
	repos map[string]*Repository
	log   zerolog.Logger
}

func NewHandler(repos map[string]*Repository, log zerolog.Logger) *Handler {
	return &Handler{repos: repos, log: log}
}

func (h *Handler) repo(c *fiber.Ctx) (*Repository, error) {
	name := c.Params("entity")
	repo, ok := h.repos[name]
	if !ok {
		return nil, NewAppError(fiber.StatusNotFound, "unknown entity "+name)
	}
	return repo, nil
}

// Read serves both single-record lookups (?id=) and paginated lists. Only
// literal GETs skip the session check, so any other method string that lands
// here is rejected like the rest of the mutating surface.
func (h *Handler) Read(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodGet {
		return Unauthorized()
	}
	repo, err := h.repo(c)
	if err != nil {
		return err
	}

	if id := c.Query("id"); id != "" {
		record, err := repo.Get(c.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return NotFound(repo.Entity().Name)
			}
			return err
		}
		return c.JSON(record)
	}

	params := c.Queries()
	entity := repo.Entity()
	filter := BuildFilter(entity, params)
	sort := BuildSort(entity, params)
	page := parsePage(c)

	rows, total, err := repo.List(c.Context(), filter, sort, page)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": rows,
		"pagination": fiber.Map{
			"page":     page.Number,
			"pageSize": page.Size,
			"total":    total,
		},
	})
}

func (h *Handler) Create(c *fiber.Ctx) error {
	repo, err := h.repo(c)
	if err != nil {
		return err
	}
	payload, err := parseBody(c)
	if err != nil {
		return BadRequest("invalid JSON body")
	}

	record, err := repo.Create(c.Context(), payload)
	if err != nil {
		return passthrough(err, "Error creating "+repo.Entity().Name)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *Handler) Update(c *fiber.Ctx) error {
	repo, err := h.repo(c)
	if err != nil {
		return err
	}
	id := c.Query("id")
	if id == "" {
		return BadRequest("id is required")
	}
	payload, err := parseBody(c)
	if err != nil {
		return BadRequest("invalid JSON body")
	}

	record, err := repo.Update(c.Context(), id, payload)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound(repo.Entity().Name)
		}
		return passthrough(err, "Error updating "+repo.Entity().Name)
	}
	return c.JSON(record)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	repo, err := h.repo(c)
	if err != nil {
		return err
	}
	id := c.Query("id")
	if id == "" {
		return BadRequest("id is required")
	}

	if err := repo.Delete(c.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound(repo.Entity().Name)
		}
		return passthrough(err, "Error deleting "+repo.Entity().Name)
	}
	return c.JSON(fiber.Map{"message": repo.Entity().Name + " deleted successfully"})
}

// passthrough keeps errors the central handler knows how to map and folds
// everything else into the generic per-operation message.
func passthrough(err error, fallback string) error {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrUniqueViolation),
		errors.Is(err, files.ErrNotDataURL),
		errors.Is(err, files.ErrTypeNotAllowed),
		errors.Is(err, files.ErrTooLarge):
		return err
	}
	return Internal(fallback)
}

func parseBody(c *fiber.Ctx) (map[string]any, error) {
	payload := make(map[string]any)
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func parsePage(c *fiber.Ctx) Page {
	page := c.QueryInt("page", 1)
	size := c.QueryInt("pageSize", defaultPageSize)
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return Page{Number: page, Size: size}
}
