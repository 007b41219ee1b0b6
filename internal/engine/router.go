package engine

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"catalog-admin/internal/metadata"
	"catalog-admin/internal/store"
)

// BuildRepositories creates one repository per registered entity.
func BuildRepositories(st *store.Store, reg *metadata.Registry, rules *Rules, fs FileStore, log zerolog.Logger) map[string]*Repository {
	repos := make(map[string]*Repository, len(reg.Entities()))
	for _, entity := range reg.Entities() {
		repos[entity.Name] = NewRepository(st, reg, entity, rules, fs, log)
	}
	return repos
}

// RegisterRoutes wires the generic entity routes onto the /api group.
// requireAuth gates every mutating method; register fixed routes (auth,
// files) before this so they win over the :entity parameter.
func RegisterRoutes(api fiber.Router, repos map[string]*Repository, requireAuth fiber.Handler, log zerolog.Logger) {
	h := NewHandler(repos, log)
	api.Get("/:entity", h.Read)
	api.Post("/:entity", requireAuth, h.Create)
	api.Put("/:entity", requireAuth, h.Update)
	api.Delete("/:entity", requireAuth, h.Delete)
}
