package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"catalog-admin/internal/store"
)

// Handler serves login and signup against the users table.
type Handler struct {
	store *store.Store
	svc   *Service
	log   zerolog.Logger
}

func NewHandler(st *store.Store, svc *Service, log zerolog.Logger) *Handler {
	return &Handler{store: st, svc: svc, log: log}
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var creds credentials
	if err := c.BodyParser(&creds); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	if creds.Email == "" || creds.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password are required")
	}

	user, err := h.findByEmail(c, creds.Email)
	if errors.Is(err, store.ErrNotFound) {
		return invalidCredentials(c)
	}
	if err != nil {
		return err
	}

	hash, _ := user["password"].(string)
	if !CheckPassword(hash, creds.Password) {
		return invalidCredentials(c)
	}
	if !isActive(user["active"]) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "User is inactive"})
	}

	token, err := h.svc.IssueToken(fmt.Sprint(user["id"]), creds.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"token": token,
		"user":  publicUser(user),
	})
}

func (h *Handler) Signup(c *fiber.Ctx) error {
	var creds credentials
	if err := c.BodyParser(&creds); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	if creds.Name == "" || creds.Email == "" || creds.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name, email and password are required")
	}

	hash, err := HashPassword(creds.Password)
	if err != nil {
		return err
	}

	id := uuid.New().String()
	now := store.TimeParam(h.store.Dialect, time.Now().UTC())
	pb := h.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf(
		`INSERT INTO users (id, name, email, password, active, created_at, updated_at)
		 VALUES (%s, %s, %s, %s, %s, %s, %s)`,
		pb.Add(id), pb.Add(creds.Name), pb.Add(creds.Email),
		pb.Add(hash), pb.Add(true), pb.Add(now), pb.Add(now))
	if _, err := h.store.DB.ExecContext(c.Context(), sqlStr, pb.Params()...); err != nil {
		if errors.Is(h.store.Dialect.MapError(err), store.ErrUniqueViolation) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already registered"})
		}
		return fmt.Errorf("signup: %w", err)
	}
	h.log.Info().Str("email", creds.Email).Msg("user signed up")

	token, err := h.svc.IssueToken(id, creds.Email)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":     id,
			"name":   creds.Name,
			"email":  creds.Email,
			"active": true,
		},
	})
}

func (h *Handler) findByEmail(c *fiber.Ctx, email string) (map[string]any, error) {
	pb := h.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf(
		"SELECT id, name, email, password, active FROM users WHERE email = %s",
		pb.Add(email))
	return store.QueryRow(c.Context(), h.store.DB, sqlStr, pb.Params()...)
}

func publicUser(user map[string]any) fiber.Map {
	return fiber.Map{
		"id":     user["id"],
		"name":   user["name"],
		"email":  user["email"],
		"active": isActive(user["active"]),
	}
}

// isActive tolerates the integer booleans SQLite hands back.
func isActive(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int64:
		return val != 0
	case float64:
		return val != 0
	}
	return false
}

func invalidCredentials(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
}

// RegisterRoutes wires the auth routes onto the /api group.
func (h *Handler) RegisterRoutes(api fiber.Router) {
	grp := api.Group("/auth")
	grp.Post("/login", h.Login)
	grp.Post("/signup", h.Signup)
}
