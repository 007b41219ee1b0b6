package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"catalog-admin/internal/metadata"
)

// Bootstrap creates the catalog schema and seeds the initial admin user.
func (s *Store) Bootstrap(ctx context.Context, reg *metadata.Registry) error {
	if err := NewMigrator(s, reg).EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.seedAdminUser(ctx); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}

func (s *Store) seedAdminUser(ctx context.Context) error {
	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	pb := s.Dialect.NewParamBuilder()
	now := TimeParam(s.Dialect, time.Now().UTC())
	sqlStr := fmt.Sprintf(
		`INSERT INTO users (id, name, email, password, active, created_at, updated_at)
		 VALUES (%s, %s, %s, %s, %s, %s, %s)`,
		pb.Add(uuid.New().String()), pb.Add("Admin"), pb.Add("admin@localhost"),
		pb.Add(string(hash)), pb.Add(true), pb.Add(now), pb.Add(now))
	if _, err := s.DB.ExecContext(ctx, sqlStr, pb.Params()...); err != nil {
		return err
	}

	log.Warn().Msg("default admin user created (admin@localhost / changeme) — change the password immediately")
	return nil
}
