package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT users_username_key UNIQUE (username)
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email));

CREATE TABLE IF NOT EXISTS password_resets (
	email      TEXT PRIMARY KEY,
	code       TEXT NOT NULL,
	verified   BOOLEAN NOT NULL DEFAULT FALSE,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	seq  BIGSERIAL PRIMARY KEY,
	id   TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tours (
	id              TEXT PRIMARY KEY,
	package_name    TEXT NOT NULL,
	location        TEXT NOT NULL,
	price           DOUBLE PRECISION NOT NULL,
	total_nights    INTEGER NOT NULL,
	category        TEXT NOT NULL,
	policies        TEXT NOT NULL,
	hotel_details   TEXT NOT NULL,
	contact_details TEXT NOT NULL,
	is_premium      BOOLEAN NOT NULL,
	review          TEXT NOT NULL,
	expression      TEXT NOT NULL,
	amenities       JSONB NOT NULL,
	surroundings    JSONB NOT NULL,
	image           TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

type postgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres connects to databaseURL and creates the schema if missing
func NewPostgres(ctx context.Context, databaseURL string, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("connected to postgres", slog.Int("max_conns", int(pool.Config().MaxConns)))
	return &postgresStore{pool: pool, logger: logger}, nil
}

// isUniqueViolation checks if the error is a unique constraint violation
func isUniqueViolation(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && pgErr.ConstraintName == constraintName
}

func (s *postgresStore) CreateUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	id := uuid.New().String()
	err := s.pool.QueryRow(ctx, query, id, u.Username, u.Email, u.PasswordHash).Scan(&u.CreatedAt)
	switch {
	case isUniqueViolation(err, "users_username_key"):
		return ErrDuplicateUsername
	case isUniqueViolation(err, "users_email_key"):
		return ErrDuplicateEmail
	case err != nil:
		s.logger.Error("error creating user", slog.Any("error", err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.ID = id
	return nil
}

func (s *postgresStore) userBy(ctx context.Context, where string, arg string) (*User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE ` + where

	u := &User{}
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *postgresStore) UserByUsername(ctx context.Context, username string) (*User, error) {
	return s.userBy(ctx, "username = $1", username)
}

func (s *postgresStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.userBy(ctx, "lower(email) = lower($1)", email)
}

func (s *postgresStore) UpdatePassword(ctx context.Context, email, hash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE lower(email) = lower($1)`, email, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *postgresStore) SaveResetCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	query := `
		INSERT INTO password_resets (email, code, verified, expires_at)
		VALUES ($1, $2, FALSE, $3)
		ON CONFLICT (email) DO UPDATE
		SET code = EXCLUDED.code, verified = FALSE, expires_at = EXCLUDED.expires_at
	`
	if _, err := s.pool.Exec(ctx, query, strings.ToLower(email), code, expiresAt); err != nil {
		return fmt.Errorf("failed to save reset code: %w", err)
	}
	return nil
}

func (s *postgresStore) VerifyResetCode(ctx context.Context, email, code string, now time.Time) error {
	query := `
		UPDATE password_resets
		SET verified = TRUE, code = ''
		WHERE email = $1 AND code = $2 AND code <> '' AND NOT verified AND expires_at > $3
	`
	tag, err := s.pool.Exec(ctx, query, strings.ToLower(email), code, now)
	if err != nil {
		return fmt.Errorf("failed to verify reset code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidCode
	}
	return nil
}

func (s *postgresStore) ConsumeVerification(ctx context.Context, email string, now time.Time) error {
	query := `DELETE FROM password_resets WHERE email = $1 AND verified AND expires_at > $2`
	tag, err := s.pool.Exec(ctx, query, strings.ToLower(email), now)
	if err != nil {
		return fmt.Errorf("failed to consume verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotVerified
	}
	return nil
}

func (s *postgresStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *postgresStore) CreateCategory(ctx context.Context, name string) (*Category, error) {
	c := &Category{ID: uuid.New().String(), Name: name}
	if _, err := s.pool.Exec(ctx, `INSERT INTO categories (id, name) VALUES ($1, $2)`, c.ID, c.Name); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

func (s *postgresStore) DeleteCategory(ctx context.Context, name string) error {
	query := `
		DELETE FROM categories
		WHERE seq = (SELECT seq FROM categories WHERE name = $1 ORDER BY seq LIMIT 1)
	`
	tag, err := s.pool.Exec(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *postgresStore) CategoryExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category: %w", err)
	}
	return exists, nil
}

func (s *postgresStore) CreateTour(ctx context.Context, t *Tour) error {
	amenities, err := json.Marshal(nonNil(t.Amenities))
	if err != nil {
		return fmt.Errorf("failed to encode amenities: %w", err)
	}
	surroundings, err := json.Marshal(nonNil(t.Surroundings))
	if err != nil {
		return fmt.Errorf("failed to encode surroundings: %w", err)
	}

	query := `
		INSERT INTO tours (
			id, package_name, location, price, total_nights, category, policies,
			hotel_details, contact_details, is_premium, review, expression,
			amenities, surroundings, image
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at
	`

	id := uuid.New().String()
	err = s.pool.QueryRow(ctx, query,
		id, t.PackageName, t.Location, t.Price, t.TotalNights, t.Category, t.Policies,
		t.HotelDetails, t.ContactDetails, t.IsPremium, t.Review, t.Expression,
		amenities, surroundings, t.Image,
	).Scan(&t.CreatedAt)
	if err != nil {
		s.logger.Error("error creating tour", slog.Any("error", err))
		return fmt.Errorf("failed to create tour: %w", err)
	}

	t.ID = id
	return nil
}

func (s *postgresStore) TourByID(ctx context.Context, id string) (*Tour, error) {
	query := `
		SELECT id, package_name, location, price, total_nights, category, policies,
			hotel_details, contact_details, is_premium, review, expression,
			amenities, surroundings, image, created_at
		FROM tours
		WHERE id = $1
	`

	t := &Tour{}
	var amenities, surroundings []byte
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.PackageName, &t.Location, &t.Price, &t.TotalNights, &t.Category, &t.Policies,
		&t.HotelDetails, &t.ContactDetails, &t.IsPremium, &t.Review, &t.Expression,
		&amenities, &surroundings, &t.Image, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}

	if err := json.Unmarshal(amenities, &t.Amenities); err != nil {
		return nil, fmt.Errorf("failed to decode amenities: %w", err)
	}
	if err := json.Unmarshal(surroundings, &t.Surroundings); err != nil {
		return nil, fmt.Errorf("failed to decode surroundings: %w", err)
	}
	return t, nil
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *postgresStore) Close() {
	s.pool.Close()
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
