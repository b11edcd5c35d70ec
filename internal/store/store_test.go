package store

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store { return NewMemory() })
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("tourdesk"),
		postgres.WithUsername("tourdesk"),
		postgres.WithPassword("tourdesk"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	runStoreTests(t, func(t *testing.T) Store {
		s, err := NewPostgres(ctx, dsn, slog.New(slog.DiscardHandler))
		require.NoError(t, err)
		// every subtest starts from empty tables
		pg := s.(*postgresStore)
		_, err = pg.pool.Exec(ctx, `TRUNCATE users, password_resets, categories, tours`)
		require.NoError(t, err)
		t.Cleanup(s.Close)
		return s
	})
}

func runStoreTests(t *testing.T, open func(t *testing.T) Store) {
	t.Run("users", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		u := &User{Username: "alice", Email: "Alice@Example.com", PasswordHash: "h1"}
		require.NoError(t, s.CreateUser(ctx, u))
		assert.NotEmpty(t, u.ID)

		err := s.CreateUser(ctx, &User{Username: "alice", Email: "other@example.com", PasswordHash: "h"})
		assert.ErrorIs(t, err, ErrDuplicateUsername)
		err = s.CreateUser(ctx, &User{Username: "bob", Email: "alice@example.com", PasswordHash: "h"})
		assert.ErrorIs(t, err, ErrDuplicateEmail)

		got, err := s.UserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		got, err = s.UserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)

		_, err = s.UserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.UpdatePassword(ctx, "alice@example.com", "h2"))
		got, err = s.UserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "h2", got.PasswordHash)

		assert.ErrorIs(t, s.UpdatePassword(ctx, "none@example.com", "h"), ErrNotFound)
	})

	t.Run("reset codes", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		now := time.Now()
		email := "alice@example.com"

		assert.ErrorIs(t, s.ConsumeVerification(ctx, email, now), ErrNotVerified)

		require.NoError(t, s.SaveResetCode(ctx, email, "111111", now.Add(5*time.Minute)))
		require.NoError(t, s.SaveResetCode(ctx, email, "222222", now.Add(5*time.Minute)))

		assert.ErrorIs(t, s.VerifyResetCode(ctx, email, "111111", now), ErrInvalidCode)
		assert.ErrorIs(t, s.ConsumeVerification(ctx, email, now), ErrNotVerified)

		require.NoError(t, s.VerifyResetCode(ctx, "ALICE@example.com", "222222", now))
		// a code works once
		assert.ErrorIs(t, s.VerifyResetCode(ctx, email, "222222", now), ErrInvalidCode)

		require.NoError(t, s.ConsumeVerification(ctx, email, now))
		assert.ErrorIs(t, s.ConsumeVerification(ctx, email, now), ErrNotVerified)
	})

	t.Run("expired code", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		now := time.Now()

		require.NoError(t, s.SaveResetCode(ctx, "a@b.co", "123456", now.Add(time.Minute)))
		assert.ErrorIs(t, s.VerifyResetCode(ctx, "a@b.co", "123456", now.Add(2*time.Minute)), ErrInvalidCode)
	})

	t.Run("categories", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		list, err := s.ListCategories(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)

		first, err := s.CreateCategory(ctx, "Beach")
		require.NoError(t, err)
		_, err = s.CreateCategory(ctx, "Hills")
		require.NoError(t, err)
		second, err := s.CreateCategory(ctx, "Beach")
		require.NoError(t, err)

		ok, err := s.CategoryExists(ctx, "Beach")
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, s.DeleteCategory(ctx, "Beach"))
		list, err = s.ListCategories(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Hills", list[0].Name)
		assert.Equal(t, second.ID, list[1].ID)
		assert.NotEqual(t, first.ID, list[1].ID)

		assert.ErrorIs(t, s.DeleteCategory(ctx, "Desert"), ErrNotFound)
	})

	t.Run("tours", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		tour := &Tour{
			PackageName:  "Island hop",
			Location:     "Maldives",
			Price:        1299.5,
			TotalNights:  5,
			Category:     "Beach",
			Expression:   "excellent",
			Amenities:    []string{"wifi", "pool"},
			Surroundings: []Surrounding{{Title: "Reef", Distance: "200m"}},
			Image:        "/uploads/x-reef.png",
		}
		require.NoError(t, s.CreateTour(ctx, tour))
		require.NotEmpty(t, tour.ID)

		got, err := s.TourByID(ctx, tour.ID)
		require.NoError(t, err)
		assert.Equal(t, tour.PackageName, got.PackageName)
		assert.InDelta(t, 1299.5, got.Price, 0.001)
		assert.Equal(t, []string{"wifi", "pool"}, got.Amenities)
		assert.Equal(t, tour.Surroundings, got.Surroundings)

		_, err = s.TourByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)

		assert.NoError(t, s.Ping(ctx))
	})
}
