package testinternals

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymlog/internal/db"
)

// NewTestDBPool connects to the postgres instance used by the integration
// tests (POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB) and applies the schema.
// Tables are not emptied, tests work with freshly created users.
// The pool is closed on test cleanup.
func NewTestDBPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	host := envOr("POSTGRES_HOST", "localhost")
	t.Logf("using postgres host: %s", host)

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         host,
		DBPort:         envOr("POSTGRES_PORT", "5432"),
		DBName:         envOr("POSTGRES_DB", "gymlog_test"),
		DBUser:         envOr("POSTGRES_USER", "postgres"),
		DBPassword:     os.Getenv("POSTGRES_PASSWORD"),
		TracingEnabled: false,
	})
	require.NoError(t, err)
	t.Cleanup(dbPool.Close)

	require.NoError(t, db.ApplySchema(ctx, dbPool))

	return dbPool
}

// InsertUser adds a user with a random unique email directly, bypassing registration.
func InsertUser(t *testing.T, dbPool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := dbPool.QueryRow(
		context.Background(),
		`INSERT INTO users (name, email, password) VALUES ($1, $2, 'x') RETURNING id;`,
		gofakeit.Name(), UniqueEmail(),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func UniqueEmail() string {
	return strings.ToLower(uuid.NewString()[:8] + "." + gofakeit.Email())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
