package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"memeconomy/internal/config"
	"memeconomy/internal/storage/migrations"
)

// setupTestStore starts a disposable Postgres container, applies the embedded
// migrations, and returns a ready Store. The container is torn down when the
// test finishes.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, config.DatabaseConfig{DSN: dsn})
	require.NoError(t, err, "failed to create pool")

	require.NoError(t, migrations.Run(ctx, pool), "failed to apply migrations")

	store := NewStore(pool)
	t.Cleanup(func() {
		store.Close()
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})
	return store
}

func seedToken(t *testing.T, ctx context.Context, store *Store, symbol string, price, supply decimal.Decimal) Token {
	t.Helper()
	token := Token{
		ID:              uuid.New(),
		Symbol:          symbol,
		Name:            symbol + " Test Token",
		TotalSupply:     supply,
		AvailableSupply: supply,
		PricePerUnit:    price,
		IsMemecoin:      true,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, store.CreateToken(ctx, token), "failed to seed token")
	return token
}
