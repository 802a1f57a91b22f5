//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer is a throwaway Postgres with an empty contractpay database.
type PostgresContainer struct {
	Container *tcpostgres.PostgresContainer
	URL       string
}

// NewPostgresContainer starts Postgres and registers cleanup on t. Callers
// run migrations themselves.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("contractpay"),
		tcpostgres.WithUsername("contractpay"),
		tcpostgres.WithPassword("contractpay"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	testcontainers.CleanupContainer(t, container)

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	return &PostgresContainer{Container: container, URL: url}
}
