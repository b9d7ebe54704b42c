// Package testdb spins up a disposable Postgres+pgvector backend for
// integration tests, mirroring the teacher's test/database.NewTestClient
// but targeting pkg/store instead of the ent client the teacher wraps.
package testdb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/newsroom-systems/chief/pkg/store"
)

// testEmbeddingDim is the fixed vector width used across integration
// tests; it has no bearing on which real embedding model a production
// deployment configures.
const testEmbeddingDim = 8

// New creates a bootstrapped Store for the duration of the test.
// In CI (when CI_DATABASE_URL is set) it connects to an externally
// provisioned PostgreSQL+pgvector service instead of spinning up a
// container, same split the teacher's test helper makes.
func New(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	var st *store.Store

	if dsn := os.Getenv("CI_DATABASE_URL"); dsn != "" {
		t.Log("using external PostgreSQL from CI_DATABASE_URL")
		var err error
		st, err = store.OpenDSN(ctx, dsn)
		require.NoError(t, err)
	} else {
		t.Log("using testcontainers for PostgreSQL+pgvector")
		pgContainer, err := postgres.Run(ctx,
			"pgvector/pgvector:pg16",
			postgres.WithDatabase("chief_test"),
			postgres.WithUsername("chief"),
			postgres.WithPassword("chief"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		require.NoError(t, err)
		t.Cleanup(func() {
			if err := testcontainers.TerminateContainer(pgContainer); err != nil {
				t.Logf("failed to terminate container: %v", err)
			}
		})

		dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)

		st, err = store.OpenDSN(ctx, dsn)
		require.NoError(t, err)
	}

	require.NoError(t, st.Bootstrap(ctx, testEmbeddingDim))
	t.Cleanup(st.Close)
	return st
}
