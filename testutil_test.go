package gqlauth_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/goliatone/go-gqlauth"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// newTestDB opens an isolated in-memory database with the package schema.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	models := []any{
		(*gqlauth.User)(nil),
		(*gqlauth.RefreshToken)(nil),
		(*gqlauth.CaptchaChallenge)(nil),
	}
	for _, model := range models {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	return db
}

func newTestRepo(t *testing.T) gqlauth.RepositoryManager {
	t.Helper()
	return gqlauth.NewRepositoryManager(newTestDB(t))
}
