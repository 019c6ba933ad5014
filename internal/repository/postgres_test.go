package repository

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/medml-risk-server/internal/database"
	"github.com/medml-risk-server/internal/database/dbtest"
)

func TestPostgresStore_Contract(t *testing.T) {
	cfg := dbtest.Postgres(t, "../../migrations")
	logger, _ := test.NewNullLogger()

	runner, err := database.NewMigrationRunner(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, runner.Up())
	require.NoError(t, runner.Close())

	db, err := database.NewConnection(context.Background(), cfg, logger)
	require.NoError(t, err)

	store := NewPostgresStore(db, logger)
	defer store.Close()

	runStoreContract(t, store)
}
