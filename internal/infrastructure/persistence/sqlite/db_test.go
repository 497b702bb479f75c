package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roshankumarc210506-arch/learnsphere/internal/infrastructure/persistence/sqlite"
	"github.com/roshankumarc210506-arch/learnsphere/internal/testutil"
)

func TestOpen_FileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "learnsphere.db")

	db, err := sqlite.Open(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, sqlite.NewProgressRepository(db.DB).Save(ctx, testutil.State("amy", created)))
	testutil.MustClose(t, db)

	db, err = sqlite.Open(ctx, path, nil)
	require.NoError(t, err)
	defer testutil.MustClose(t, db)

	state, err := sqlite.NewProgressRepository(db.DB).Load(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, "amy", state.Username)
}
