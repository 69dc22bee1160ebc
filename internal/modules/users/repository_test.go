package users

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE user_preferences (
	user_id TEXT PRIMARY KEY,
	email TEXT,
	display_name TEXT,
	risk_tolerance TEXT,
	preferences_json TEXT,
	updated_at INTEGER NOT NULL
);
`

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return NewRepository(db, zerolog.Nop())
}

func TestUpsertAndGet(t *testing.T) {
	repo := setupTestRepo(t)

	require.NoError(t, repo.Upsert(&Preferences{
		UserID:        "user-1",
		Email:         "jordan@example.com",
		DisplayName:   "Jordan",
		RiskTolerance: "moderate",
	}))

	got, err := repo.Get("user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "jordan@example.com", got.Email)
	assert.Equal(t, "moderate", got.RiskTolerance)

	// Upsert replaces in place.
	require.NoError(t, repo.Upsert(&Preferences{
		UserID:        "user-1",
		Email:         "jordan@example.com",
		RiskTolerance: "aggressive",
	}))

	got, err = repo.Get("user-1")
	require.NoError(t, err)
	assert.Equal(t, "aggressive", got.RiskTolerance)
	assert.Empty(t, got.DisplayName)
}

func TestGet_Missing(t *testing.T) {
	repo := setupTestRepo(t)

	got, err := repo.Get("nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}
