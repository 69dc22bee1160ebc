package watchlist

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE watchlist_entries (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1,
	notes TEXT,
	added_at INTEGER NOT NULL,
	UNIQUE (user_id, symbol)
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

func TestAdd(t *testing.T) {
	repo := setupTestRepo(t)

	result, err := repo.Add("user-1", "aapl", "earnings play")
	require.NoError(t, err)
	require.NotNil(t, result.Entry)
	assert.False(t, result.Reactivated)
	assert.Equal(t, "AAPL", result.Entry.Symbol)
	assert.True(t, result.Entry.IsActive)
	assert.NotEmpty(t, result.Entry.ID)
}

func TestAdd_ActiveConflict(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Add("user-1", "AAPL", "")
	require.NoError(t, err)

	_, err = repo.Add("user-1", "AAPL", "")
	assert.ErrorIs(t, err, ErrAlreadyActive)

	// No duplicate row was created.
	var count int
	require.NoError(t, repo.db.QueryRow("SELECT COUNT(*) FROM watchlist_entries").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestAdd_ReactivatesSoftDeleted(t *testing.T) {
	repo := setupTestRepo(t)

	first, err := repo.Add("user-1", "AAPL", "")
	require.NoError(t, err)
	require.NoError(t, repo.Remove("user-1", "AAPL"))

	// Backdate the row so the reactivation timestamp is observably newer.
	_, err = repo.db.Exec("UPDATE watchlist_entries SET added_at = added_at - 3600 WHERE id = ?", first.Entry.ID)
	require.NoError(t, err)

	result, err := repo.Add("user-1", "AAPL", "back in")
	require.NoError(t, err)
	assert.True(t, result.Reactivated)
	assert.Equal(t, first.Entry.ID, result.Entry.ID)
	assert.True(t, result.Entry.IsActive)

	var count int
	require.NoError(t, repo.db.QueryRow("SELECT COUNT(*) FROM watchlist_entries").Scan(&count))
	assert.Equal(t, 1, count)

	var addedAt int64
	require.NoError(t, repo.db.QueryRow("SELECT added_at FROM watchlist_entries WHERE id = ?", first.Entry.ID).Scan(&addedAt))
	assert.GreaterOrEqual(t, addedAt, first.Entry.AddedAt.Unix())
}

func TestRemove_NotWatched(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.Remove("user-1", "AAPL")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGetForUser_OnlyActive(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Add("user-1", "AAPL", "")
	require.NoError(t, err)
	_, err = repo.Add("user-1", "TSLA", "")
	require.NoError(t, err)
	_, err = repo.Add("user-2", "NVDA", "")
	require.NoError(t, err)
	require.NoError(t, repo.Remove("user-1", "TSLA"))

	entries, err := repo.GetForUser("user-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "AAPL", entries[0].Symbol)
}

func TestBulkAdd_SkipsActive(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Add("user-1", "AAPL", "")
	require.NoError(t, err)

	added, err := repo.BulkAdd("user-1", []string{"AAPL", "TSLA", "NVDA"})
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, "TSLA", added[0].Symbol)
	assert.Equal(t, "NVDA", added[1].Symbol)
}

func TestGetDistinctActiveSymbols(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Add("user-1", "AAPL", "")
	require.NoError(t, err)
	_, err = repo.Add("user-2", "AAPL", "")
	require.NoError(t, err)
	_, err = repo.Add("user-2", "TSLA", "")
	require.NoError(t, err)
	require.NoError(t, repo.Remove("user-2", "TSLA"))

	symbols, err := repo.GetDistinctActiveSymbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, symbols)
}

func TestGetUsersWatching(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Add("user-1", "AAPL", "")
	require.NoError(t, err)
	_, err = repo.Add("user-2", "AAPL", "")
	require.NoError(t, err)
	_, err = repo.Add("user-3", "TSLA", "")
	require.NoError(t, err)

	users, err := repo.GetUsersWatching("AAPL")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user-1", "user-2"}, users)
}
