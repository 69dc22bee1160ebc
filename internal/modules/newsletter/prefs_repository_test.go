package newsletter

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const prefsTestSchema = `
CREATE TABLE newsletter_preferences (
    user_id TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    is_subscribed INTEGER NOT NULL DEFAULT 1,
    frequency TEXT NOT NULL DEFAULT 'weekly',
    preferred_day INTEGER NOT NULL DEFAULT 1,
    interested_in_options INTEGER NOT NULL DEFAULT 1,
    interested_in_dark_pool INTEGER NOT NULL DEFAULT 1,
    interested_in_insiders INTEGER NOT NULL DEFAULT 1,
    interested_in_recommendations INTEGER NOT NULL DEFAULT 1,
    last_delivery_at INTEGER,
    updated_at INTEGER NOT NULL
);
`

func setupPrefsRepo(t *testing.T) *PrefsRepository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(prefsTestSchema)
	require.NoError(t, err)

	return NewPrefsRepository(db, zerolog.Nop())
}

func testPrefs(userID string) *Preferences {
	return &Preferences{
		UserID:              userID,
		Email:               userID + "@example.com",
		IsSubscribed:        true,
		Frequency:           FrequencyWeekly,
		PreferredDay:        1,
		InterestedInOptions: true,
	}
}

func TestPrefsUpsertAndGet(t *testing.T) {
	repo := setupPrefsRepo(t)

	require.NoError(t, repo.Upsert(testPrefs("user-1")))

	got, err := repo.Get("user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-1@example.com", got.Email)
	assert.Equal(t, FrequencyWeekly, got.Frequency)
	assert.True(t, got.InterestedInOptions)
	assert.False(t, got.InterestedInDarkPool)
	assert.Nil(t, got.LastDeliveryAt)

	// Upsert replaces in place.
	p := testPrefs("user-1")
	p.Frequency = FrequencyDaily
	require.NoError(t, repo.Upsert(p))

	got, err = repo.Get("user-1")
	require.NoError(t, err)
	assert.Equal(t, FrequencyDaily, got.Frequency)
}

func TestPrefsGet_Missing(t *testing.T) {
	repo := setupPrefsRepo(t)

	got, err := repo.Get("nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPrefsUpsert_PreservesLastDelivery(t *testing.T) {
	repo := setupPrefsRepo(t)

	require.NoError(t, repo.Upsert(testPrefs("user-1")))
	delivered := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordDelivery("user-1", delivered))

	// A later preference save must not clear the delivery stamp.
	require.NoError(t, repo.Upsert(testPrefs("user-1")))

	got, err := repo.Get("user-1")
	require.NoError(t, err)
	require.NotNil(t, got.LastDeliveryAt)
	assert.Equal(t, delivered.Unix(), got.LastDeliveryAt.Unix())
}

func TestGetSubscribed(t *testing.T) {
	repo := setupPrefsRepo(t)

	require.NoError(t, repo.Upsert(testPrefs("user-1")))
	unsubbed := testPrefs("user-2")
	unsubbed.IsSubscribed = false
	require.NoError(t, repo.Upsert(unsubbed))

	subs, err := repo.GetSubscribed()
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "user-1", subs[0].UserID)
}

func TestSetSubscribed(t *testing.T) {
	repo := setupPrefsRepo(t)

	require.NoError(t, repo.Upsert(testPrefs("user-1")))
	require.NoError(t, repo.SetSubscribed("user-1", "", false))

	got, err := repo.Get("user-1")
	require.NoError(t, err)
	assert.False(t, got.IsSubscribed)

	require.NoError(t, repo.SetSubscribed("user-1", "", true))
	got, err = repo.Get("user-1")
	require.NoError(t, err)
	assert.True(t, got.IsSubscribed)
}

func TestSetSubscribed_UnknownUser(t *testing.T) {
	repo := setupPrefsRepo(t)

	err := repo.SetSubscribed("nobody", "", true)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// Subscribing with an email creates a minimal row.
	require.NoError(t, repo.SetSubscribed("new-user", "new@example.com", true))
	got, err := repo.Get("new-user")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsSubscribed)
	assert.Equal(t, "new@example.com", got.Email)
}
