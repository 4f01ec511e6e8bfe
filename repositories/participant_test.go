package repositories

import (
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	apperr "batepapo/errors"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Join_And_List(t *testing.T) {
	req := require.New(t)
	repository := NewParticipantRepository(newTestDB(t))
	now := time.Now().UTC()

	req.NoError(repository.Join("Alice", now))
	req.NoError(repository.Join("Bob", now.Add(time.Second)))

	participants, err := repository.List()
	req.NoError(err)
	req.Len(participants, 2)

	names := []string{participants[0].Name, participants[1].Name}
	req.ElementsMatch([]string{"Alice", "Bob"}, names)
}

func Test_Join_Duplicate_Name_Returns_Conflict(t *testing.T) {
	req := require.New(t)
	repository := NewParticipantRepository(newTestDB(t))
	now := time.Now().UTC()

	req.NoError(repository.Join("Alice", now))
	req.ErrorIs(repository.Join("Alice", now.Add(time.Second)), apperr.ErrNameTaken)
}

func Test_Join_Concurrent_Same_Name_Single_Winner(t *testing.T) {
	req := require.New(t)
	repository := NewParticipantRepository(newTestDB(t))
	now := time.Now().UTC()

	const contenders = 8
	results := make(chan error, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repository.Join("Alice", now)
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			req.ErrorIs(err, apperr.ErrNameTaken)
			conflicts++
		}
	}
	req.Equal(1, successes)
	req.Equal(contenders-1, conflicts)

	participants, err := repository.List()
	req.NoError(err)
	req.Len(participants, 1)
}

func Test_Heartbeat_Updates_LastActivity(t *testing.T) {
	req := require.New(t)
	repository := NewParticipantRepository(newTestDB(t))
	joined := time.Now().UTC().Truncate(time.Millisecond)
	beat := joined.Add(7 * time.Second)

	req.NoError(repository.Join("Alice", joined))
	req.NoError(repository.Heartbeat("Alice", beat))

	participants, err := repository.List()
	req.NoError(err)
	req.Len(participants, 1)
	req.Equal(beat, participants[0].LastActivity)
}

func Test_Heartbeat_Unknown_Participant(t *testing.T) {
	repository := NewParticipantRepository(newTestDB(t))
	require.ErrorIs(t, repository.Heartbeat("Ghost", time.Now().UTC()), apperr.ErrUnknownParticipant)
}

func Test_IsActive_And_Remove(t *testing.T) {
	req := require.New(t)
	repository := NewParticipantRepository(newTestDB(t))

	req.NoError(repository.Join("Alice", time.Now().UTC()))

	active, err := repository.IsActive("Alice")
	req.NoError(err)
	req.True(active)

	req.NoError(repository.Remove("Alice"))

	active, err = repository.IsActive("Alice")
	req.NoError(err)
	req.False(active)

	// Removing an absent name stays silent, eviction relies on it.
	req.NoError(repository.Remove("Alice"))
}
