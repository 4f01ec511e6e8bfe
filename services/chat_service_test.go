package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"batepapo/domain"
	apperr "batepapo/errors"
	"batepapo/moderation"
	"batepapo/repositories"
)

type fixture struct {
	svc          *ChatService
	participants repositories.ParticipantRepository
	messages     repositories.MessageRepository
	current      *time.Time
}

// newFixture wires the service against a throwaway badger store and a
// deterministic clock. The clock advances one millisecond per reading so
// every append gets a distinct ordering key.
func newFixture(t *testing.T, censoredWords ...string) *fixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	moderator, err := moderation.NewModerator(censoredWords, '*')
	require.NoError(t, err)

	current := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	f := &fixture{
		participants: repositories.NewParticipantRepository(db),
		messages:     repositories.NewMessageRepository(db),
		current:      &current,
	}
	clock := func() time.Time {
		*f.current = f.current.Add(time.Millisecond)
		return *f.current
	}
	f.svc = NewChatService(logs.GetLoggerFromLevel(slog.LevelDebug), f.participants, f.messages, moderator, clock)
	return f
}

func texts(messages []domain.Message) []string {
	return lo.Map(messages, func(m domain.Message, _ int) string { return m.Text })
}

func TestChatService_Join(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	req.NoError(f.svc.Join("Alice"))

	participants, err := f.svc.Participants()
	req.NoError(err)
	req.Len(participants, 1)
	req.Equal("Alice", participants[0].Name)

	visible, err := f.svc.ListFor("", nil)
	req.NoError(err)
	req.Len(visible, 1)
	req.Equal("Alice", visible[0].From)
	req.Equal(domain.Broadcast, visible[0].To)
	req.Equal(domain.JoinedNotice, visible[0].Text)
	req.Equal(domain.KindStatus, visible[0].Kind)

	req.ErrorIs(f.svc.Join("Alice"), apperr.ErrNameTaken)
	req.ErrorIs(f.svc.Join("<b> </b>"), apperr.ErrNameRequired)
}

func TestChatService_Join_SanitizesName(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	req.NoError(f.svc.Join("  <b>Alice</b> "))
	// The markup variant collides with the clean name, same key.
	req.ErrorIs(f.svc.Join("Alice"), apperr.ErrNameTaken)
}

func TestChatService_Heartbeat(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	req.NoError(f.svc.Join("Alice"))
	req.NoError(f.svc.Heartbeat("Alice"))
	req.ErrorIs(f.svc.Heartbeat("Ghost"), apperr.ErrUnknownParticipant)
	req.ErrorIs(f.svc.Heartbeat("<br/>"), apperr.ErrUnknownParticipant)

	participants, err := f.svc.Participants()
	req.NoError(err)
	req.Equal(*f.current, participants[0].LastActivity.Add(time.Millisecond))
}

func TestChatService_SendAndVisibility(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	req.NoError(f.svc.Join("Alice"))
	req.NoError(f.svc.Join("Bob"))

	_, err := f.svc.Send("Alice", domain.Broadcast, "hi", "broadcast")
	req.NoError(err)
	_, err = f.svc.Send("Alice", "Bob", "secret", "direct")
	req.NoError(err)

	forBob, err := f.svc.ListFor("Bob", nil)
	req.NoError(err)
	req.Contains(texts(forBob), "hi")
	req.Contains(texts(forBob), "secret")

	forCarol, err := f.svc.ListFor("Carol", nil)
	req.NoError(err)
	req.Contains(texts(forCarol), "hi")
	req.NotContains(texts(forCarol), "secret")

	forAlice, err := f.svc.ListFor("Alice", nil)
	req.NoError(err)
	req.Contains(texts(forAlice), "secret")

	// Senders must be active participants; payloads must be complete.
	_, err = f.svc.Send("Eve", domain.Broadcast, "hi", "broadcast")
	req.ErrorIs(err, apperr.ErrUnknownParticipant)
	_, err = f.svc.Send("Alice", domain.Broadcast, "", "broadcast")
	req.ErrorIs(err, apperr.ErrInvalidMessage)
	_, err = f.svc.Send("Alice", "", "hi", "broadcast")
	req.ErrorIs(err, apperr.ErrInvalidMessage)
	_, err = f.svc.Send("Alice", domain.Broadcast, "hi", "status")
	req.ErrorIs(err, apperr.ErrInvalidMessage)
}

func TestChatService_ListFor_IsIdempotent(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	req.NoError(f.svc.Join("Alice"))
	_, err := f.svc.Send("Alice", domain.Broadcast, "hi", "broadcast")
	req.NoError(err)

	first, err := f.svc.ListFor("Bob", nil)
	req.NoError(err)
	second, err := f.svc.ListFor("Bob", nil)
	req.NoError(err)
	req.Equal(first, second)
}

func TestChatService_TailLimitAfterFiltering(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	req.NoError(f.svc.Join("Alice"))
	for _, text := range []string{"b1", "b2"} {
		_, err := f.svc.Send("Alice", domain.Broadcast, text, "broadcast")
		req.NoError(err)
	}
	_, err := f.svc.Send("Alice", "Bob", "secret", "direct")
	req.NoError(err)
	for _, text := range []string{"b3", "b4"} {
		_, err := f.svc.Send("Alice", domain.Broadcast, text, "broadcast")
		req.NoError(err)
	}

	// Carol sees the join notice and b1..b4; the direct message is
	// filtered out before the limit applies.
	visible, err := f.svc.ListFor("Carol", nil)
	req.NoError(err)
	req.Equal([]string{domain.JoinedNotice, "b1", "b2", "b3", "b4"}, texts(visible))

	limit := 2
	tail, err := f.svc.ListFor("Carol", &limit)
	req.NoError(err)
	req.Equal([]string{"b3", "b4"}, texts(tail))

	limit = 0
	empty, err := f.svc.ListFor("Carol", &limit)
	req.NoError(err)
	req.Empty(empty)

	limit = 100
	all, err := f.svc.ListFor("Carol", &limit)
	req.NoError(err)
	req.Equal(texts(visible), texts(all))
}

func TestChatService_EditOwnership(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	req.NoError(f.svc.Join("Alice"))
	req.NoError(f.svc.Join("Bob"))
	message, err := f.svc.Send("Alice", domain.Broadcast, "original", "broadcast")
	req.NoError(err)

	// A non-author edit fails and leaves the record untouched.
	err = f.svc.Edit(message.ID, "Bob", domain.Broadcast, "hijacked", "broadcast")
	req.ErrorIs(err, apperr.ErrNotMessageOwner)
	unchanged, err := f.messages.Get(message.ID)
	req.NoError(err)
	req.Equal(message, unchanged)

	// The author may rewrite fields; the display time is re-stamped.
	*f.current = f.current.Add(2 * time.Minute)
	req.NoError(f.svc.Edit(message.ID, "Alice", "Bob", "edited", "direct"))
	edited, err := f.messages.Get(message.ID)
	req.NoError(err)
	req.Equal("Alice", edited.From)
	req.Equal("Bob", edited.To)
	req.Equal("edited", edited.Text)
	req.Equal(domain.KindDirect, edited.Kind)
	req.Equal(message.CreatedAt, edited.CreatedAt)
	req.NotEqual(message.Time, edited.Time)

	// Editors must be active participants, and the id must exist.
	err = f.svc.Edit(message.ID, "Carol", domain.Broadcast, "x", "broadcast")
	req.ErrorIs(err, apperr.ErrUnknownParticipant)
	err = f.svc.Edit(uuid.New(), "Alice", domain.Broadcast, "x", "broadcast")
	req.ErrorIs(err, apperr.ErrMessageNotFound)
}

func TestChatService_DeleteOwnership(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	req.NoError(f.svc.Join("Alice"))
	message, err := f.svc.Send("Alice", domain.Broadcast, "bye", "broadcast")
	req.NoError(err)

	req.ErrorIs(f.svc.Delete(message.ID, "Bob"), apperr.ErrNotMessageOwner)
	req.NoError(f.svc.Delete(message.ID, "Alice"))
	req.ErrorIs(f.svc.Delete(message.ID, "Alice"), apperr.ErrMessageNotFound)
}

func TestChatService_SanitizationAndModeration(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "feio")

	req.NoError(f.svc.Join("Alice"))
	message, err := f.svc.Send("Alice", domain.Broadcast, " <i>que feio</i> ", "<b>broadcast</b>")
	req.NoError(err)
	req.Equal("que ****", message.Text)
	req.Equal(domain.KindBroadcast, message.Kind)
}
