package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"SchedChat/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadSession(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	sess := session.New("http://localhost:5000")
	require.NoError(t, s.SaveSession(ctx, sess))

	user := sess.Append(session.RoleUser, "meeting with Jane tomorrow")
	bot := sess.Append(session.RoleBot, "Multiple contacts found for 'Jane'. Please select one or more by number:\n1. Jane Doe (jane@x.com)")
	require.NoError(t, s.AppendTurns(ctx, sess.ID, user, bot))
	require.NoError(t, s.AppendTurns(ctx, sess.ID, sess.Append(session.RoleUser, "1")))

	got, err := s.LoadSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "http://localhost:5000", got.BaseURL)
	assert.WithinDuration(t, sess.StartTime, got.StartTime, time.Second)

	require.Len(t, got.Turns, 3)
	for i, turn := range got.Turns {
		assert.Equal(t, sess.Turns[i].Role, turn.Role)
		assert.Equal(t, sess.Turns[i].Content, turn.Content)
	}
}

func TestLoadMissingSession(t *testing.T) {
	s := openStore(t)
	_, err := s.LoadSession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSaveSessionIsIdempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	sess := session.New("http://localhost:5000")
	require.NoError(t, s.SaveSession(ctx, sess))
	require.NoError(t, s.SaveSession(ctx, sess))

	sums, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, 0, sums[0].TurnCount)
}

func TestListSessions(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	older := session.New("http://a")
	older.StartTime = time.Now().Add(-time.Hour)
	newer := session.New("http://b")

	require.NoError(t, s.SaveSession(ctx, older))
	require.NoError(t, s.SaveSession(ctx, newer))
	require.NoError(t, s.AppendTurns(ctx, older.ID,
		older.Append(session.RoleUser, "hi"),
		older.Append(session.RoleBot, "Hello!"),
	))

	sums, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, newer.ID, sums[0].ID)
	assert.Equal(t, older.ID, sums[1].ID)
	assert.Equal(t, 2, sums[1].TurnCount)
}
