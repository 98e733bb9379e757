package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"influencer-hub-backend/internal/memstore"
	"influencer-hub-backend/internal/models"
	"influencer-hub-backend/internal/session"
	"influencer-hub-backend/internal/supabase"
)

type fixture struct {
	svc      *Service
	store    *memstore.Store
	realtime *supabase.RealtimeClient
	now      time.Time
	alice    *session.Session
	bob      *session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memstore.New(1000),
		realtime: supabase.NewRealtimeClient(nil, "", zap.NewNop()),
		now:      time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		alice:    session.New("alice", "", models.RoleBrand),
		bob:      session.New("bob", "", models.RoleInfluencer),
	}
	f.svc = NewService(f.store, f.realtime, zap.NewNop()).WithClock(func() time.Time {
		f.now = f.now.Add(time.Second)
		return f.now
	})
	return f
}

func TestSend_RoundTripAndExplicitRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Send(ctx, f.alice, "bob", "  hi there ")
	require.NoError(t, err)
	assert.Equal(t, "alice_bob", msg.ConversationID)
	assert.Equal(t, "hi there", msg.Body)
	assert.False(t, msg.Read)

	// Observing never marks read.
	for i := 0; i < 2; i++ {
		view, err := f.svc.History(ctx, f.bob, "alice")
		require.NoError(t, err)
		require.Len(t, view.Messages, 1)
		assert.False(t, view.Messages[0].Read)
	}

	// The sender cannot mark their own message read.
	n, err := f.svc.MarkRead(ctx, f.alice, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = f.svc.MarkRead(ctx, f.bob, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	view, err := f.svc.History(ctx, f.alice, "bob")
	require.NoError(t, err)
	assert.True(t, view.Messages[0].Read)
}

func TestSend_OrderedBySendTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, f.alice, "bob", "one")
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, f.bob, "alice", "two")
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, f.alice, "bob", "three")
	require.NoError(t, err)

	view, err := f.svc.History(ctx, f.bob, "alice")
	require.NoError(t, err)
	require.Len(t, view.Messages, 3)
	assert.Equal(t, "one", view.Messages[0].Body)
	assert.Equal(t, "two", view.Messages[1].Body)
	assert.Equal(t, "three", view.Messages[2].Body)
}

func TestSend_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, f.alice, "", "hello")
	assert.ErrorIs(t, err, models.ErrReceiverUnresolved)

	_, err = f.svc.Send(ctx, f.alice, "bob", "   ")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.svc.Send(ctx, f.alice, "alice", "me")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.svc.Send(ctx, nil, "bob", "hello")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	messages, err := f.store.ListMessages(ctx, "alice_bob")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestToggleBlock_Symmetric(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.ToggleBlock(ctx, f.alice, "bob")
	require.NoError(t, err)
	assert.True(t, resp.Blocked)
	assert.True(t, resp.Changed)
	assert.Equal(t, "alice", resp.BlockerID)

	for _, key := range []string{"alice_bob", "bob_alice"} {
		b, err := f.store.GetBlock(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "alice", b.BlockerID)
	}

	status, err := f.svc.BlockStatus(ctx, f.bob, "alice")
	require.NoError(t, err)
	assert.True(t, status.Blocked)
	assert.Equal(t, "alice", status.BlockerID)
}

func TestToggleBlock_OnlyBlockerCanUnblock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ToggleBlock(ctx, f.alice, "bob")
	require.NoError(t, err)

	resp, err := f.svc.ToggleBlock(ctx, f.bob, "alice")
	require.NoError(t, err)
	assert.True(t, resp.Blocked)
	assert.False(t, resp.Changed)
	assert.Equal(t, "alice", resp.BlockerID)

	_, err = f.store.GetBlock(ctx, "bob_alice")
	require.NoError(t, err, "block must survive a refused unblock")

	resp, err = f.svc.ToggleBlock(ctx, f.alice, "bob")
	require.NoError(t, err)
	assert.False(t, resp.Blocked)
	assert.True(t, resp.Changed)

	_, err = f.store.GetBlock(ctx, "alice_bob")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.store.GetBlock(ctx, "bob_alice")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBlocked_SuppressesSendAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, f.alice, "bob", "before")
	require.NoError(t, err)
	_, err = f.svc.ToggleBlock(ctx, f.bob, "alice")
	require.NoError(t, err)

	_, err = f.svc.Send(ctx, f.alice, "bob", "after")
	assert.ErrorIs(t, err, models.ErrBlocked)
	_, err = f.svc.Send(ctx, f.bob, "alice", "blocker too")
	assert.ErrorIs(t, err, models.ErrBlocked)

	view, err := f.svc.History(ctx, f.alice, "bob")
	require.NoError(t, err)
	assert.True(t, view.Blocked)
	assert.Equal(t, "bob", view.BlockerID)
	assert.Empty(t, view.Messages)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.svc.Delete(ctx, f.alice, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = f.svc.Send(ctx, f.alice, "bob", "one")
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, f.bob, "alice", "two")
	require.NoError(t, err)

	n, err = f.svc.Delete(ctx, f.bob, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	view, err := f.svc.History(ctx, f.alice, "bob")
	require.NoError(t, err)
	assert.Empty(t, view.Messages)

	_, err = f.svc.Delete(ctx, f.alice, " ")
	assert.ErrorIs(t, err, models.ErrReceiverUnresolved)
}

func TestInbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, f.bob, "alice", "hello")
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, session.New("carol", "", ""), "alice", "hey")
	require.NoError(t, err)

	entries, err := f.svc.Inbox(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "carol", entries[0].PeerID)
	assert.Equal(t, 1, entries[0].Unread)
	assert.Equal(t, "bob", entries[1].PeerID)
}

func TestWatch_DeliversOnChange(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views := make(chan *models.ConversationResponse, 4)
	done := make(chan error, 1)
	go func() {
		done <- f.svc.Watch(ctx, f.bob, "alice", func(v *models.ConversationResponse) error {
			views <- v
			return nil
		})
	}()

	first := <-views
	assert.Equal(t, "alice_bob", first.ConversationID)
	assert.Empty(t, first.Messages)

	_, err := f.svc.Send(context.Background(), f.alice, "bob", "ping")
	require.NoError(t, err)

	select {
	case second := <-views:
		require.Len(t, second.Messages, 1)
		assert.Equal(t, "ping", second.Messages[0].Body)
		assert.False(t, second.Messages[0].Read, "watching does not mark read")
	case <-time.After(2 * time.Second):
		t.Fatal("no update after send")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop on cancel")
	}
	assert.Equal(t, 0, f.realtime.Subscribers(supabase.ConversationChannel("alice_bob")))
}

// feedRealtime is a Realtime backed by a single channel the test controls.
type feedRealtime struct {
	events       chan models.Event
	unsubscribed bool
}

func (r *feedRealtime) PublishConversationEvent(string, string, map[string]interface{}) error {
	return nil
}

func (r *feedRealtime) PublishUserEvent(string, string, map[string]interface{}) error { return nil }

func (r *feedRealtime) SubscribeConversation(string) (<-chan models.Event, func()) {
	return r.events, func() { r.unsubscribed = true }
}

func TestWatch_ClosedFeedEndsWatch(t *testing.T) {
	feed := &feedRealtime{events: make(chan models.Event, 1)}
	svc := NewService(memstore.New(1000), feed, zap.NewNop())

	feed.events <- models.Event{Channel: "conversation:alice_bob", Name: "message_sent"}
	close(feed.events)

	calls := 0
	err := svc.Watch(context.Background(), session.New("bob", "", ""), "alice", func(*models.ConversationResponse) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "initial view plus one per event")
	assert.True(t, feed.unsubscribed)
}
