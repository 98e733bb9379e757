package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"influencer-hub-backend/internal/models"
)

func TestChat_SendReadAndInbox(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/conversations/inf-1/messages", "brand-1", models.SendMessageRequest{Message: "hi there"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	msg := decode[models.Message](t, w)
	assert.Equal(t, "brand-1", msg.SenderID)
	assert.Equal(t, "inf-1", msg.ReceiverID)
	assert.False(t, msg.Read)

	w = ts.do(t, http.MethodPost, "/conversations/brand-1/messages", "inf-1", models.SendMessageRequest{Message: "hello!"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodGet, "/conversations/brand-1", "inf-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[models.ConversationResponse](t, w)
	require.Len(t, view.Messages, 2)
	assert.Equal(t, "hi there", view.Messages[0].Body)
	assert.False(t, view.Messages[0].Read, "history does not mark read")

	w = ts.do(t, http.MethodGet, "/conversations", "inf-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	inbox := decode[models.InboxResponse](t, w)
	require.Len(t, inbox.Conversations, 1)
	assert.Equal(t, "brand-1", inbox.Conversations[0].PeerID)
	assert.Equal(t, 1, inbox.Conversations[0].Unread)

	w = ts.do(t, http.MethodPost, "/conversations/brand-1/read", "inf-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	read := decode[models.ReadResponse](t, w)
	assert.Equal(t, 1, read.Marked)
	assert.Equal(t, view.ConversationID, read.ConversationID)

	w = ts.do(t, http.MethodDelete, "/conversations/inf-1", "brand-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[models.DeleteConversationResponse](t, w).Deleted)
}

func TestChat_Block(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/conversations/inf-1/block", "brand-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	blocked := decode[models.BlockResponse](t, w)
	assert.True(t, blocked.Blocked)
	assert.True(t, blocked.Changed)
	assert.Equal(t, "brand-1", blocked.BlockerID)

	w = ts.do(t, http.MethodPost, "/conversations/brand-1/messages", "inf-1", models.SendMessageRequest{Message: "wait"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The blocked side cannot lift the block.
	w = ts.do(t, http.MethodPost, "/conversations/brand-1/block", "inf-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.BlockResponse](t, w)
	assert.True(t, resp.Blocked)
	assert.False(t, resp.Changed)

	w = ts.do(t, http.MethodGet, "/conversations/brand-1/block", "inf-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.BlockResponse](t, w).Blocked)

	w = ts.do(t, http.MethodPost, "/conversations/inf-1/block", "brand-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[models.BlockResponse](t, w).Blocked)

	w = ts.do(t, http.MethodPost, "/conversations/brand-1/messages", "inf-1", models.SendMessageRequest{Message: "thanks"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestChat_Validation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/conversations/inf-1/messages", "brand-1", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/conversations/brand-1/messages", "brand-1", models.SendMessageRequest{Message: "me"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/conversations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChat_Stream(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/conversations/inf-1/messages", "brand-1", models.SendMessageRequest{Message: "ping"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.stream(t, "/conversations/brand-1/stream", "inf-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assertEventStream(t, w)
	assert.Contains(t, w.Body.String(), "event:conversation")
	assert.Contains(t, w.Body.String(), `"message":"ping"`)

	w = ts.stream(t, "/conversations/inf-1/stream", "inf-1")
	assert.Equal(t, http.StatusBadRequest, w.Code, "a conversation with yourself fails before streaming")
}

func TestEvents_Stream(t *testing.T) {
	ts := newTestServer(t)
	w := ts.stream(t, "/events", "inf-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assertEventStream(t, w)
}

func TestChat_PaddedPeerID(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/conversations/inf-1/messages", "brand-1", models.SendMessageRequest{Message: "hi"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/conversations/%20brand-1%20/read", "inf-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	read := decode[models.ReadResponse](t, w)
	assert.Equal(t, "brand-1_inf-1", read.ConversationID)
	assert.Equal(t, 1, read.Marked)

	w = ts.do(t, http.MethodDelete, "/conversations/%20inf-1", "brand-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	deleted := decode[models.DeleteConversationResponse](t, w)
	assert.Equal(t, "brand-1_inf-1", deleted.ConversationID)
	assert.Equal(t, 1, deleted.Deleted)
}
