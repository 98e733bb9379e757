package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"influencer-hub-backend/internal/chat"
	"influencer-hub-backend/internal/models"
)

type ChatHandler struct {
	service *chat.Service
	logger  *zap.Logger
}

func NewChatHandler(service *chat.Service, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{service: service, logger: logger}
}

// Inbox godoc
// @Summary     List conversations
// @Description The caller's conversations, most recent first, with unread counts.
// @Tags        chat
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.InboxResponse
// @Router      /conversations [get]
func (h *ChatHandler) Inbox(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	entries, err := h.service.Inbox(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.InboxResponse{Conversations: entries})
}

// History godoc
// @Summary     Conversation history
// @Description Messages between the caller and a peer in send order. Reading does not mark anything read.
// @Tags        chat
// @Produce     json
// @Security    Bearer
// @Param       peer_id path string true "Peer user id"
// @Success     200 {object} models.ConversationResponse
// @Router      /conversations/{peer_id} [get]
func (h *ChatHandler) History(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	resp, err := h.service.History(c.Request.Context(), sess, c.Param("peer_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SendMessage godoc
// @Summary     Send a message
// @Tags        chat
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       peer_id path string                    true "Receiver user id"
// @Param       request body models.SendMessageRequest true "Message"
// @Success     201 {object} models.Message
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /conversations/{peer_id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	msg, err := h.service.Send(c.Request.Context(), sess, c.Param("peer_id"), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// MarkRead godoc
// @Summary     Mark messages read
// @Description Marks every message the peer sent to the caller as read.
// @Tags        chat
// @Produce     json
// @Security    Bearer
// @Param       peer_id path string true "Peer user id"
// @Success     200 {object} models.ReadResponse
// @Router      /conversations/{peer_id}/read [post]
func (h *ChatHandler) MarkRead(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	peerID := strings.TrimSpace(c.Param("peer_id"))
	n, err := h.service.MarkRead(c.Request.Context(), sess, peerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ReadResponse{
		ConversationID: chat.ConversationID(sess.UserID, peerID),
		Marked:         n,
	})
}

// DeleteConversation godoc
// @Summary     Delete a conversation
// @Tags        chat
// @Produce     json
// @Security    Bearer
// @Param       peer_id path string true "Peer user id"
// @Success     200 {object} models.DeleteConversationResponse
// @Router      /conversations/{peer_id} [delete]
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	peerID := strings.TrimSpace(c.Param("peer_id"))
	n, err := h.service.Delete(c.Request.Context(), sess, peerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DeleteConversationResponse{
		ConversationID: chat.ConversationID(sess.UserID, peerID),
		Deleted:        n,
	})
}

// ToggleBlock godoc
// @Summary     Block or unblock a peer
// @Description Creates a block, or lifts one the caller created. A block created by the peer is left unchanged (changed=false).
// @Tags        chat
// @Produce     json
// @Security    Bearer
// @Param       peer_id path string true "Peer user id"
// @Success     200 {object} models.BlockResponse
// @Router      /conversations/{peer_id}/block [post]
func (h *ChatHandler) ToggleBlock(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	resp, err := h.service.ToggleBlock(c.Request.Context(), sess, c.Param("peer_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BlockStatus godoc
// @Summary     Block status
// @Tags        chat
// @Produce     json
// @Security    Bearer
// @Param       peer_id path string true "Peer user id"
// @Success     200 {object} models.BlockResponse
// @Router      /conversations/{peer_id}/block [get]
func (h *ChatHandler) BlockStatus(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	resp, err := h.service.BlockStatus(c.Request.Context(), sess, c.Param("peer_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stream godoc
// @Summary     Watch a conversation
// @Description Server-Sent Events. Sends a "conversation" event with the full message list on connect and after every change.
// @Tags        chat
// @Produce     text/event-stream
// @Security    Bearer
// @Param       peer_id path string true "Peer user id"
// @Success     200 {object} models.ConversationResponse
// @Router      /conversations/{peer_id}/stream [get]
func (h *ChatHandler) Stream(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	started := false
	err := h.service.Watch(c.Request.Context(), sess, c.Param("peer_id"), func(view *models.ConversationResponse) error {
		if !started {
			startStream(c)
			started = true
		}
		return sendEvent(c, "conversation", view)
	})
	if err == nil {
		return
	}
	if !started {
		respondError(c, err)
		return
	}
	if c.Request.Context().Err() == nil {
		h.logger.Warn("conversation stream ended", zap.String("user_id", sess.UserID), zap.Error(err))
	}
}
