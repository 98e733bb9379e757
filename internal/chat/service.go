package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"influencer-hub-backend/internal/metrics"
	"influencer-hub-backend/internal/models"
	"influencer-hub-backend/internal/session"
)

// Store persists conversations and block relations.
//
// PutBlock writes the relation under both directed keys and DeleteBlock
// removes both. GetBlock returns models.ErrNotFound when no record exists.
type Store interface {
	AppendMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID string) (int, error)
	DeleteMessages(ctx context.Context, conversationID string) (int, error)
	GetBlock(ctx context.Context, key string) (*models.Block, error)
	PutBlock(ctx context.Context, block models.Block) error
	DeleteBlock(ctx context.Context, a, b string) error
	Inbox(ctx context.Context, userID string) ([]models.InboxEntry, error)
}

type Realtime interface {
	PublishConversationEvent(conversationID string, event string, payload map[string]interface{}) error
	PublishUserEvent(userID string, event string, payload map[string]interface{}) error
	SubscribeConversation(conversationID string) (<-chan models.Event, func())
}

type Service struct {
	store    Store
	realtime Realtime
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store Store, realtime Realtime, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		realtime: realtime,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Send appends an unread message from the caller to peerID.
func (s *Service) Send(ctx context.Context, sess *session.Session, peerID, text string) (*models.Message, error) {
	userID, peerID, err := s.pair(sess, peerID, "send message")
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message is empty", models.ErrInvalidInput)
	}

	block, err := s.block(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}
	if block != nil {
		return nil, models.ErrBlocked
	}

	msg := &models.Message{
		ID:             uuid.New(),
		ConversationID: ConversationID(userID, peerID),
		SenderID:       userID,
		ReceiverID:     peerID,
		Body:           text,
		SentAt:         s.now().UTC(),
		Read:           false,
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("send_message").Inc()
		s.logger.Error("failed to append message",
			zap.String("conversation_id", msg.ConversationID), zap.Error(err))
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	metrics.MessagesSentTotal.Inc()
	s.publish(msg.ConversationID, "message_sent", MessagePayload(msg), peerID)
	return msg, nil
}

// History returns the conversation with peerID without changing it. A blocked
// conversation carries no messages.
func (s *Service) History(ctx context.Context, sess *session.Session, peerID string) (*models.ConversationResponse, error) {
	userID, peerID, err := s.pair(sess, peerID, "read history")
	if err != nil {
		return nil, err
	}
	return s.view(ctx, userID, peerID)
}

// Watch delivers the conversation to onUpdate once immediately and again after
// every change, until ctx is done or onUpdate fails. It never marks messages
// read; callers do that explicitly through MarkRead.
func (s *Service) Watch(ctx context.Context, sess *session.Session, peerID string, onUpdate func(*models.ConversationResponse) error) error {
	userID, peerID, err := s.pair(sess, peerID, "watch conversation")
	if err != nil {
		return err
	}

	events, unsubscribe := s.realtime.SubscribeConversation(ConversationID(userID, peerID))
	defer unsubscribe()

	for {
		view, err := s.view(ctx, userID, peerID)
		if err != nil {
			return err
		}
		if err := onUpdate(view); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
		}
	}
}

// MarkRead flips read on every message in the conversation addressed to the
// caller. Messages the caller sent are never touched.
func (s *Service) MarkRead(ctx context.Context, sess *session.Session, peerID string) (int, error) {
	userID, peerID, err := s.pair(sess, peerID, "mark read")
	if err != nil {
		return 0, err
	}
	conversationID := ConversationID(userID, peerID)

	n, err := s.store.MarkRead(ctx, conversationID, userID)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("mark_read").Inc()
		s.logger.Error("failed to mark messages read",
			zap.String("conversation_id", conversationID), zap.Error(err))
		return 0, err
	}
	if n > 0 {
		s.publish(conversationID, "messages_read", map[string]interface{}{
			"conversation_id": conversationID,
			"reader_id":       userID,
			"count":           n,
		}, peerID)
	}
	return n, nil
}

// Delete removes every message between the caller and peerID. An empty
// conversation is a logged no-op.
func (s *Service) Delete(ctx context.Context, sess *session.Session, peerID string) (int, error) {
	userID, peerID, err := s.pair(sess, peerID, "delete conversation")
	if err != nil {
		return 0, err
	}
	conversationID := ConversationID(userID, peerID)

	n, err := s.store.DeleteMessages(ctx, conversationID)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("delete_conversation").Inc()
		s.logger.Error("failed to delete conversation",
			zap.String("conversation_id", conversationID), zap.Error(err))
		return 0, err
	}
	if n == 0 {
		s.logger.Warn("no messages found for conversation", zap.String("conversation_id", conversationID))
		return 0, nil
	}

	s.publish(conversationID, "conversation_deleted", map[string]interface{}{
		"conversation_id": conversationID,
	}, peerID)
	return n, nil
}

// ToggleBlock blocks peerID, or lifts an existing block. Only the user who
// created a block can lift it; anyone else gets the unchanged state back.
func (s *Service) ToggleBlock(ctx context.Context, sess *session.Session, peerID string) (*models.BlockResponse, error) {
	userID, peerID, err := s.pair(sess, peerID, "toggle block")
	if err != nil {
		return nil, err
	}
	conversationID := ConversationID(userID, peerID)

	existing, err := s.block(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.BlockerID != userID {
			s.logger.Info("unblock refused, caller is not the blocker",
				zap.String("conversation_id", conversationID), zap.String("user_id", userID))
			return &models.BlockResponse{
				ConversationID: conversationID,
				Blocked:        true,
				BlockerID:      existing.BlockerID,
				Changed:        false,
			}, nil
		}
		if err := s.store.DeleteBlock(ctx, userID, peerID); err != nil {
			metrics.OperationErrorsTotal.WithLabelValues("unblock").Inc()
			s.logger.Error("failed to remove block", zap.String("conversation_id", conversationID), zap.Error(err))
			return nil, err
		}
		metrics.BlockTogglesTotal.WithLabelValues("unblock").Inc()
		s.publish(conversationID, "unblocked", map[string]interface{}{
			"conversation_id": conversationID,
			"blocker_id":      userID,
		}, peerID)
		return &models.BlockResponse{ConversationID: conversationID, Blocked: false, Changed: true}, nil
	}

	block := models.Block{BlockerID: userID, BlockedID: peerID, CreatedAt: s.now().UTC()}
	if err := s.store.PutBlock(ctx, block); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("block").Inc()
		s.logger.Error("failed to store block", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, err
	}
	metrics.BlockTogglesTotal.WithLabelValues("block").Inc()
	s.publish(conversationID, "blocked", map[string]interface{}{
		"conversation_id": conversationID,
		"blocker_id":      userID,
	}, peerID)
	return &models.BlockResponse{
		ConversationID: conversationID,
		Blocked:        true,
		BlockerID:      userID,
		Changed:        true,
	}, nil
}

func (s *Service) BlockStatus(ctx context.Context, sess *session.Session, peerID string) (*models.BlockResponse, error) {
	userID, peerID, err := s.pair(sess, peerID, "block status")
	if err != nil {
		return nil, err
	}
	block, err := s.block(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}
	resp := &models.BlockResponse{ConversationID: ConversationID(userID, peerID)}
	if block != nil {
		resp.Blocked = true
		resp.BlockerID = block.BlockerID
	}
	return resp, nil
}

// Inbox lists the caller's conversations, most recent first, with unread counts.
func (s *Service) Inbox(ctx context.Context, sess *session.Session) ([]models.InboxEntry, error) {
	userID, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Inbox(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inbox: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].LastMessageAt.After(entries[j].LastMessageAt) })
	return entries, nil
}

func (s *Service) view(ctx context.Context, userID, peerID string) (*models.ConversationResponse, error) {
	conversationID := ConversationID(userID, peerID)
	resp := &models.ConversationResponse{ConversationID: conversationID, Messages: []models.Message{}}

	block, err := s.block(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}
	if block != nil {
		resp.Blocked = true
		resp.BlockerID = block.BlockerID
		return resp, nil
	}

	messages, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	sort.SliceStable(messages, func(i, j int) bool { return messages[i].SentAt.Before(messages[j].SentAt) })
	resp.Messages = messages
	return resp, nil
}

// block returns the block between the pair, or nil when there is none.
func (s *Service) block(ctx context.Context, userID, peerID string) (*models.Block, error) {
	block, err := s.store.GetBlock(ctx, BlockKey(userID, peerID))
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to fetch block status", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch block status: %w", err)
	}
	return block, nil
}

func (s *Service) pair(sess *session.Session, peerID, op string) (string, string, error) {
	userID, err := session.Require(sess)
	if err != nil {
		s.logger.Warn(op + " without session")
		return "", "", err
	}
	peerID = strings.TrimSpace(peerID)
	if peerID == "" {
		s.logger.Warn("receiver is undefined, cannot "+op, zap.String("user_id", userID))
		return "", "", models.ErrReceiverUnresolved
	}
	if peerID == userID {
		return "", "", fmt.Errorf("%w: cannot converse with yourself", models.ErrInvalidInput)
	}
	return userID, peerID, nil
}

func (s *Service) publish(conversationID, event string, payload map[string]interface{}, peerID string) {
	if s.realtime == nil {
		return
	}
	if err := s.realtime.PublishConversationEvent(conversationID, event, payload); err != nil {
		s.logger.Warn("failed to publish conversation event", zap.String("event", event), zap.Error(err))
	}
	if err := s.realtime.PublishUserEvent(peerID, event, payload); err != nil {
		s.logger.Warn("failed to publish user event", zap.String("event", event), zap.Error(err))
	}
}

func MessagePayload(msg *models.Message) map[string]interface{} {
	return map[string]interface{}{
		"conversation_id": msg.ConversationID,
		"message_id":      msg.ID.String(),
		"sender_id":       msg.SenderID,
		"receiver_id":     msg.ReceiverID,
		"timestamp":       msg.SentAt,
	}
}
