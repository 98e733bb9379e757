package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"influencer-hub-backend/internal/metrics"
	"influencer-hub-backend/internal/models"
)

const (
	subscriberBuffer = 16
	sinkTimeout      = 5 * time.Second
)

// EventSink receives a copy of every published event, keyed by channel.
type EventSink interface {
	SendMessage(ctx context.Context, topic string, key []byte, value []byte) error
}

// RealtimeClient fans events out to live subscribers of a channel. Delivery
// is best effort: a subscriber whose buffer is full misses the event.
type RealtimeClient struct {
	mu       sync.Mutex
	channels map[string]map[chan models.Event]struct{}

	sink   EventSink
	topic  string
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewRealtimeClient(sink EventSink, topic string, logger *zap.Logger) *RealtimeClient {
	return &RealtimeClient{
		channels: make(map[string]map[chan models.Event]struct{}),
		sink:     sink,
		topic:    topic,
		logger:   logger,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	ev := models.Event{Channel: channel, Name: event, Payload: payload, At: time.Now().UTC()}

	r.mu.Lock()
	for ch := range r.channels[channel] {
		select {
		case ch <- ev:
		default:
			r.logger.Debug("dropping realtime event for slow subscriber",
				zap.String("channel", channel), zap.String("event", event))
		}
	}
	r.mu.Unlock()

	if r.sink == nil {
		return nil
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()
		if err := r.sink.SendMessage(ctx, r.topic, []byte(channel), value); err != nil {
			metrics.OperationErrorsTotal.WithLabelValues("event_sink").Inc()
			r.logger.Error("failed to forward event", zap.String("channel", channel), zap.Error(err))
		}
	}()
	return nil
}

// Subscribe registers a listener on channel. The returned func unsubscribes
// and closes the event channel; it is safe to call more than once.
func (r *RealtimeClient) Subscribe(channel string) (<-chan models.Event, func()) {
	ch := make(chan models.Event, subscriberBuffer)

	r.mu.Lock()
	subs, ok := r.channels[channel]
	if !ok {
		subs = make(map[chan models.Event]struct{})
		r.channels[channel] = subs
	}
	subs[ch] = struct{}{}
	r.mu.Unlock()
	metrics.ActiveSubscriptions.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.channels[channel], ch)
			if len(r.channels[channel]) == 0 {
				delete(r.channels, channel)
			}
			close(ch)
			r.mu.Unlock()
			metrics.ActiveSubscriptions.Dec()
		})
	}
}

// Subscribers reports how many listeners a channel has.
func (r *RealtimeClient) Subscribers(channel string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels[channel])
}

// Close waits for in-flight sink deliveries.
func (r *RealtimeClient) Close() {
	r.wg.Wait()
}

func ConversationChannel(conversationID string) string {
	return fmt.Sprintf("conversation:%s", conversationID)
}

func UserChannel(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func (r *RealtimeClient) PublishConversationEvent(conversationID string, event string, payload map[string]interface{}) error {
	return r.PublishEvent(ConversationChannel(conversationID), event, payload)
}

func (r *RealtimeClient) PublishUserEvent(userID string, event string, payload map[string]interface{}) error {
	return r.PublishEvent(UserChannel(userID), event, payload)
}

func (r *RealtimeClient) SubscribeConversation(conversationID string) (<-chan models.Event, func()) {
	return r.Subscribe(ConversationChannel(conversationID))
}

func (r *RealtimeClient) SubscribeUser(userID string) (<-chan models.Event, func()) {
	return r.Subscribe(UserChannel(userID))
}
