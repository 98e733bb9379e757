package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"influencer-hub-backend/internal/models"
)

const heartbeatInterval = 25 * time.Second

// UserEvents is the per-user realtime feed.
type UserEvents interface {
	SubscribeUser(userID string) (<-chan models.Event, func())
}

type EventsHandler struct {
	realtime UserEvents
}

func NewEventsHandler(realtime UserEvents) *EventsHandler {
	return &EventsHandler{realtime: realtime}
}

// Stream godoc
// @Summary     Stream the caller's notifications
// @Description Server-Sent Events for order and chat activity addressed to the caller (order_created, order_started, submission_added, revision_added, order_completed, message_sent, ...).
// @Tags        events
// @Produce     text/event-stream
// @Security    Bearer
// @Success     200 {object} models.Event
// @Router      /events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	events, unsubscribe := h.realtime.SubscribeUser(sess.UserID)
	defer unsubscribe()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	startStream(c)
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if err := sendEvent(c, "ping", gin.H{"at": time.Now().UTC()}); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := sendEvent(c, ev.Name, ev); err != nil {
				return
			}
		}
	}
}
