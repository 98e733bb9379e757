package handlers

import "github.com/gin-gonic/gin"

// Handlers groups the API handlers mounted under /api/v1.
type Handlers struct {
	Orders    *OrdersHandler
	Chat      *ChatHandler
	Profiles  *ProfilesHandler
	Events    *EventsHandler
	Assistant *AssistantHandler
}

// Register mounts every authenticated route on api.
func (h *Handlers) Register(api *gin.RouterGroup) {
	// Orders
	api.POST("/orders", h.Orders.CreateOrder)
	api.GET("/orders", h.Orders.ListOrders)
	api.GET("/orders/unseen", h.Orders.Unseen)
	api.GET("/orders/:order_id", h.Orders.GetOrder)
	api.POST("/orders/:order_id/start", h.Orders.StartOrder)
	api.POST("/orders/:order_id/complete", h.Orders.CompleteOrder)
	api.POST("/orders/:order_id/submissions", h.Orders.SubmitFile)
	api.POST("/orders/:order_id/submissions/seen", h.Orders.MarkSubmissionsSeen)
	api.POST("/orders/:order_id/revisions", h.Orders.ReviseOrder)
	api.POST("/orders/:order_id/revisions/seen", h.Orders.MarkRevisionsSeen)
	api.GET("/orders/:order_id/countdown", h.Orders.Countdown)

	// Conversations
	api.GET("/conversations", h.Chat.Inbox)
	api.GET("/conversations/:peer_id", h.Chat.History)
	api.DELETE("/conversations/:peer_id", h.Chat.DeleteConversation)
	api.POST("/conversations/:peer_id/messages", h.Chat.SendMessage)
	api.POST("/conversations/:peer_id/read", h.Chat.MarkRead)
	api.GET("/conversations/:peer_id/block", h.Chat.BlockStatus)
	api.POST("/conversations/:peer_id/block", h.Chat.ToggleBlock)
	api.GET("/conversations/:peer_id/stream", h.Chat.Stream)

	// Profiles
	api.GET("/profiles/me", h.Profiles.GetMe)
	api.PUT("/profiles/me", h.Profiles.SaveProfile)
	api.POST("/profiles/me/image", h.Profiles.UploadImage)
	api.GET("/profiles/:user_id", h.Profiles.GetProfile)
	api.GET("/likes", h.Profiles.Likes)
	api.GET("/influencers", h.Profiles.SearchInfluencers)
	api.POST("/influencers/classify", h.Assistant.Classify)
	api.GET("/influencers/:user_id/like", h.Profiles.LikeStatus)
	api.POST("/influencers/:user_id/like", h.Profiles.Like)
	api.DELETE("/influencers/:user_id/like", h.Profiles.Unlike)
	api.GET("/influencers/:user_id/portfolio", h.Orders.Portfolio)

	// Assistant
	api.POST("/assistant/chat", h.Assistant.Chat)

	// Realtime
	api.GET("/events", h.Events.Stream)
}
