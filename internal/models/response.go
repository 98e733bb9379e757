package models

import "time"

type CountdownResponse struct {
	Days    int    `json:"days"`
	Hours   int    `json:"hours"`
	Minutes int    `json:"minutes"`
	Seconds int    `json:"seconds"`
	Expired bool   `json:"expired"`
	Display string `json:"display"`
}

type OrderResponse struct {
	Order
	Countdown         *CountdownResponse `json:"countdown,omitempty"`
	UnseenSubmissions int                `json:"unseen_submissions"`
	UnseenRevisions   int                `json:"unseen_revisions"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Counts map[string]int  `json:"counts"`
}

type UnseenResponse struct {
	Unseen map[string]int `json:"unseen"`
}

type SubmissionsResponse struct {
	Files []SubmissionFile `json:"files"`
}

type SeenResponse struct {
	OrderID string `json:"order_id"`
	Marked  int    `json:"marked"`
}

type ConversationResponse struct {
	ConversationID string    `json:"conversation_id"`
	Blocked        bool      `json:"blocked"`
	BlockerID      string    `json:"blocker_id,omitempty"`
	Messages       []Message `json:"messages"`
}

type InboxEntry struct {
	ConversationID string    `json:"conversation_id"`
	PeerID         string    `json:"peer_id"`
	Unread         int       `json:"unread"`
	LastMessageAt  time.Time `json:"last_message_at"`
}

type InboxResponse struct {
	Conversations []InboxEntry `json:"conversations"`
}

type ReadResponse struct {
	ConversationID string `json:"conversation_id"`
	Marked         int    `json:"marked"`
}

type DeleteConversationResponse struct {
	ConversationID string `json:"conversation_id"`
	Deleted        int    `json:"deleted"`
}

type BlockResponse struct {
	ConversationID string `json:"conversation_id"`
	Blocked        bool   `json:"blocked"`
	BlockerID      string `json:"blocker_id,omitempty"`
	Changed        bool   `json:"changed"`
}

type InfluencerResult struct {
	Profile
	TopPlatform        string `json:"top_platform"`
	Followers          int64  `json:"followers"`
	FollowersFormatted string `json:"followers_formatted"`
}

type InfluencerSearchResponse struct {
	Influencers []InfluencerResult `json:"influencers"`
}

type LikesResponse struct {
	Profiles []Profile `json:"profiles"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
