package models

// CreateOrderRequest is bound from either multipart form fields or JSON.
// The optional reference image travels as the multipart file field "image".
type CreateOrderRequest struct {
	InfluencerID string  `form:"influencer_id" json:"influencer_id" binding:"required"`
	Details      string  `form:"details" json:"details"`
	Cost         float64 `form:"cost" json:"cost" binding:"gte=0"`
	DeadlineDays int     `form:"deadline_days" json:"deadline_days" binding:"required,gt=0"`
}

type RevisionRequest struct {
	Text string `json:"text" binding:"required"`
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// SaveProfileRequest is the validation boundary for profile documents.
type SaveProfileRequest struct {
	Username  string                   `json:"username" binding:"required"`
	Role      Role                     `json:"role" binding:"required"`
	Name      string                   `json:"name,omitempty"`
	Category  string                   `json:"category,omitempty"`
	Bio       string                   `json:"bio,omitempty"`
	Location  string                   `json:"location,omitempty"`
	Platforms map[string]PlatformStats `json:"platforms,omitempty"`
}

type InfluencerSearchRequest struct {
	Search       string `form:"search"`
	Platform     string `form:"platform"`
	Niche        string `form:"niche"`
	MinFollowers int64  `form:"min_followers"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// FileUpload is a file received from a client, already read into memory.
type FileUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}
