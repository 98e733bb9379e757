package models

import "time"

type Role string

const (
	RoleBrand      Role = "brand"
	RoleInfluencer Role = "influencer"
)

func (r Role) Valid() bool {
	return r == RoleBrand || r == RoleInfluencer
}

// PlatformStats holds the self-reported numbers for one social platform.
type PlatformStats struct {
	Followers int64  `json:"followers"`
	WatchTime string `json:"watch_time,omitempty"`
	Link      string `json:"link,omitempty"`
}

type Profile struct {
	UserID    string                   `json:"user_id"`
	Username  string                   `json:"username"`
	Role      Role                     `json:"role"`
	Name      string                   `json:"name,omitempty"`
	Category  string                   `json:"category,omitempty"`
	Bio       string                   `json:"bio,omitempty"`
	Location  string                   `json:"location,omitempty"`
	ImageURL  string                   `json:"image_url,omitempty"`
	Platforms map[string]PlatformStats `json:"platforms,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

type LikeState string

const (
	Liked   LikeState = "liked"
	Unliked LikeState = "unliked"
)

type Like struct {
	BrandID      string    `json:"brand_id"`
	InfluencerID string    `json:"influencer_id"`
	State        LikeState `json:"liked"`
	UpdatedAt    time.Time `json:"updated_at"`
}
