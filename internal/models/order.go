package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusRemaining OrderStatus = "remaining"
	StatusRevise    OrderStatus = "revise"
	StatusCompleted OrderStatus = "completed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusRemaining, StatusRevise, StatusCompleted:
		return true
	}
	return false
}

type Order struct {
	ID           uuid.UUID        `json:"id"`
	OrderNumber  int64            `json:"order_number"`
	BrandID      string           `json:"brand_id"`
	InfluencerID string           `json:"influencer_id"`
	Details      string           `json:"details"`
	Cost         float64          `json:"cost"`
	DeadlineDays int              `json:"deadline_days"`
	Status       OrderStatus      `json:"status"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	ImageURL     string           `json:"image_url,omitempty"`
	Submission   []SubmissionFile `json:"submission"`
	Revisions    []Revision       `json:"revisions"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// SubmissionFile is one deliverable uploaded by the influencer.
type SubmissionFile struct {
	ID           uuid.UUID `json:"id"`
	OrderID      uuid.UUID `json:"order_id"`
	InfluencerID string    `json:"influencer_id"`
	BrandID      string    `json:"brand_id"`
	FileURL      string    `json:"file_url"`
	FileType     string    `json:"file_type"`
	StoragePath  string    `json:"storage_path"`
	SubmittedAt  time.Time `json:"submitted_at"`
	SeenByBrand  bool      `json:"seen_by_brand"`
}

type Revision struct {
	ID               uuid.UUID `json:"id"`
	OrderID          uuid.UUID `json:"order_id"`
	Text             string    `json:"text"`
	RevisedAt        time.Time `json:"revised_at"`
	SeenByInfluencer bool      `json:"seen_by_influencer"`
}

// OrderFilter narrows ListOrders. Exactly one of BrandID or InfluencerID is set.
type OrderFilter struct {
	BrandID      string
	InfluencerID string
	Status       OrderStatus
}

func (o *Order) UnseenSubmissions() int {
	n := 0
	for _, f := range o.Submission {
		if !f.SeenByBrand {
			n++
		}
	}
	return n
}

func (o *Order) UnseenRevisions() int {
	n := 0
	for _, r := range o.Revisions {
		if !r.SeenByInfluencer {
			n++
		}
	}
	return n
}
