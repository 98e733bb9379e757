package models

type AssistantChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// AssistantReply is the answer to a help-chat message. Source is "faq" when
// the message matched a canned question and "assistant" otherwise.
type AssistantReply struct {
	Reply  string `json:"reply"`
	Source string `json:"source"`
}

// Classification is the product category predicted for an image. Category
// is one of the influencer niche values accepted by the search filter.
type Classification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}
