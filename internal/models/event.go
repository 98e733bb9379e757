package models

import "time"

// Event is a realtime notification delivered on a named channel such as
// user:<id> or conversation:<id>.
type Event struct {
	Channel string                 `json:"channel"`
	Name    string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
	At      time.Time              `json:"at"`
}
