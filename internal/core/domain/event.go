package domain

import "time"

// SpotEventType names what happened to a spot.
type SpotEventType string

const (
	EventCheckIn  SpotEventType = "check_in"
	EventCheckOut SpotEventType = "check_out"
)

// SpotEvent is published after a committed check-in or check-out and fanned
// out to live subscribers.
type SpotEvent struct {
	Type      SpotEventType `json:"type"`
	SpotCode  string        `json:"spot_code"`
	Status    SpotStatus    `json:"status"`
	Receipt   string        `json:"receipt"`
	Plate     string        `json:"plate"`
	Timestamp time.Time     `json:"timestamp"`
}
