package model

import "time"

// ClockState reports the simulated clinic time.
type ClockState struct {
	Now    time.Time `json:"now"`
	Frozen bool      `json:"frozen"`
}

// UpdateClockRequest either pins the clinic clock to an exact instant or
// moves it forward. Exactly one of the two fields must be set.
type UpdateClockRequest struct {
	Time           *time.Time `json:"time"`
	AdvanceMinutes int        `json:"advance_minutes" binding:"omitempty,gt=0"`
}
