package model

import (
	"time"

	"github.com/google/uuid"
)

// CandidateSlot is one open (doctor, date, time) opening produced by the
// slot optimizer. Slots are recomputed on every request and never persisted.
type CandidateSlot struct {
	DoctorID                uuid.UUID `json:"doctor_id"`
	DoctorName              string    `json:"doctor_name"`
	Specialty               Specialty `json:"specialty"`
	Date                    time.Time `json:"date"`
	Time                    string    `json:"time"`
	ExpectedDurationMinutes int       `json:"expected_duration"`
	Priority                int       `json:"priority"`
	IsPeakHour              bool      `json:"is_peak_hour"`
}
