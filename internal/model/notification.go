package model

import (
	"time"

	"github.com/google/uuid"
)

// NoticeLevel classifies how urgent a wait notice is.
type NoticeLevel string

const (
	NoticeDelayed    NoticeLevel = "delayed"
	NoticeExpectWait NoticeLevel = "notice"
	NoticeOnSchedule NoticeLevel = "on_schedule"
)

// WaitNotice is the decision that a patient should be told about their
// expected wait. Delivery is handled downstream of the outbox; this record
// only captures when and why the trigger fired.
type WaitNotice struct {
	AppointmentID        uuid.UUID   `json:"appointment_id"`
	PatientID            uuid.UUID   `json:"patient_id"`
	DoctorName           string      `json:"doctor_name"`
	Specialty            Specialty   `json:"specialty"`
	StartAt              time.Time   `json:"start_at"`
	EstimatedWaitMinutes int         `json:"estimated_wait_minutes"`
	Level                NoticeLevel `json:"level"`
}
