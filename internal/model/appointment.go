package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Appointment is a booking record. StartAt carries both the calendar date and
// the time of day; hour and weekday are always derived from it so the stored
// record cannot drift from its own schedule fields. Records are never
// deleted; the only mutation after booking is the status flip to completed
// once StartAt passes the simulated clock.
type Appointment struct {
	Base
	PatientID              uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID               uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	StartAt                time.Time         `db:"start_at" json:"start_at"`
	ScheduledPatientsCount int               `db:"scheduled_patients_count" json:"scheduled_patients_count"`
	ArrivedEarly           bool              `db:"arrived_early" json:"arrived_early"`
	WaitTimeMinutes        int               `db:"wait_time_minutes" json:"wait_time_minutes"`
	Status                 AppointmentStatus `db:"status" json:"status"`
}

// HourOfDay returns the 0-23 hour the appointment starts in.
func (a *Appointment) HourOfDay() int {
	return a.StartAt.Hour()
}

// DayOfWeek returns the Monday=0..Sunday=6 weekday of the appointment.
func (a *Appointment) DayOfWeek() int {
	return WeekdayIndex(a.StartAt)
}

// Date returns the appointment's calendar date at midnight.
func (a *Appointment) Date() time.Time {
	return DateOf(a.StartAt)
}

// OnDate reports whether the appointment falls on the given timestamp's date.
func (a *Appointment) OnDate(t time.Time) bool {
	return SameDay(a.StartAt, t)
}

// UpcomingAt reports whether the appointment is on asOf's date with a start
// time at or after asOf.
func (a *Appointment) UpcomingAt(asOf time.Time) bool {
	return a.OnDate(asOf) && !a.StartAt.Before(asOf)
}

type CreateAppointmentRequest struct {
	PatientID    string    `json:"patient_id" binding:"required,uuid"`
	DoctorID     string    `json:"doctor_id" binding:"required,uuid"`
	StartAt      time.Time `json:"start_at" binding:"required"`
	ArrivedEarly bool      `json:"arrived_early"`
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=scheduled completed"`
}

// AppointmentRange filters the triage list by date proximity.
type AppointmentRange string

const (
	RangeAll    AppointmentRange = "all"
	RangeToday  AppointmentRange = "today"
	RangeWeek   AppointmentRange = "week"
	RangeMonth  AppointmentRange = "month"
	RangePast   AppointmentRange = "past"
	RangeFuture AppointmentRange = "future"
)

type TriageQuery struct {
	Range     AppointmentRange `form:"range"`
	Specialty string           `form:"specialty"`
	Priority  string           `form:"priority"`
}

// PredictedAppointment is an appointment annotated with the model estimate.
type PredictedAppointment struct {
	Appointment
	DoctorName           string  `json:"doctor_name"`
	Specialty            string  `json:"specialty"`
	PredictedWaitMinutes float64 `json:"predicted_wait_time"`
}

// TriagedAppointment is an appointment annotated with its urgency score.
type TriagedAppointment struct {
	Appointment
	DoctorName    string        `json:"doctor_name"`
	Specialty     string        `json:"specialty"`
	DateDiffDays  int           `json:"date_diff_days"`
	PriorityScore int           `json:"priority_score"`
	Priority      PriorityLevel `json:"priority"`
}

// PriorityLevel is the 3-tier urgency category.
type PriorityLevel string

const (
	PriorityHigh   PriorityLevel = "High"
	PriorityMedium PriorityLevel = "Medium"
	PriorityLow    PriorityLevel = "Low"
)

// TriageMetrics summarizes a triaged appointment list.
type TriageMetrics struct {
	Total        int     `json:"total"`
	HighCount    int     `json:"high_count"`
	HighPercent  float64 `json:"high_percent"`
	TodayCount   int     `json:"today_count"`
	FutureCount  int     `json:"future_count"`
}

// AvailabilitySlot is one bookable opening in the booking grid.
type AvailabilitySlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}
