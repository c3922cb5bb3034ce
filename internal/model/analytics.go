package model

import (
	"time"

	"github.com/google/uuid"
)

// SummaryMetrics is the front-desk snapshot for one day.
type SummaryMetrics struct {
	TotalToday     int     `json:"total_today"`
	CompletedToday int     `json:"completed_today"`
	QueueSize      int     `json:"queue_size"`
	QueueDelta     int     `json:"queue_delta"`
	AvgWaitMinutes float64 `json:"avg_wait_minutes"`
	WaitDelta      float64 `json:"wait_delta"`
}

// FlowPoint is one hour of appointment volume.
type FlowPoint struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// HourlyForecast is the expected wait for one upcoming hour.
type HourlyForecast struct {
	Hour                int     `json:"hour"`
	ExpectedWaitMinutes float64 `json:"expected_wait_minutes"`
	Appointments        int     `json:"appointments"`
}

// SpecialtyQueue is the upcoming load for one specialty.
type SpecialtyQueue struct {
	Specialty       Specialty `json:"specialty"`
	PatientsWaiting int       `json:"patients_waiting"`
	AvgWaitMinutes  float64   `json:"avg_wait_minutes"`
}

// DoctorReportRow aggregates one doctor over a report window.
type DoctorReportRow struct {
	DoctorID       uuid.UUID `json:"doctor_id"`
	Name           string    `json:"name"`
	Specialty      Specialty `json:"specialty"`
	Appointments   int       `json:"appointments"`
	AvgWaitMinutes float64   `json:"avg_wait_minutes"`
	EarlyPercent   float64   `json:"early_percent"`
}

// WaitTimeReport aggregates observed waits over a date range.
type WaitTimeReport struct {
	From            time.Time           `json:"from"`
	To              time.Time           `json:"to"`
	Appointments    int                 `json:"appointments"`
	AvgWaitMinutes  float64             `json:"avg_wait_minutes"`
	MaxWaitMinutes  int                 `json:"max_wait_minutes"`
	EarlyPercent    float64             `json:"early_percent"`
	WaitByHour      []FlowStat          `json:"wait_by_hour"`
	WaitByWeekday   []FlowStat          `json:"wait_by_weekday"`
	WaitBySpecialty []SpecialtyWaitStat `json:"wait_by_specialty"`
	PeakAvgWait     float64             `json:"peak_avg_wait"`
	OffPeakAvgWait  float64             `json:"off_peak_avg_wait"`
	Doctors         []DoctorReportRow   `json:"doctors"`
}

// FlowStat is a (bucket, average wait) pair keyed by hour or weekday index.
type FlowStat struct {
	Bucket         int     `json:"bucket"`
	AvgWaitMinutes float64 `json:"avg_wait_minutes"`
	Count          int     `json:"count"`
}

// SpecialtyWaitStat is the average wait for one specialty.
type SpecialtyWaitStat struct {
	Specialty      Specialty `json:"specialty"`
	AvgWaitMinutes float64   `json:"avg_wait_minutes"`
	Count          int       `json:"count"`
}

// StaffPerformance scores one doctor over the trailing week.
type StaffPerformance struct {
	DoctorID       uuid.UUID `json:"doctor_id"`
	Name           string    `json:"name"`
	Specialty      Specialty `json:"specialty"`
	PatientsSeen   int       `json:"patients_seen"`
	AvgWaitMinutes float64   `json:"avg_wait_minutes"`
	OnTimePercent  float64   `json:"on_time_percent"`
	Efficiency     float64   `json:"efficiency"`
	Satisfaction   float64   `json:"satisfaction"`
	EarlyHandled   float64   `json:"early_handled_percent"`
	Achievements   []string  `json:"achievements"`
}
