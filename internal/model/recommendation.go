package model

import (
	"fmt"

	"github.com/google/uuid"
)

// FindingKind is the taxonomy of schedule findings.
type FindingKind string

const (
	FindingInsufficientData   FindingKind = "insufficient_data"
	FindingNoAppointments     FindingKind = "no_appointments"
	FindingOverbookedDoctor   FindingKind = "overbooked_doctor"
	FindingPeakCongestion     FindingKind = "peak_congestion"
	FindingUnderutilized      FindingKind = "underutilized_doctor"
	FindingEarlyArrivalDrift  FindingKind = "early_arrival_drift"
	FindingSpecialtyImbalance FindingKind = "specialty_imbalance"
	FindingBalanced           FindingKind = "balanced"
)

// Finding is one structured recommendation. Only the fields relevant to its
// kind are set; prose rendering is left to the presentation layer.
type Finding struct {
	Kind         FindingKind `json:"kind"`
	DoctorID     uuid.UUID   `json:"doctor_id,omitempty"`
	DoctorName   string      `json:"doctor_name,omitempty"`
	Specialty    Specialty   `json:"specialty,omitempty"`
	Count        int         `json:"count,omitempty"`
	Capacity     float64     `json:"capacity,omitempty"`
	Percent      float64     `json:"percent,omitempty"`
	WindowHours  int         `json:"window_hours,omitempty"`
	MaxCount     int         `json:"max_count,omitempty"`
	MinCount     int         `json:"min_count,omitempty"`
}

// Describe renders the finding as operator-facing prose.
func (f Finding) Describe() string {
	switch f.Kind {
	case FindingInsufficientData:
		return "Insufficient data to generate recommendations."
	case FindingNoAppointments:
		return "No appointments scheduled for today."
	case FindingOverbookedDoctor:
		return fmt.Sprintf("Dr. %s (%s) has %d appointments today, which may lead to delays. Consider redistributing patients to other %s doctors.",
			f.DoctorName, f.Specialty, f.Count, f.Specialty)
	case FindingPeakCongestion:
		return fmt.Sprintf("High congestion detected: %d patients scheduled in the next %d hours. Consider sending SMS notifications about potential delays.",
			f.Count, f.WindowHours)
	case FindingUnderutilized:
		return fmt.Sprintf("Dr. %s (%s) has only %d appointments today. Consider rescheduling patients from busier doctors with the same specialty.",
			f.DoctorName, f.Specialty, f.Count)
	case FindingEarlyArrivalDrift:
		return fmt.Sprintf("%.1f%% of patients today arrived early. Consider adjusting scheduled times by 15 minutes to account for this pattern.",
			f.Percent)
	case FindingSpecialtyImbalance:
		return fmt.Sprintf("Significant load imbalance detected among %s doctors. Consider redistributing patients more evenly.",
			f.Specialty)
	case FindingBalanced:
		return "No optimization recommendations needed at this time. Patient flow appears to be balanced."
	default:
		return string(f.Kind)
	}
}
