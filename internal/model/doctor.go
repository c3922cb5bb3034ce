package model

import (
	"github.com/google/uuid"
)

// Specialty is one of the clinic's fixed practice areas.
type Specialty string

const (
	SpecialtyCardiology       Specialty = "Cardiology"
	SpecialtyDermatology      Specialty = "Dermatology"
	SpecialtyOrthopedics      Specialty = "Orthopedics"
	SpecialtyPediatrics       Specialty = "Pediatrics"
	SpecialtyGynecology       Specialty = "Gynecology"
	SpecialtyInternalMedicine Specialty = "Internal Medicine"
	SpecialtyENT              Specialty = "ENT"
	SpecialtyOphthalmology    Specialty = "Ophthalmology"
	SpecialtyNeurology        Specialty = "Neurology"
	SpecialtyPsychiatry       Specialty = "Psychiatry"
)

// Specialties lists every valid specialty.
func Specialties() []Specialty {
	return []Specialty{
		SpecialtyCardiology,
		SpecialtyDermatology,
		SpecialtyOrthopedics,
		SpecialtyPediatrics,
		SpecialtyGynecology,
		SpecialtyInternalMedicine,
		SpecialtyENT,
		SpecialtyOphthalmology,
		SpecialtyNeurology,
		SpecialtyPsychiatry,
	}
}

// Valid reports whether the specialty is one of the fixed set.
func (s Specialty) Valid() bool {
	for _, known := range Specialties() {
		if s == known {
			return true
		}
	}
	return false
}

// Doctor is a clinician profile. Availability is the only field that changes
// at runtime; everything else is fixed at creation.
type Doctor struct {
	Base
	Name                   string    `db:"name" json:"name"`
	Specialty              Specialty `db:"specialty" json:"specialty"`
	AvgConsultationMinutes int       `db:"avg_consultation_minutes" json:"avg_consultation_minutes"`
	ExperienceYears        int       `db:"experience_years" json:"experience_years"`
	Available              bool      `db:"available" json:"available"`
}

type CreateDoctorRequest struct {
	Name                   string `json:"name" binding:"required"`
	Specialty              string `json:"specialty" binding:"required,specialty"`
	AvgConsultationMinutes int    `json:"avg_consultation_minutes" binding:"required,gt=0"`
	ExperienceYears        int    `json:"experience_years" binding:"gte=0"`
	Available              *bool  `json:"available"`
}

type UpdateDoctorAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// DoctorLoad is the live workload view for one doctor.
type DoctorLoad struct {
	DoctorID       uuid.UUID `json:"doctor_id"`
	Name           string    `json:"name"`
	Specialty      Specialty `json:"specialty"`
	Available      bool      `json:"available"`
	RemainingToday int       `json:"remaining_today"`
	CompletedToday int       `json:"completed_today"`
	AvgWaitMinutes float64   `json:"avg_wait_minutes"`
}

// TransferSuggestion proposes moving patients between two doctors of the
// same specialty to even out their day.
type TransferSuggestion struct {
	Specialty    Specialty `json:"specialty"`
	FromDoctorID uuid.UUID `json:"from_doctor_id"`
	FromDoctor   string    `json:"from_doctor"`
	ToDoctorID   uuid.UUID `json:"to_doctor_id"`
	ToDoctor     string    `json:"to_doctor"`
	Patients     int       `json:"patients"`
	Imbalance    int       `json:"imbalance"`
}
