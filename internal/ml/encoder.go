package ml

import (
	"fmt"
	"sort"
)

// Sample carries one appointment+doctor observation in raw feature form.
type Sample struct {
	HourOfDay              int
	DayOfWeek              int
	Specialty              string
	DoctorExperience       int
	AvgConsultationMinutes int
	ScheduledPatientsCount int
	ArrivedEarly           bool
}

// numericNames lists the passthrough features in vector order, after the
// one-hot blocks.
var numericNames = []string{
	"hour_of_day",
	"doctor_experience",
	"avg_consultation_time",
	"scheduled_patients_count",
	"arrived_early",
}

// Encoder one-hot encodes specialty and weekday against a vocabulary learned
// at fit time; numeric features pass through unchanged. A categorical value
// outside the vocabulary encodes to an all-zero block instead of failing, so
// a specialty first seen at inference time degrades gracefully.
type Encoder struct {
	Specialties []string `json:"specialties"`
	Weekdays    []int    `json:"weekdays"`
}

// FitEncoder learns the categorical vocabulary from the training samples.
// Vocabularies are sorted so encoding is deterministic.
func FitEncoder(samples []Sample) Encoder {
	specSet := make(map[string]struct{})
	daySet := make(map[int]struct{})
	for _, s := range samples {
		specSet[s.Specialty] = struct{}{}
		daySet[s.DayOfWeek] = struct{}{}
	}

	enc := Encoder{
		Specialties: make([]string, 0, len(specSet)),
		Weekdays:    make([]int, 0, len(daySet)),
	}
	for v := range specSet {
		enc.Specialties = append(enc.Specialties, v)
	}
	for v := range daySet {
		enc.Weekdays = append(enc.Weekdays, v)
	}
	sort.Strings(enc.Specialties)
	sort.Ints(enc.Weekdays)
	return enc
}

// Width is the encoded vector length.
func (e Encoder) Width() int {
	return len(e.Specialties) + len(e.Weekdays) + len(numericNames)
}

// Encode maps a sample to its fixed-shape vector.
func (e Encoder) Encode(s Sample) []float64 {
	vec := make([]float64, e.Width())
	for i, v := range e.Specialties {
		if s.Specialty == v {
			vec[i] = 1
			break
		}
	}
	off := len(e.Specialties)
	for i, v := range e.Weekdays {
		if s.DayOfWeek == v {
			vec[off+i] = 1
			break
		}
	}
	off += len(e.Weekdays)
	vec[off] = float64(s.HourOfDay)
	vec[off+1] = float64(s.DoctorExperience)
	vec[off+2] = float64(s.AvgConsultationMinutes)
	vec[off+3] = float64(s.ScheduledPatientsCount)
	if s.ArrivedEarly {
		vec[off+4] = 1
	}
	return vec
}

// FeatureNames returns the label for each vector position, used to report
// importances.
func (e Encoder) FeatureNames() []string {
	names := make([]string, 0, e.Width())
	for _, v := range e.Specialties {
		names = append(names, "specialty="+v)
	}
	for _, v := range e.Weekdays {
		names = append(names, fmt.Sprintf("day_of_week=%d", v))
	}
	names = append(names, numericNames...)
	return names
}
