package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/flow-api/internal/model"
)

func todayAt(hour, minute int) time.Time {
	return time.Date(2025, 3, 3, hour, minute, 0, 0, time.UTC)
}

func bookingsFor(doctorID uuid.UUID, n int, startHour int) []*model.Appointment {
	appts := make([]*model.Appointment, 0, n)
	for i := 0; i < n; i++ {
		hour := startHour + i/4
		minute := (i % 4) * 15
		appts = append(appts, bookingAt(doctorID, todayAt(hour, minute)))
	}
	return appts
}

func TestRecommendationsInsufficientData(t *testing.T) {
	doc := testDoctor("Sarah Chen", 30)

	findings := Recommendations(nil, []*model.Doctor{doc}, monday)
	require.Len(t, findings, 1)
	assert.Equal(t, model.FindingInsufficientData, findings[0].Kind)
	assert.Equal(t, "Insufficient data to generate recommendations.", findings[0].Describe())

	findings = Recommendations([]*model.Appointment{bookingAt(doc.ID, monday)}, nil, monday)
	require.Len(t, findings, 1)
	assert.Equal(t, model.FindingInsufficientData, findings[0].Kind)
}

func TestRecommendationsNoAppointmentsToday(t *testing.T) {
	doc := testDoctor("Sarah Chen", 30)
	appts := []*model.Appointment{
		bookingAt(doc.ID, monday.AddDate(0, 0, 2)),
		bookingAt(doc.ID, monday.AddDate(0, 0, -1)),
	}

	findings := Recommendations(appts, []*model.Doctor{doc}, monday)
	require.Len(t, findings, 1)
	assert.Equal(t, model.FindingNoAppointments, findings[0].Kind)
	assert.Equal(t, "No appointments scheduled for today.", findings[0].Describe())
}

func TestRecommendationsBalancedDay(t *testing.T) {
	first := testDoctor("Sarah Chen", 30)
	second := testDoctor("James Okafor", 30)

	var appts []*model.Appointment
	appts = append(appts, bookingsFor(first.ID, 6, 9)...)
	appts = append(appts, bookingsFor(second.ID, 5, 11)...)

	findings := Recommendations(appts, []*model.Doctor{first, second}, monday)
	require.Len(t, findings, 1)
	assert.Equal(t, model.FindingBalanced, findings[0].Kind)
	assert.Contains(t, findings[0].Describe(), "balanced")
}

func TestRecommendationsFlagsOverbookedDoctors(t *testing.T) {
	// 30 minute consultations allow 18 visits in a 9 hour day; 16 crosses
	// the 85% line, 10 does not.
	busy := testDoctor("Sarah Chen", 30)
	calm := testDoctor("James Okafor", 30)

	var appts []*model.Appointment
	appts = append(appts, bookingsFor(busy.ID, 16, 9)...)
	appts = append(appts, bookingsFor(calm.ID, 10, 13)...)

	findings := Recommendations(appts, []*model.Doctor{busy, calm}, monday)

	require.NotEmpty(t, findings)
	over := findings[0]
	assert.Equal(t, model.FindingOverbookedDoctor, over.Kind)
	assert.Equal(t, busy.ID, over.DoctorID)
	assert.Equal(t, 16, over.Count)
	assert.InDelta(t, 18.0, over.Capacity, 1e-9)
	assert.Contains(t, over.Describe(), "Dr. Sarah Chen")
	assert.Contains(t, over.Describe(), "16 appointments today")

	for _, f := range findings {
		assert.NotEqual(t, model.FindingBalanced, f.Kind)
	}
}

func TestRecommendationsOverbookedOrderedBusiestFirst(t *testing.T) {
	second := testDoctor("James Okafor", 30)
	first := testDoctor("Sarah Chen", 30)

	var appts []*model.Appointment
	appts = append(appts, bookingsFor(second.ID, 16, 9)...)
	appts = append(appts, bookingsFor(first.ID, 17, 9)...)

	findings := Recommendations(appts, []*model.Doctor{second, first}, monday)

	require.GreaterOrEqual(t, len(findings), 2)
	assert.Equal(t, model.FindingOverbookedDoctor, findings[0].Kind)
	assert.Equal(t, first.ID, findings[0].DoctorID)
	assert.Equal(t, model.FindingOverbookedDoctor, findings[1].Kind)
	assert.Equal(t, second.ID, findings[1].DoctorID)
}

func TestRecommendationsPeakCongestion(t *testing.T) {
	evening := todayAt(17, 30)
	doctors := []*model.Doctor{
		testDoctor("Sarah Chen", 15),
		testDoctor("James Okafor", 15),
		testDoctor("Priya Nair", 15),
	}

	// 31 visits inside the two hour window, spread so nobody is overbooked
	var appts []*model.Appointment
	for i := 0; i < 31; i++ {
		doc := doctors[i%3]
		appts = append(appts, bookingAt(doc.ID, evening.Add(time.Duration(i*3)*time.Minute)))
	}

	findings := Recommendations(appts, doctors, evening)

	require.NotEmpty(t, findings)
	assert.Equal(t, model.FindingPeakCongestion, findings[0].Kind)
	assert.Equal(t, 31, findings[0].Count)
	assert.Equal(t, 2, findings[0].WindowHours)
	assert.Contains(t, findings[0].Describe(), "31 patients scheduled in the next 2 hours")
}

func TestRecommendationsNoCongestionCheckOffPeak(t *testing.T) {
	morning := todayAt(10, 0)
	doctors := []*model.Doctor{
		testDoctor("Sarah Chen", 15),
		testDoctor("James Okafor", 15),
		testDoctor("Priya Nair", 15),
	}

	var appts []*model.Appointment
	for i := 0; i < 31; i++ {
		doc := doctors[i%3]
		appts = append(appts, bookingAt(doc.ID, morning.Add(time.Duration(i*3)*time.Minute)))
	}

	findings := Recommendations(appts, doctors, morning)
	for _, f := range findings {
		assert.NotEqual(t, model.FindingPeakCongestion, f.Kind)
	}
}

func TestRecommendationsFlagsUnderutilizedDoctors(t *testing.T) {
	busy := testDoctor("Sarah Chen", 30)
	idle := testDoctor("James Okafor", 30)
	away := testDoctor("Priya Nair", 30)
	away.Available = false

	var appts []*model.Appointment
	appts = append(appts, bookingsFor(busy.ID, 8, 9)...)
	appts = append(appts, bookingsFor(idle.ID, 2, 14)...)

	findings := Recommendations(appts, []*model.Doctor{busy, idle, away}, monday)

	var underutilized []*model.Finding
	for _, f := range findings {
		if f.Kind == model.FindingUnderutilized {
			underutilized = append(underutilized, f)
		}
	}
	require.Len(t, underutilized, 1)
	assert.Equal(t, idle.ID, underutilized[0].DoctorID)
	assert.Equal(t, 2, underutilized[0].Count)
	assert.Contains(t, underutilized[0].Describe(), "only 2 appointments today")
}

func TestRecommendationsEarlyArrivalDrift(t *testing.T) {
	doc := testDoctor("Sarah Chen", 30)

	appts := bookingsFor(doc.ID, 10, 9)
	for i := 0; i < 5; i++ {
		appts[i].ArrivedEarly = true
	}

	findings := Recommendations(appts, []*model.Doctor{doc}, monday)

	var drift *model.Finding
	for _, f := range findings {
		if f.Kind == model.FindingEarlyArrivalDrift {
			drift = f
		}
	}
	require.NotNil(t, drift)
	assert.InDelta(t, 50.0, drift.Percent, 1e-9)
	assert.Contains(t, drift.Describe(), "50.0% of patients today arrived early")
}

func TestRecommendationsSpecialtyImbalance(t *testing.T) {
	busy := testDoctor("Sarah Chen", 30)
	light := testDoctor("James Okafor", 30)

	var appts []*model.Appointment
	appts = append(appts, bookingsFor(busy.ID, 10, 9)...)
	appts = append(appts, bookingsFor(light.ID, 3, 15)...)

	findings := Recommendations(appts, []*model.Doctor{busy, light}, monday)

	var imbalance *model.Finding
	for _, f := range findings {
		if f.Kind == model.FindingSpecialtyImbalance {
			imbalance = f
		}
	}
	require.NotNil(t, imbalance)
	assert.Equal(t, model.SpecialtyCardiology, imbalance.Specialty)
	assert.Equal(t, 10, imbalance.MaxCount)
	assert.Equal(t, 3, imbalance.MinCount)

	// the light doctor is also underutilized, and that check runs first
	assert.Equal(t, model.FindingUnderutilized, findings[0].Kind)
	assert.Equal(t, findings[len(findings)-1], imbalance)
}

func TestRecommendationsIgnoreZeroLoadForImbalance(t *testing.T) {
	working := testDoctor("Sarah Chen", 30)
	unbooked := testDoctor("James Okafor", 30)

	appts := bookingsFor(working.ID, 10, 9)

	findings := Recommendations(appts, []*model.Doctor{working, unbooked}, monday)
	for _, f := range findings {
		assert.NotEqual(t, model.FindingSpecialtyImbalance, f.Kind)
	}
}

func TestRecommendationsDeterministic(t *testing.T) {
	busy := testDoctor("Sarah Chen", 30)
	idle := testDoctor("James Okafor", 30)
	light := testDoctor("Priya Nair", 30)

	// mixes overbooked, underutilized and imbalance findings in one day
	var appts []*model.Appointment
	appts = append(appts, bookingsFor(busy.ID, 16, 9)...)
	appts = append(appts, bookingsFor(idle.ID, 2, 14)...)
	appts = append(appts, bookingsFor(light.ID, 3, 15)...)
	for i := 0; i < 8; i++ {
		appts[i].ArrivedEarly = true
	}
	doctors := []*model.Doctor{busy, idle, light}

	first := Recommendations(appts, doctors, monday)
	second := Recommendations(appts, doctors, monday)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestRecommendationsCappedAtFive(t *testing.T) {
	var doctors []*model.Doctor
	names := []string{"Sarah Chen", "James Okafor", "Priya Nair", "Tomas Ruiz", "Mei Lin", "Ada Bello", "Noah Weiss"}
	for _, name := range names {
		doctors = append(doctors, testDoctor(name, 30))
	}

	// a single booking keeps the day non-empty; every doctor is under five
	appts := []*model.Appointment{bookingAt(doctors[0].ID, todayAt(9, 0))}

	findings := Recommendations(appts, doctors, monday)

	require.Len(t, findings, MaxRecommendations)
	for i, f := range findings {
		assert.Equal(t, model.FindingUnderutilized, f.Kind)
		assert.Equal(t, doctors[i].ID, f.DoctorID)
	}
}
