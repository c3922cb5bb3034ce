package api_test

import (
	"fmt"
	"testing"
	"time"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s %d", prefix, time.Now().UnixNano())
}

func createDoctor(name, specialty string, consultMinutes, experience int) TestResponse {
	return makeRequest("POST", "/api/v1/doctors", map[string]interface{}{
		"name":                     name,
		"specialty":                specialty,
		"avg_consultation_minutes": consultMinutes,
		"experience_years":         experience,
	}, adminToken)
}

// nextWeekdaySlot returns a bookable half-hour start a few days out, pushed
// off weekends so slot-optimizer assertions stay stable.
func nextWeekdaySlot(daysAhead, hour, minute int) time.Time {
	t := time.Now().UTC().AddDate(0, 0, daysAhead)
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, time.UTC)
}

func bookAppointment(t *testing.T, docID string, startAt time.Time) TestResponse {
	t.Helper()
	return makeRequest("POST", "/api/v1/appointments", map[string]interface{}{
		"patient_id": randomUUID(t),
		"doctor_id":  docID,
		"start_at":   startAt.Format(time.RFC3339),
	}, "")
}

func randomUUID(t *testing.T) string {
	t.Helper()
	// v4-shaped, derived from the clock; good enough for test patients
	n := time.Now().UnixNano()
	return fmt.Sprintf("%08x-%04x-4%03x-8%03x-%012x",
		uint32(n), uint16(n>>32), uint16(n>>16)&0xfff, uint16(n>>4)&0xfff, uint64(n)&0xffffffffffff)
}
