package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsSummary(t *testing.T) {
	resp := makeRequest("GET", "/api/v1/analytics/summary", nil, "")
	require.True(t, resp.IsSuccess(), resp.Message)

	assert.GreaterOrEqual(t, resp.GetNumber("total_today"), float64(0))
	assert.GreaterOrEqual(t, resp.GetNumber("queue_size"), float64(0))
	assert.GreaterOrEqual(t, resp.GetNumber("avg_wait_minutes"), float64(0))
}

func TestAnalyticsPatientFlow(t *testing.T) {
	resp := makeRequest("GET", "/api/v1/analytics/patient-flow", nil, "")
	require.True(t, resp.IsSuccess(), resp.Message)
	require.Len(t, resp.List, 12)

	for i, item := range resp.List {
		point, ok := item.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(9+i), point["hour"])
		assert.GreaterOrEqual(t, point["count"], float64(0))
	}
}

func TestAnalyticsWaitForecast(t *testing.T) {
	resp := makeRequest("GET", "/api/v1/analytics/wait-forecast", nil, "")
	require.True(t, resp.IsSuccess(), resp.Message)

	for _, item := range resp.List {
		hour, ok := item.(map[string]interface{})
		require.True(t, ok)
		assert.Greater(t, hour["expected_wait_minutes"], float64(0))
		h, _ := hour["hour"].(float64)
		assert.LessOrEqual(t, h, float64(20))
	}
}

func TestAnalyticsSpecialtyQueues(t *testing.T) {
	resp := makeRequest("GET", "/api/v1/analytics/specialty-queues", nil, "")
	require.True(t, resp.IsSuccess(), resp.Message)

	for _, item := range resp.List {
		queue, ok := item.(map[string]interface{})
		require.True(t, ok)
		assert.NotEmpty(t, queue["specialty"])
		assert.GreaterOrEqual(t, queue["patients_waiting"], float64(0))
	}
}

func TestAnalyticsReport(t *testing.T) {
	resp := makeRequest("GET", "/api/v1/analytics/report", nil, "")
	require.True(t, resp.IsSuccess(), resp.Message)

	assert.NotEmpty(t, resp.GetString("from"))
	assert.NotEmpty(t, resp.GetString("to"))
	assert.GreaterOrEqual(t, resp.GetNumber("appointments"), float64(0))
}

func TestAnalyticsReportRejectsInvertedRange(t *testing.T) {
	resp := makeRequest("GET", "/api/v1/analytics/report?from=2026-03-10&to=2026-03-01", nil, "")
	assert.False(t, resp.IsSuccess())
	assert.Equal(t, 400, resp.StatusCode)
}

func TestAnalyticsStaffPerformance(t *testing.T) {
	resp := makeRequest("GET", "/api/v1/analytics/staff-performance", nil, "")
	require.True(t, resp.IsSuccess(), resp.Message)

	for _, item := range resp.List {
		staff, ok := item.(map[string]interface{})
		require.True(t, ok)
		assert.NotEmpty(t, staff["name"])
		eff, _ := staff["efficiency"].(float64)
		assert.GreaterOrEqual(t, eff, float64(50))
		assert.LessOrEqual(t, eff, float64(100))
	}
}
