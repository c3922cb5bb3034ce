package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/jwalitptl/flow-api/pkg/auth"
)

// Black-box tests against a running API server. Point API_URL at the server
// under test; the suite mints its own admin token with the same secret the
// server was started with (FLOW_JWT_SECRET, falling back to the dev default).
var (
	baseURL    = "http://localhost:8080"
	adminToken string
	doctorID   string
)

// APIResponse is the envelope every endpoint replies with.
type APIResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// TestResponse wraps the API response for assertions.
type TestResponse struct {
	StatusCode int
	Status     string
	Message    string
	Data       map[string]interface{}
	List       []interface{}
	RawData    string
}

func (r TestResponse) IsSuccess() bool {
	return r.Status == "success"
}

func (r TestResponse) GetString(key string) string {
	if r.Data == nil {
		return ""
	}
	if v, ok := r.Data[key].(string); ok {
		return v
	}
	return ""
}

func (r TestResponse) GetNumber(key string) float64 {
	if r.Data == nil {
		return 0
	}
	if v, ok := r.Data[key].(float64); ok {
		return v
	}
	return 0
}

func checkAPIServer() error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return fmt.Errorf("API server not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

func TestMain(m *testing.M) {
	if url := os.Getenv("API_URL"); url != "" {
		baseURL = url
	}

	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		if err := checkAPIServer(); err != nil {
			if i == maxRetries-1 {
				fmt.Printf("Error: %v\nMake sure the API server is running at %s\n", err, baseURL)
				os.Exit(1)
			}
			fmt.Printf("Waiting for API server (attempt %d/%d)...\n", i+1, maxRetries)
			time.Sleep(2 * time.Second)
			continue
		}
		break
	}

	setupAuth()
	setupTestData()

	os.Exit(m.Run())
}

// setupAuth mints an admin token locally. Token issuance has no endpoint;
// operators create tokens out of band with the shared secret, and the tests
// do the same.
func setupAuth() {
	secret := os.Getenv("FLOW_JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-do-not-use"
	}

	token, err := auth.NewJWTService(secret, 1).GenerateToken("api-tests", "admin")
	if err != nil {
		fmt.Printf("Failed to mint admin token: %v\n", err)
		os.Exit(1)
	}
	adminToken = token
}

func setupTestData() {
	resp := createDoctor(uniqueName("Dr. Test"), "Cardiology", 30, 10)
	if !resp.IsSuccess() {
		fmt.Printf("Failed to create test doctor: %s\n", resp.Message)
		os.Exit(1)
	}
	doctorID = resp.GetString("id")
	if doctorID == "" {
		fmt.Println("Doctor creation returned no id")
		os.Exit(1)
	}
}

func makeRequest(method, path string, body interface{}, token string) TestResponse {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return TestResponse{Status: "error", Message: err.Error()}
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+path, reqBody)
	if err != nil {
		return TestResponse{Status: "error", Message: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	response, err := client.Do(req)
	if err != nil {
		return TestResponse{Status: "error", Message: err.Error()}
	}
	defer response.Body.Close()

	respBody, err := io.ReadAll(response.Body)
	if err != nil {
		return TestResponse{StatusCode: response.StatusCode, Status: "error", Message: err.Error()}
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return TestResponse{
			StatusCode: response.StatusCode,
			Status:     "error",
			Message:    fmt.Sprintf("failed to parse response: %v\nraw: %s", err, string(respBody)),
		}
	}

	testResp := TestResponse{
		StatusCode: response.StatusCode,
		Status:     apiResp.Status,
		Message:    apiResp.Message,
		RawData:    string(apiResp.Data),
	}

	if len(apiResp.Data) > 0 {
		var data map[string]interface{}
		if err := json.Unmarshal(apiResp.Data, &data); err == nil {
			testResp.Data = data
		}
		var list []interface{}
		if err := json.Unmarshal(apiResp.Data, &list); err == nil {
			testResp.List = list
		}
	}

	return testResp
}
