// internal/planner/planner_test.go
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-companion/internal/models"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return l
}

// ==========================
// Test Helper Functions
// ==========================

func testPreferences() Preferences {
	return Preferences{
		Destination: "Paris",
		Duration:    "3",
		Interests:   "art and food",
		Budget:      "mid-range",
	}
}

func createTestConfig() *Config {
	return &Config{
		BaseURL:     "http://localhost:8080",
		Timeout:     30 * time.Second,
		MaxRetries:  1,
		MaxTokens:   4096,
		Temperature: 0.7,
	}
}

func researchResponse(facts []models.Fact) string {
	data, _ := json.Marshal(models.ResearchOutput{
		Destination: "Paris",
		Facts:       facts,
	})
	return string(data)
}

func itineraryResponse() string {
	data, _ := json.Marshal(models.Itinerary{
		TripTitle: "3 Days in Paris",
		Summary:   "Art, food, riverside walks.",
		Days: []models.DayPlan{
			{DayNumber: 1, Theme: "Classics", Activities: []models.Activity{
				{Name: "Louvre", TimeSlot: "morning", CostEstimate: "22 EUR"},
			}},
			{DayNumber: 2, Theme: "Food"},
			{DayNumber: 3, Theme: "Hidden gems"},
		},
	})
	return string(data)
}

// pipelineServer fakes the two-step upstream: /research then /plan.
func pipelineServer(t *testing.T, researchBody, planBody string, researchStatus, planStatus int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/ai/research":
			w.WriteHeader(researchStatus)
			w.Write([]byte(researchBody))
		case "/api/ai/plan":
			w.WriteHeader(planStatus)
			w.Write([]byte(planBody))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// ==========================
// Pipeline Tests
// ==========================

func TestPipeline_Generate_Success(t *testing.T) {
	facts := []models.Fact{
		{Title: "Louvre tickets", Description: "22 EUR", SourceURL: "https://example.org"},
	}
	server := pipelineServer(t, researchResponse(facts), itineraryResponse(), http.StatusOK, http.StatusOK)
	defer server.Close()

	config := createTestConfig()
	config.BaseURL = server.URL
	pipeline := NewPipeline(config, NewTestLogger(t))

	itinerary, err := pipeline.Generate(context.Background(), testPreferences())

	require.NoError(t, err)
	assert.Equal(t, "3 Days in Paris", itinerary.TripTitle)
	assert.Len(t, itinerary.Days, 3)
}

func TestPipeline_Generate_InvalidDestinationFact(t *testing.T) {
	facts := []models.Fact{
		{Title: "Invalid Destination", Description: "no credible travel data found"},
	}
	server := pipelineServer(t, researchResponse(facts), itineraryResponse(), http.StatusOK, http.StatusOK)
	defer server.Close()

	config := createTestConfig()
	config.BaseURL = server.URL
	pipeline := NewPipeline(config, NewTestLogger(t))

	itinerary, err := pipeline.Generate(context.Background(), testPreferences())

	assert.Nil(t, itinerary)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationFailed))
}

func TestPipeline_Generate_EmptyItineraryRejected(t *testing.T) {
	tests := []struct {
		name     string
		planBody string
	}{
		{"no days", `{"tripTitle": "Ghost Trip", "summary": "", "days": []}`},
		{"no title", `{"tripTitle": "", "days": [{"dayNumber": 1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := pipelineServer(t, researchResponse(nil), tt.planBody, http.StatusOK, http.StatusOK)
			defer server.Close()

			config := createTestConfig()
			config.BaseURL = server.URL
			pipeline := NewPipeline(config, NewTestLogger(t))

			itinerary, err := pipeline.Generate(context.Background(), testPreferences())

			assert.Nil(t, itinerary)
			assert.True(t, errors.Is(err, ErrGenerationFailed))
		})
	}
}

func TestPipeline_Generate_ResearchFailureStopsPipeline(t *testing.T) {
	planCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/ai/plan" {
			planCalled = true
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	config := createTestConfig()
	config.BaseURL = server.URL
	config.MaxRetries = 0
	pipeline := NewPipeline(config, NewTestLogger(t))

	itinerary, err := pipeline.Generate(context.Background(), testPreferences())

	assert.Nil(t, itinerary)
	assert.True(t, errors.Is(err, ErrGenerationFailed))
	assert.False(t, planCalled)
}

func TestPipeline_Generate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	config := createTestConfig()
	config.BaseURL = server.URL
	config.Timeout = 50 * time.Millisecond
	pipeline := NewPipeline(config, NewTestLogger(t))

	itinerary, err := pipeline.Generate(context.Background(), testPreferences())

	assert.Nil(t, itinerary)
	assert.True(t, errors.Is(err, ErrGenerationTimeout))
}

// ==========================
// Prompt Building Tests
// ==========================

func TestBuildResearchPrompt(t *testing.T) {
	prompt := buildResearchPrompt("Paris")

	assert.Contains(t, prompt, "Paris")
	assert.Contains(t, prompt, "Invalid Destination")
	assert.Contains(t, prompt, "Data Unavailable")
}

func TestBuildPlanningPrompt(t *testing.T) {
	research := &models.ResearchOutput{
		Destination: "Paris",
		Facts: []models.Fact{
			{Title: "Louvre tickets", Description: "22 EUR"},
		},
	}

	prompt := buildPlanningPrompt(testPreferences(), research)

	assert.Contains(t, prompt, "Paris")
	assert.Contains(t, prompt, "3 days")
	assert.Contains(t, prompt, "art and food")
	assert.Contains(t, prompt, "mid-range")
	assert.Contains(t, prompt, "Louvre tickets")
	assert.Contains(t, prompt, "skip-the-line")
}

func TestBuildPlanningPrompt_NoResearchFacts(t *testing.T) {
	prompt := buildPlanningPrompt(testPreferences(), nil)

	assert.Contains(t, prompt, "Paris")
	assert.NotContains(t, prompt, "Verified research data")
}
