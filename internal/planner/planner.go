// Package planner runs the itinerary generation pipeline: a research step
// that gathers verified facts about the destination, followed by a planning
// step that turns the facts and the user's preferences into an itinerary.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"travel-companion/internal/models"
)

var (
	ErrGenerationFailed  = errors.New("GENERATION_FAILED")
	ErrGenerationTimeout = errors.New("GENERATION_TIMEOUT")
)

const invalidDestinationFact = "Invalid Destination"

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Preferences carries the four confirmed slot values into generation.
type Preferences struct {
	Destination string
	Duration    string
	Interests   string
	Budget      string
}

type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float64
}

type Pipeline struct {
	config *Config
	client *http.Client
	logger Logger
}

func NewPipeline(config *Config, log Logger) *Pipeline {
	return &Pipeline{
		config: config,
		// No client timeout, the pipeline relies on the context deadline.
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"component": "planner",
		}),
	}
}

// Generate runs research then planning. The context bounds the whole
// pipeline; both steps share the deadline.
func (p *Pipeline) Generate(ctx context.Context, prefs Preferences) (*models.Itinerary, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	research, err := p.research(ctx, prefs.Destination)
	if err != nil {
		return nil, err
	}

	for _, fact := range research.Facts {
		if fact.Title == invalidDestinationFact {
			return nil, fmt.Errorf("%w: no verifiable travel data for %q", ErrGenerationFailed, prefs.Destination)
		}
	}

	itinerary, err := p.plan(ctx, prefs, research)
	if err != nil {
		return nil, err
	}

	p.logger.Info("itinerary generated", map[string]interface{}{
		"destination": prefs.Destination,
		"days":        len(itinerary.Days),
	})

	return itinerary, nil
}

func (p *Pipeline) research(ctx context.Context, destination string) (*models.ResearchOutput, error) {
	requestBody := map[string]interface{}{
		"prompt":      buildResearchPrompt(destination),
		"destination": destination,
	}

	var research models.ResearchOutput
	if err := p.call(ctx, "/api/ai/research", requestBody, &research); err != nil {
		return nil, err
	}

	if research.Destination == "" {
		research.Destination = destination
	}
	return &research, nil
}

func (p *Pipeline) plan(ctx context.Context, prefs Preferences, research *models.ResearchOutput) (*models.Itinerary, error) {
	requestBody := map[string]interface{}{
		"prompt":      buildPlanningPrompt(prefs, research),
		"max_tokens":  p.config.MaxTokens,
		"temperature": p.config.Temperature,
	}

	var itinerary models.Itinerary
	if err := p.call(ctx, "/api/ai/plan", requestBody, &itinerary); err != nil {
		return nil, err
	}

	if strings.TrimSpace(itinerary.TripTitle) == "" || len(itinerary.Days) == 0 {
		return nil, fmt.Errorf("%w: planner returned an empty itinerary", ErrGenerationFailed)
	}

	return &itinerary, nil
}

func (p *Pipeline) call(ctx context.Context, path string, requestBody map[string]interface{}, out interface{}) error {
	body, _ := json.Marshal(requestBody)
	req, err := http.NewRequestWithContext(ctx, "POST", p.config.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ErrGenerationTimeout
			}
		}

		resp, lastErr = p.client.Do(req)

		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {

			return ErrGenerationTimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return ErrGenerationTimeout
		}
		return fmt.Errorf("%w: %v", ErrGenerationFailed, lastErr)
	}

	if resp == nil {
		return fmt.Errorf("%w: no successful response after retries", ErrGenerationFailed)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode error: %v", ErrGenerationFailed, err)
	}

	return nil
}
