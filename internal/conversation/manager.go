// Package conversation owns per-session slot-filling state: it merges
// extractor decisions turn by turn, decides when information is sufficient,
// and hands off to itinerary generation exactly once per session.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	apperrors "travel-companion/internal/common/errors"
	"travel-companion/internal/common/metrics"
	"travel-companion/internal/common/observability"
	"travel-companion/internal/extractor"
	"travel-companion/internal/models"
	"travel-companion/internal/planner"
	"travel-companion/internal/store"

	"github.com/google/uuid"
)

// State is the session state reported to the client after a turn.
type State string

const (
	StateCollecting State = "collecting"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

const (
	completionSuffix  = " (Generating your itinerary now... Done!)"
	completedReply    = "Your trip is already planned! Here is your itinerary."
	generationFailure = "I have all the info, but something went wrong generating the plan. Please try again."
)

const persistTimeout = 5 * time.Second

// persistContext detaches persistence writes from caller cancellation. A
// client that disconnects or times out mid-turn must not lose the merged
// record the turn already computed.
func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

// Logger interface definition
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Extractor supplies structured slot updates for one user message.
type Extractor interface {
	Extract(ctx context.Context, userMessage string, knownSlots map[string]string) (*extractor.Decision, error)
}

// Generator produces an itinerary once all four slots are confirmed.
type Generator interface {
	Generate(ctx context.Context, prefs planner.Preferences) (*models.Itinerary, error)
}

// TurnResult is the outcome of one processed turn.
type TurnResult struct {
	SessionID     string
	Message       string
	NeedsMoreInfo bool
	State         State
	Itinerary     *models.Itinerary
}

type Manager struct {
	store     store.SessionStore
	extractor Extractor
	generator Generator
	logger    Logger
	obs       *observability.Observability

	// One mutex per session id. Turns for the same session are serialized,
	// distinct sessions proceed in parallel.
	locks sync.Map
}

func NewManager(s store.SessionStore, e Extractor, g Generator, log Logger, obs *observability.Observability) *Manager {
	return &Manager{
		store:     s,
		extractor: e,
		generator: g,
		logger:    log.With(map[string]interface{}{"component": "conversation"}),
		obs:       obs,
	}
}

func (m *Manager) sessionLock(sessionID string) *sync.Mutex {
	lock, _ := m.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// ProcessTurn runs one conversation turn end to end: load or create the
// session, extract, merge, persist, route, and optionally generate the
// itinerary. If sessionID is empty a fresh one is minted and returned in the
// result.
func (m *Manager) ProcessTurn(ctx context.Context, sessionID, userID, message string) (*TurnResult, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()

	start := time.Now()
	result, err := m.processLocked(ctx, sessionID, userID, strings.TrimSpace(message))
	if err != nil {
		return nil, err
	}

	m.obs.RecordTurn(ctx, string(result.State))
	m.obs.RecordTurnDuration(ctx, time.Since(start), string(result.State))
	return result, nil
}

func (m *Manager) processLocked(ctx context.Context, sessionID, userID, message string) (*TurnResult, error) {
	record, err := m.store.GetOrCreate(ctx, sessionID, userID)
	if err != nil {
		// No safe degraded behavior exists without durable state.
		return nil, apperrors.NewSessionStoreUnavailableError(err)
	}

	// Completed sessions are terminal: no merge, no extractor call.
	if record.IsCompleted() {
		m.logger.Info("turn against completed session", map[string]interface{}{
			"sessionId": sessionID,
		})
		return &TurnResult{
			SessionID:     sessionID,
			Message:       completedReply,
			NeedsMoreInfo: false,
			State:         StateCompleted,
			Itinerary:     record.Itinerary,
		}, nil
	}

	decision, err := m.extractor.Extract(ctx, message, record.Slots)
	if err != nil {
		// Extractor instability must not corrupt session state or crash
		// the turn; substitute the fixed fallback.
		appErr := classifyExtractionError(err)
		metrics.ExtractionFallbacksTotal.Inc()
		m.logger.Warn("extraction failed, using fallback decision", map[string]interface{}{
			"sessionId": sessionID,
			"code":      string(appErr.Code),
			"retryable": appErr.Retryable,
			"error":     appErr.Details,
		})
		decision = extractor.FallbackDecision()
	}

	if decision.OffTopic {
		// Advisory only, never changes routing.
		m.logger.Debug("off-topic message flagged", map[string]interface{}{
			"sessionId": sessionID,
		})
	}

	merged, route := Merge(record, decision)

	// Persist immediately regardless of route: slot progress must survive
	// even if generation fails later in this same turn.
	saveCtx, cancelSave := persistContext(ctx)
	err = m.store.Save(saveCtx, merged)
	cancelSave()
	if err != nil {
		return nil, apperrors.NewSessionStoreUnavailableError(err)
	}

	// The extractor's ready assertion is re-verified locally: an unset slot
	// downgrades the turn to collecting instead of invoking the planner.
	if route == RouteReady && !merged.SlotsComplete() {
		m.logger.Warn("extractor asserted ready with incomplete slots", map[string]interface{}{
			"sessionId": sessionID,
			"missing":   decision.Missing,
		})
		route = RouteCollecting
	}

	metrics.ChatTurnsTotal.WithLabelValues(string(route)).Inc()

	switch route {
	case RouteInvalidDestination:
		appErr := apperrors.NewInvalidDestinationError(decision.ProposedSlots[models.SlotDestination])
		m.logger.Info("destination rejected", map[string]interface{}{
			"sessionId": sessionID,
			"code":      string(appErr.Code),
			"details":   appErr.Details,
		})
		return collectingResult(sessionID, decision), nil

	case RouteCollecting:
		return collectingResult(sessionID, decision), nil

	default: // RouteReady
		return m.generateItinerary(ctx, merged, decision)
	}
}

func collectingResult(sessionID string, decision *extractor.Decision) *TurnResult {
	return &TurnResult{
		SessionID:     sessionID,
		Message:       decision.ReplyText,
		NeedsMoreInfo: true,
		State:         StateCollecting,
	}
}

func (m *Manager) generateItinerary(ctx context.Context, record *models.PreferenceRecord, decision *extractor.Decision) (*TurnResult, error) {
	prefs := planner.Preferences{
		Destination: record.Slots[models.SlotDestination],
		Duration:    record.Slots[models.SlotDuration],
		Interests:   record.Slots[models.SlotInterests],
		Budget:      record.Slots[models.SlotBudget],
	}

	m.logger.Info("starting itinerary generation", map[string]interface{}{
		"sessionId":   record.SessionID,
		"destination": prefs.Destination,
		"duration":    prefs.Duration,
	})

	start := time.Now()
	itinerary, err := m.generator.Generate(ctx, prefs)
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		// Slots stay as merged, itinerary stays unset: the session remains
		// resumable. No automatic retry.
		appErr := classifyGenerationError(err)
		metrics.ItinerariesGeneratedTotal.WithLabelValues("failure").Inc()
		m.logger.Error("itinerary generation failed", map[string]interface{}{
			"sessionId":   record.SessionID,
			"destination": prefs.Destination,
			"code":        string(appErr.Code),
			"retryable":   appErr.Retryable,
			"error":       appErr.Details,
		})
		return &TurnResult{
			SessionID:     record.SessionID,
			Message:       generationFailure,
			NeedsMoreInfo: false,
			State:         StateError,
		}, nil
	}

	record.Itinerary = itinerary
	record.Touch()
	saveCtx, cancelSave := persistContext(ctx)
	err = m.store.Save(saveCtx, record)
	cancelSave()
	if err != nil {
		return nil, apperrors.NewSessionStoreUnavailableError(err)
	}

	metrics.ItinerariesGeneratedTotal.WithLabelValues("success").Inc()

	return &TurnResult{
		SessionID:     record.SessionID,
		Message:       decision.ReplyText + completionSuffix,
		NeedsMoreInfo: false,
		State:         StateCompleted,
		Itinerary:     itinerary,
	}, nil
}

// classifyExtractionError maps an extractor fault onto the service error
// catalog. Timeouts are retryable, anything else is a parse fault.
func classifyExtractionError(err error) *apperrors.StandardError {
	if errors.Is(err, extractor.ErrExtractionTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewExtractionTimeoutError(err.Error())
	}
	return apperrors.NewExtractionFailedError(err)
}

// classifyGenerationError does the same for planner faults.
func classifyGenerationError(err error) *apperrors.StandardError {
	if errors.Is(err, planner.ErrGenerationTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewGenerationTimeoutError(err.Error())
	}
	return apperrors.NewGenerationFailedError(err)
}

// GetSession returns the stored record for the read-only inspection endpoint.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*models.PreferenceRecord, error) {
	record, err := m.store.Get(ctx, sessionID)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, apperrors.NewSessionNotFoundError(sessionID)
	}
	if err != nil {
		return nil, apperrors.NewSessionStoreUnavailableError(err)
	}
	return record, nil
}
