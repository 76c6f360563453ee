package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/fluentprep/exam-engine/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SubmitAPI is the slice of the external API the coordinator drains into.
type SubmitAPI interface {
	SaveAnswer(ctx context.Context, sessionID uuid.UUID, answer model.Answer) error
	CompleteSession(ctx context.Context, sessionID uuid.UUID) error
}

// SubmitReport summarizes one submission run.
type SubmitReport struct {
	Persisted int `json:"persisted"`
	// Failed counts per-answer persist calls that errored. Failures are
	// absorbed (best effort): a failed persist never blocks completion,
	// the count is surfaced here for the caller to display or log.
	Failed int `json:"failed"`
	// CompleteAttempts is how many completion calls were issued.
	CompleteAttempts int `json:"complete_attempts"`
}

// SubmitCoordinator sends all answers and the completion signal to the
// external API. It carries no state between runs; the at-most-once guarantee
// for a session belongs to the Controller's submitting barrier.
//
// Drain policy: per-answer persist calls are issued sequentially, each
// awaited before the next, so the API is never hit with a burst of
// concurrent writes from one candidate.
type SubmitCoordinator struct {
	api SubmitAPI
	log zerolog.Logger

	// attempts bounds the completion call: 1 means no retry. backoff grows
	// linearly between attempts (backoff, 2*backoff, ...).
	attempts int
	backoff  time.Duration
}

// NewSubmitCoordinator creates a coordinator. attempts below 1 is treated
// as 1 (single completion call, no retry).
func NewSubmitCoordinator(api SubmitAPI, attempts int, backoff time.Duration, log zerolog.Logger) *SubmitCoordinator {
	if attempts < 1 {
		attempts = 1
	}
	return &SubmitCoordinator{
		api:      api,
		log:      log.With().Str("component", "submit_coordinator").Logger(),
		attempts: attempts,
		backoff:  backoff,
	}
}

// Submit drains the answer snapshot and then calls the completion endpoint.
// An empty snapshot is valid: the completion call is issued regardless.
// The returned error is non-nil only when the completion call failed after
// all attempts; the report is returned in both cases.
func (c *SubmitCoordinator) Submit(ctx context.Context, sessionID uuid.UUID, answers []model.Answer) (*SubmitReport, error) {
	report := &SubmitReport{}

	for _, ans := range answers {
		if err := c.api.SaveAnswer(ctx, sessionID, ans); err != nil {
			// Best effort: log and keep draining. A partial submission
			// with most answers recorded beats an aborted one.
			c.log.Error().Err(err).
				Str("session_id", sessionID.String()).
				Str("question_id", ans.QuestionID.String()).
				Msg("Persist answer failed")
			report.Failed++
			continue
		}
		report.Persisted++
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		report.CompleteAttempts = attempt

		if lastErr = c.api.CompleteSession(ctx, sessionID); lastErr == nil {
			c.log.Info().
				Str("session_id", sessionID.String()).
				Int("persisted", report.Persisted).
				Int("failed", report.Failed).
				Int("attempt", attempt).
				Msg("Session completed")
			return report, nil
		}

		c.log.Error().Err(lastErr).
			Str("session_id", sessionID.String()).
			Int("attempt", attempt).
			Msg("Completion call failed")

		if attempt < c.attempts {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}
	}

	return report, fmt.Errorf("complete session: %w", lastErr)
}
