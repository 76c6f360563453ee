package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates the lifecycle states of a test session as
// tracked by the platform API.
type SessionStatus string

const (
	SessionStatusCreated    SessionStatus = "created"
	SessionStatusStarted    SessionStatus = "started"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusAbandoned  SessionStatus = "abandoned"
)

// Active reports whether the engine may attach to a session in this status.
func (s SessionStatus) Active() bool {
	return s == SessionStatusStarted || s == SessionStatusInProgress
}

// Session represents one timed attempt at a question set. It is created
// server-side before the engine attaches and owned by one Controller for
// the duration of the attempt.
type Session struct {
	ID         uuid.UUID     `json:"id"`
	ExamType   ExamType      `json:"exam_type"`
	Status     SessionStatus `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// Remaining derives the seconds left on the session's time budget at the
// given instant: budget minus elapsed-since-start, floored at zero. The
// value is computed once at load and never re-synchronized with the server
// afterwards, so client/server clock skew is an accepted approximation.
func (s *Session) Remaining(now time.Time) int {
	budget := s.ExamType.Budget()
	left := budget - now.Sub(s.StartedAt)
	if left < 0 {
		return 0
	}
	return int(left / time.Second)
}

// CreateSessionRequest is the payload for starting a new practice session.
type CreateSessionRequest struct {
	ExamType ExamType `json:"exam_type" binding:"required,oneof=full_mock listening reading writing speaking"`
}
