package handler

import (
	"errors"
	"net/http"

	"github.com/fluentprep/exam-engine/internal/middleware"
	"github.com/fluentprep/exam-engine/internal/model"
	"github.com/fluentprep/exam-engine/internal/response"
	"github.com/fluentprep/exam-engine/internal/store"
	"github.com/fluentprep/exam-engine/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionHandler serves the four session operations the engine consumes,
// plus session creation.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(st *store.Store) *SessionHandler {
	return &SessionHandler{store: st}
}

// Create godoc
// POST /api/v1/sessions
// Starts a new practice session of the requested exam type.
func (h *SessionHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.store.CreateSession(claims.CandidateID, req.ExamType)
	if err != nil {
		if errors.Is(err, store.ErrUnknownExamType) {
			response.Fail(c, http.StatusBadRequest, response.ErrUnknownExamType)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// Get godoc
// GET /api/v1/sessions/:session_id
// Returns session metadata; the engine uses it once to seed the clock.
func (h *SessionHandler) Get(c *gin.Context) {
	claims, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	session, err := h.store.GetSession(sessionID, claims.CandidateID)
	if err != nil {
		h.failStore(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// Questions godoc
// GET /api/v1/sessions/:session_id/questions
// Returns the ordered question sequence, fetched once at load.
func (h *SessionHandler) Questions(c *gin.Context) {
	claims, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	questions, err := h.store.Questions(sessionID, claims.CandidateID)
	if err != nil {
		h.failStore(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// SaveAnswer godoc
// PUT /api/v1/sessions/:session_id/answers/:question_id
// Upserts one answer (last write wins).
func (h *SessionHandler) SaveAnswer(c *gin.Context) {
	claims, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.store.SaveAnswer(sessionID, claims.CandidateID, questionID, req.Value, req.TimeSpentSeconds); err != nil {
		if errors.Is(err, store.ErrUnknownQuestion) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		h.failStore(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": true})
}

// Complete godoc
// POST /api/v1/sessions/:session_id/complete
// Marks the session completed. Completing a terminal session is a conflict.
func (h *SessionHandler) Complete(c *gin.Context) {
	claims, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	session, err := h.store.Complete(sessionID, claims.CandidateID)
	if err != nil {
		h.failStore(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// sessionScope extracts the caller's claims and the session ID path param,
// writing the error response itself on failure.
func (h *SessionHandler) sessionScope(c *gin.Context) (*middleware.Claims, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}

	return claims, sessionID, true
}

func (h *SessionHandler) failStore(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, store.ErrNotSessionOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, store.ErrSessionTerminal):
		response.Fail(c, http.StatusConflict, response.ErrSessionTerminal)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
