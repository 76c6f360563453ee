// Package store is the in-memory backing for the local practice server. It
// stands in for the platform's real persistence so the engine can be run and
// tested without external services. Not intended for production use.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/fluentprep/exam-engine/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Store errors, mapped to wire codes by the handlers.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrNotSessionOwner    = errors.New("not the session owner")
	ErrSessionTerminal    = errors.New("session is terminal")
	ErrUnknownExamType    = errors.New("unknown exam type")
	ErrUnknownQuestion    = errors.New("question does not belong to session")
)

// Candidate is a seeded practice account.
type Candidate struct {
	ID             string
	Name           string
	AccessCodeHash string
}

type sessionRecord struct {
	session     model.Session
	candidateID string
	questions   []model.Question
	answers     map[uuid.UUID]model.Answer
}

// Store holds candidates, fixture question sets and live sessions.
type Store struct {
	mu         sync.RWMutex
	log        zerolog.Logger
	candidates map[string]Candidate
	sessions   map[uuid.UUID]*sessionRecord
	fixtures   map[model.ExamType][]model.Question
}

// New creates a store seeded with the fixture exams and practice candidates.
// bcryptCost controls access-code hashing of the seeded accounts.
func New(bcryptCost int, log zerolog.Logger) (*Store, error) {
	s := &Store{
		log:        log.With().Str("component", "store").Logger(),
		candidates: make(map[string]Candidate),
		sessions:   make(map[uuid.UUID]*sessionRecord),
		fixtures:   fixtureQuestionSets(),
	}

	for _, seed := range seedCandidates {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.accessCode), bcryptCost)
		if err != nil {
			return nil, err
		}
		s.candidates[seed.id] = Candidate{
			ID:             seed.id,
			Name:           seed.name,
			AccessCodeHash: string(hash),
		}
	}

	return s, nil
}

// Authenticate checks a candidate's access code.
func (s *Store) Authenticate(candidateID, accessCode string) (*Candidate, error) {
	s.mu.RLock()
	cand, ok := s.candidates[candidateID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cand.AccessCodeHash), []byte(accessCode)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &cand, nil
}

// CreateSession starts a new session of the given exam type for a candidate.
// Each call creates a fresh attempt; the engine attaches afterwards.
func (s *Store) CreateSession(candidateID string, examType model.ExamType) (*model.Session, error) {
	questions, ok := s.fixtures[examType]
	if !ok {
		return nil, ErrUnknownExamType
	}

	session := model.Session{
		ID:        uuid.New(),
		ExamType:  examType,
		Status:    model.SessionStatusStarted,
		StartedAt: time.Now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = &sessionRecord{
		session:     session,
		candidateID: candidateID,
		questions:   questions,
		answers:     make(map[uuid.UUID]model.Answer),
	}
	s.mu.Unlock()

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("candidate_id", candidateID).
		Str("exam_type", string(examType)).
		Msg("Session created")

	return &session, nil
}

// GetSession returns a candidate's session.
func (s *Store) GetSession(sessionID uuid.UUID, candidateID string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, err := s.record(sessionID, candidateID)
	if err != nil {
		return nil, err
	}
	session := rec.session
	return &session, nil
}

// Questions returns the ordered question sequence of a session.
func (s *Store) Questions(sessionID uuid.UUID, candidateID string) ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, err := s.record(sessionID, candidateID)
	if err != nil {
		return nil, err
	}
	return rec.questions, nil
}

// SaveAnswer upserts the answer for one question (last write wins) and moves
// a freshly started session to in_progress. Terminal sessions reject writes.
func (s *Store) SaveAnswer(sessionID uuid.UUID, candidateID string, questionID uuid.UUID, value string, timeSpent int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.record(sessionID, candidateID)
	if err != nil {
		return err
	}
	if !rec.session.Status.Active() {
		return ErrSessionTerminal
	}

	found := false
	for i := range rec.questions {
		if rec.questions[i].ID == questionID {
			found = true
			break
		}
	}
	if !found {
		return ErrUnknownQuestion
	}

	rec.answers[questionID] = model.Answer{
		QuestionID:       questionID,
		Value:            value,
		TimeSpentSeconds: timeSpent,
	}
	rec.session.Status = model.SessionStatusInProgress
	return nil
}

// Complete flips a session to completed. Completing an already terminal
// session is a conflict.
func (s *Store) Complete(sessionID uuid.UUID, candidateID string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.record(sessionID, candidateID)
	if err != nil {
		return nil, err
	}
	if !rec.session.Status.Active() {
		return nil, ErrSessionTerminal
	}

	now := time.Now()
	rec.session.Status = model.SessionStatusCompleted
	rec.session.FinishedAt = &now

	s.log.Info().
		Str("session_id", sessionID.String()).
		Int("answers", len(rec.answers)).
		Msg("Session completed")

	session := rec.session
	return &session, nil
}

// AnswerCount reports how many answers a session holds. Used by tests.
func (s *Store) AnswerCount(sessionID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return 0
	}
	return len(rec.answers)
}

// Answer returns a stored answer. Used by tests.
func (s *Store) Answer(sessionID, questionID uuid.UUID) (model.Answer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return model.Answer{}, false
	}
	ans, ok := rec.answers[questionID]
	return ans, ok
}

// record must be called with at least a read lock held.
func (s *Store) record(sessionID uuid.UUID, candidateID string) (*sessionRecord, error) {
	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if rec.candidateID != candidateID {
		return nil, ErrNotSessionOwner
	}
	return rec, nil
}
