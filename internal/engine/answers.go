package engine

import (
	"sync"

	"github.com/fluentprep/exam-engine/internal/model"
	"github.com/google/uuid"
)

// AnswerStore is the in-memory mapping from question ID to the user's
// current answer. Exactly one answer exists per question at any time; later
// input overwrites earlier input, absence means "unanswered". The store
// performs no validation of answer shape — that belongs to the server.
type AnswerStore struct {
	mu      sync.RWMutex
	answers map[uuid.UUID]string
}

// NewAnswerStore creates an empty answer store.
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[uuid.UUID]string)}
}

// Set records the answer for a question, overwriting any earlier value
// (last write wins). The write takes effect synchronously for subsequent
// reads.
func (s *AnswerStore) Set(questionID uuid.UUID, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[questionID] = value
}

// Get returns the current answer for a question. ok is false if the
// question is unanswered.
func (s *AnswerStore) Get(questionID uuid.UUID) (value string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok = s.answers[questionID]
	return value, ok
}

// Answered reports whether a question has an answer. Drives the answered
// markers in the question-picker grid.
func (s *AnswerStore) Answered(questionID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.answers[questionID]
	return ok
}

// Count returns the number of answered questions.
func (s *AnswerStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answers)
}

// Snapshot returns a stable copy of all current answers, ordered by the
// given question sequence. Questions without an answer are omitted. The
// returned slice is detached from the store: later writes do not affect it.
func (s *AnswerStore) Snapshot(order []model.Question) []model.Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	answers := make([]model.Answer, 0, len(s.answers))
	for i := range order {
		if v, ok := s.answers[order[i].ID]; ok {
			answers = append(answers, model.Answer{
				QuestionID: order[i].ID,
				Value:      v,
			})
		}
	}
	return answers
}
