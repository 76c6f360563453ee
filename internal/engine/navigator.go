package engine

import (
	"errors"

	"github.com/fluentprep/exam-engine/internal/model"
)

// ErrNoQuestions is returned when a session has an empty question sequence.
var ErrNoQuestions = errors.New("question sequence is empty")

// Navigator tracks which question is currently displayed. It is the only
// component that changes focus. The index is clamped to [0, len-1] for
// every operation; Next and Prev clamp rather than wrap, and JumpTo lets
// the user revisit any question at any time, in any order.
//
// Navigator is not safe for concurrent use on its own; the Controller
// serializes access.
type Navigator struct {
	questions []model.Question
	idx       int
}

// NewNavigator creates a navigator over the fixed question sequence.
func NewNavigator(questions []model.Question) (*Navigator, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return &Navigator{questions: questions}, nil
}

// Current returns the question in focus.
func (n *Navigator) Current() model.Question {
	return n.questions[n.idx]
}

// Index returns the current zero-based position.
func (n *Navigator) Index() int {
	return n.idx
}

// Len returns the number of questions.
func (n *Navigator) Len() int {
	return len(n.questions)
}

// Questions returns the fixed traversal sequence.
func (n *Navigator) Questions() []model.Question {
	return n.questions
}

// Next advances focus by one, clamping at the last question.
func (n *Navigator) Next() {
	if n.idx < len(n.questions)-1 {
		n.idx++
	}
}

// Prev moves focus back by one, clamping at the first question.
func (n *Navigator) Prev() {
	if n.idx > 0 {
		n.idx--
	}
}

// JumpTo moves focus directly to the given position, clamping out-of-range
// values into bounds. Used by the question-picker grid.
func (n *Navigator) JumpTo(idx int) {
	if idx < 0 {
		idx = 0
	}
	if idx > len(n.questions)-1 {
		idx = len(n.questions) - 1
	}
	n.idx = idx
}
