package model

import "github.com/google/uuid"

// Answer is the user's current value for one question: a selected choice
// string, free text, or a recorded-audio artifact reference for speaking
// tasks. Absence of an Answer means "unanswered".
type Answer struct {
	QuestionID uuid.UUID `json:"question_id"`
	Value      string    `json:"value"`
	// TimeSpentSeconds is reported to the API per answer. The engine does
	// not yet track per-question time, so it is always zero.
	TimeSpentSeconds int `json:"time_spent_seconds"`
}

// SaveAnswerRequest is the payload for persisting one answer.
type SaveAnswerRequest struct {
	Value            string `json:"value" binding:"required,max=20000"`
	TimeSpentSeconds int    `json:"time_spent_seconds" binding:"min=0"`
}
