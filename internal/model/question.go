package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// SkillModule enumerates the four skill modules a question can belong to.
type SkillModule string

const (
	ModuleListening SkillModule = "listening"
	ModuleReading   SkillModule = "reading"
	ModuleWriting   SkillModule = "writing"
	ModuleSpeaking  SkillModule = "speaking"
)

// Question is a single task in the fixed traversal order of a session.
// Immutable once loaded; the ordered sequence is what the Navigator
// indexes into.
type Question struct {
	ID       uuid.UUID   `json:"id"`
	Module   SkillModule `json:"module"`
	OrderNum int         `json:"order_num"`
	Prompt   string      `json:"prompt"`
	// Choices is nil for free-form tasks (essays, speaking cues).
	Choices []string `json:"choices,omitempty"`
	// Extra carries module-specific payload: audio clip URL for listening,
	// passage reference for reading, cue card for speaking.
	Extra  json.RawMessage `json:"extra,omitempty"`
	Points int             `json:"points"`
}

// FreeForm reports whether the question takes free text (or a recorded
// artifact reference) rather than one of a fixed choice set.
func (q *Question) FreeForm() bool {
	return len(q.Choices) == 0
}
