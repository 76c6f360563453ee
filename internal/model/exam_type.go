package model

import "time"

// ExamType identifies what a session covers: a single skill module or the
// full mock test. Each type carries a fixed time budget; the budget is never
// sent over the wire, both ends derive it from the type.
type ExamType string

const (
	ExamTypeFullMock  ExamType = "full_mock"
	ExamTypeListening ExamType = "listening"
	ExamTypeReading   ExamType = "reading"
	ExamTypeWriting   ExamType = "writing"
	ExamTypeSpeaking  ExamType = "speaking"
)

// Budget returns the total duration allotted to a session of this type.
func (t ExamType) Budget() time.Duration {
	switch t {
	case ExamTypeListening:
		return 30 * time.Minute
	case ExamTypeReading:
		return 60 * time.Minute
	case ExamTypeWriting:
		return 60 * time.Minute
	case ExamTypeSpeaking:
		return 15 * time.Minute
	default:
		// Full mock: listening + reading + writing + speaking back to back.
		return 165 * time.Minute
	}
}

// Valid reports whether t is a known exam type.
func (t ExamType) Valid() bool {
	switch t {
	case ExamTypeFullMock, ExamTypeListening, ExamTypeReading, ExamTypeWriting, ExamTypeSpeaking:
		return true
	}
	return false
}
