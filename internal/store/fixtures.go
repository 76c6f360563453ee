package store

import (
	"encoding/json"
	"fmt"

	"github.com/fluentprep/exam-engine/internal/model"
	"github.com/google/uuid"
)

// seedCandidates are the practice accounts available out of the box.
var seedCandidates = []struct {
	id         string
	name       string
	accessCode string
}{
	{id: "demo", name: "Demo Candidate", accessCode: "practice"},
	{id: "cand-001", name: "Ade Putri", accessCode: "fluent2026"},
}

// fixtureQuestionSets builds the bundled question sequences per exam type.
// IDs are generated at startup; order numbers define the fixed traversal
// order the navigator indexes into.
func fixtureQuestionSets() map[model.ExamType][]model.Question {
	listening := []model.Question{
		mc(model.ModuleListening, "Listen to the phone call. What time does the museum open on Sundays?",
			[]string{"9:00", "9:30", "10:00", "10:30"}, `{"audio_url":"/media/listening/museum-call.mp3"}`, 1),
		mc(model.ModuleListening, "Listen to the lecture excerpt. The speaker's main topic is:",
			[]string{"coastal erosion", "tidal energy", "marine biology", "shipping routes"}, `{"audio_url":"/media/listening/lecture-04.mp3"}`, 1),
		free(model.ModuleListening, "Complete the note: The library card costs ____ dollars per year.",
			`{"audio_url":"/media/listening/library.mp3","max_words":2}`, 1),
	}

	reading := []model.Question{
		mc(model.ModuleReading, "According to paragraph 2, why did early settlers avoid the valley floor?",
			[]string{"frequent flooding", "poor soil", "lack of timber", "disease"}, `{"passage_id":"settlers"}`, 1),
		mc(model.ModuleReading, "The word \"it\" in line 14 refers to:",
			[]string{"the river", "the settlement", "the harvest", "the route"}, `{"passage_id":"settlers"}`, 1),
		mc(model.ModuleReading, "Which statement best summarizes the author's conclusion?",
			[]string{
				"The valley was settled later than previously thought.",
				"Flood records are unreliable before 1850.",
				"Geography shaped settlement more than economics.",
				"Early maps exaggerated the river's width.",
			}, `{"passage_id":"settlers"}`, 2),
	}

	writing := []model.Question{
		free(model.ModuleWriting, "Task 1: The chart shows household energy use by source from 1990 to 2020. Summarize the main trends in at least 150 words.",
			`{"chart_id":"energy-1990-2020","min_words":150}`, 3),
		free(model.ModuleWriting, "Task 2: Some believe public transport should be free for all residents. To what extent do you agree or disagree? Write at least 250 words.",
			`{"min_words":250}`, 5),
	}

	speaking := []model.Question{
		free(model.ModuleSpeaking, "Part 1: Describe the area where you grew up. What did you like about it?",
			`{"prep_seconds":0,"speak_seconds":60}`, 2),
		free(model.ModuleSpeaking, "Part 2: Describe a skill that took you a long time to learn. You have one minute to prepare.",
			`{"prep_seconds":60,"speak_seconds":120,"cue_card":["what the skill is","why you learned it","how long it took","how you use it now"]}`, 3),
	}

	sets := map[model.ExamType][]model.Question{
		model.ExamTypeListening: listening,
		model.ExamTypeReading:   reading,
		model.ExamTypeWriting:   writing,
		model.ExamTypeSpeaking:  speaking,
	}

	// The full mock test is the four modules back to back.
	var full []model.Question
	for _, t := range []model.ExamType{model.ExamTypeListening, model.ExamTypeReading, model.ExamTypeWriting, model.ExamTypeSpeaking} {
		full = append(full, sets[t]...)
	}
	sets[model.ExamTypeFullMock] = full

	// Assign fresh IDs and ordinals per set so sequences are independent.
	for t, qs := range sets {
		renumbered := make([]model.Question, len(qs))
		for i, q := range qs {
			q.ID = uuid.New()
			q.OrderNum = i + 1
			renumbered[i] = q
		}
		sets[t] = renumbered
	}

	return sets
}

func mc(module model.SkillModule, prompt string, choices []string, extra string, points int) model.Question {
	return model.Question{
		Module:  module,
		Prompt:  prompt,
		Choices: choices,
		Extra:   mustRaw(extra),
		Points:  points,
	}
}

func free(module model.SkillModule, prompt string, extra string, points int) model.Question {
	return model.Question{
		Module: module,
		Prompt: prompt,
		Extra:  mustRaw(extra),
		Points: points,
	}
}

func mustRaw(s string) json.RawMessage {
	raw := json.RawMessage(s)
	if !json.Valid(raw) {
		panic(fmt.Sprintf("invalid fixture json: %s", s))
	}
	return raw
}
