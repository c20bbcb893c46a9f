// internal/models/interview.go
package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAnswerRecorded is returned when an answer would overwrite an earlier one.
var ErrAnswerRecorded = errors.New("answer already recorded")

// Range is a numeric display range attached to a question.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// QuestionMetadata is display-only context for the client. It never feeds scoring.
type QuestionMetadata struct {
	BudgetRange   *Range `json:"budgetRange,omitempty"`
	DurationRange *Range `json:"durationRange,omitempty"`
}

// DynamicQuestion is one interview turn.
type DynamicQuestion struct {
	ID           string            `json:"id"`
	Text         string            `json:"question"`
	Options      []string          `json:"options"`
	MultiSelect  bool              `json:"multiSelect"`
	ContextAware bool              `json:"contextAware"`
	Metadata     *QuestionMetadata `json:"metadata,omitempty"`
}

// QuestionSession is the state of one interview. It travels with the caller
// (process variables) and is discarded once preferences are produced.
type QuestionSession struct {
	ID                string              `json:"id"`
	QuestionNumber    int                 `json:"questionNumber"`
	Answers           map[string][]string `json:"answers"`
	AnswerOrder       []string            `json:"answerOrder,omitempty"`
	PreviousQuestions []string            `json:"previousQuestions,omitempty"`
	PendingQuestionID string              `json:"pendingQuestionId,omitempty"`
	ClosingAsked      bool                `json:"closingAsked,omitempty"`
	Complete          bool                `json:"complete,omitempty"`
}

// Answered reports whether questionID already has an answer.
func (s *QuestionSession) Answered(questionID string) bool {
	_, ok := s.Answers[questionID]
	return ok
}

// Answer returns the first recorded value for questionID.
func (s *QuestionSession) Answer(questionID string) string {
	vals := s.Answers[questionID]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// HasAsked reports whether an identical question text was already shown.
func (s *QuestionSession) HasAsked(text string) bool {
	norm := strings.ToLower(strings.TrimSpace(text))
	for _, prev := range s.PreviousQuestions {
		if strings.ToLower(strings.TrimSpace(prev)) == norm {
			return true
		}
	}
	return false
}

// RecordAnswer appends an answer. Existing answers are never overwritten.
func (s *QuestionSession) RecordAnswer(questionID string, values []string) error {
	if questionID == "" {
		return fmt.Errorf("question id is required")
	}
	if s.Answers == nil {
		s.Answers = make(map[string][]string)
	}
	if s.Answered(questionID) {
		return fmt.Errorf("%w: %s", ErrAnswerRecorded, questionID)
	}

	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	s.Answers[questionID] = cleaned
	s.AnswerOrder = append(s.AnswerOrder, questionID)
	return nil
}
