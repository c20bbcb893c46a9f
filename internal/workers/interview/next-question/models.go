// internal/workers/interview/next-question/models.go
package nextquestion

import "creator-trips/internal/models"

// Input carries the interview state between turns. A missing session starts
// a new interview.
type Input struct {
	Session *models.QuestionSession `json:"interviewSession,omitempty"`
	Answer  *AnswerInput            `json:"answer,omitempty"`
}

type AnswerInput struct {
	QuestionID string   `json:"questionId"`
	Values     []string `json:"values"`
}

// Output is written back as process variables. InterviewComplete drives the
// loop gateway; Preferences is only set on the final turn.
type Output struct {
	Session           *models.QuestionSession `json:"interviewSession"`
	Question          *models.DynamicQuestion `json:"question"`
	QuestionSource    string                  `json:"questionSource,omitempty"`
	InterviewComplete bool                    `json:"interviewComplete"`
	Answers           map[string][]string     `json:"answers,omitempty"`
	Preferences       *models.UserPreferences `json:"preferences,omitempty"`
}

const InputSchema = `{
  "type": "object",
  "properties": {
    "interviewSession": {
      "type": ["object", "null"],
      "properties": {
        "id": {"type": "string"},
        "questionNumber": {"type": "integer", "minimum": 0},
        "answers": {
          "type": ["object", "null"],
          "additionalProperties": {"type": "array", "items": {"type": "string"}}
        },
        "pendingQuestionId": {"type": "string"}
      }
    },
    "answer": {
      "type": ["object", "null"],
      "required": ["questionId"],
      "properties": {
        "questionId": {"type": "string", "minLength": 1},
        "values": {"type": "array", "items": {"type": "string"}}
      }
    }
  }
}`
