// internal/workers/recommendation/recommend-destinations/models.go
package recommenddestinations

import "creator-trips/internal/models"

type Input struct {
	Preferences  models.UserPreferences        `json:"preferences"`
	Destinations []models.CandidateDestination `json:"destinations"`
}

// Output is what the process sees. HasRecommendations drives the gateway
// between the results and the no-fit path.
type Output struct {
	HasRecommendations bool                        `json:"hasRecommendations"`
	Recommendations    []models.ScoredDestination  `json:"recommendations"`
	NoFit              *models.NoFit               `json:"noFit,omitempty"`
	Dropped            []models.DroppedDestination `json:"dropped,omitempty"`
	CandidateCount     int                         `json:"candidateCount"`
}

const InputSchema = `{
  "type": "object",
  "required": ["preferences", "destinations"],
  "properties": {
    "preferences": {
      "type": "object",
      "required": ["budget"],
      "properties": {
        "budget": {
          "type": "object",
          "required": ["amount"],
          "properties": {
            "amount": {"type": "number"},
            "currency": {"type": "string"}
          }
        },
        "durationDays": {"type": "integer", "minimum": 0},
        "travelers": {"type": "integer", "minimum": 0}
      }
    },
    "destinations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "tasteAffinity": {"type": ["number", "null"]},
          "cost": {"type": ["object", "null"]},
          "creators": {"type": ["object", "null"]}
        }
      }
    }
  }
}`
