// internal/workers/recommendation/enrich-destinations/models.go
package enrichdestinations

import "creator-trips/internal/models"

type Input struct {
	Preferences  models.UserPreferences        `json:"preferences"`
	Destinations []models.CandidateDestination `json:"destinations"`
}

type Output struct {
	Destinations []models.CandidateDestination `json:"destinations"`
	Fallbacks    []Fallback                    `json:"fallbacks,omitempty"`
}

// Fallback records one substitution made for a destination.
type Fallback struct {
	Destination string `json:"destination"`
	Provider    string `json:"provider"`
	Reason      string `json:"reason"`
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
        "travelers": {"type": "integer", "minimum": 0},
        "contentFocus": {"type": "string"}
      }
    },
    "destinations": {
      "type": "array",
      "maxItems": 200,
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "country": {"type": "string"},
          "tags": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`
