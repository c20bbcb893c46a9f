// internal/models/preferences.go
package models

// Money is an amount in a single currency.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// UserPreferences is the interview outcome handed to the recommendation
// pipeline. It is treated as read-only once the pipeline starts.
type UserPreferences struct {
	Budget        Money    `json:"budget"`
	DurationDays  int      `json:"durationDays"`
	Travelers     int      `json:"travelers,omitempty"`
	TravelStyle   string   `json:"travelStyle,omitempty"`
	ContentFocus  string   `json:"contentFocus,omitempty"`
	Accommodation string   `json:"accommodation,omitempty"`
	Climate       []string `json:"climate,omitempty"`
	Priorities    []string `json:"priorities,omitempty"`
	Constraints   []string `json:"constraints,omitempty"`
}

// TravelerCount defaults to a solo trip.
func (p UserPreferences) TravelerCount() int {
	if p.Travelers < 1 {
		return 1
	}
	return p.Travelers
}

// Nights is the number of paid nights for the trip.
func (p UserPreferences) Nights() int {
	if p.DurationDays < 1 {
		return 0
	}
	return p.DurationDays
}

// Currency falls back to USD when the budget carries none.
func (p UserPreferences) Currency() string {
	if p.Budget.Currency == "" {
		return "USD"
	}
	return p.Budget.Currency
}
