package interview

import (
	"fmt"
	"strings"

	"creator-trips/internal/models"
)

// Question topics, in the order templates are asked. Topic names double as
// answer keys.
const (
	TopicBudget        = "budget"
	TopicDuration      = "duration"
	TopicStyle         = "style"
	TopicPriorities    = "priorities"
	TopicAccommodation = "accommodation"
	TopicInterests     = "interests"
	TopicConstraints   = "constraints"
)

// TopicOrder is the template priority order.
var TopicOrder = []string{
	TopicBudget,
	TopicDuration,
	TopicStyle,
	TopicPriorities,
	TopicAccommodation,
	TopicInterests,
}

// NoConstraints is the closing option meaning nothing else applies.
const NoConstraints = "Nothing else"

// tripContext is what earlier answers tell us about the trip.
type tripContext struct {
	Budget float64
	Days   int
	Tier   Tier
	Style  string
}

func contextOf(s *models.QuestionSession) tripContext {
	var c tripContext
	if b, ok := ParseBudget(s.Answer(TopicBudget)); ok {
		c.Budget = b
	}
	if d, ok := ParseDuration(s.Answer(TopicDuration)); ok {
		c.Days = d
	}
	c.Tier = TierFor(c.Budget, c.Days)
	c.Style = s.Answer(TopicStyle)
	return c
}

func (c tripContext) constraints() Constraints {
	return Constraints{Tier: c.Tier, DurationDays: c.Days}
}

func (c tripContext) budgetPhrase() string {
	if c.Budget <= 0 {
		return ""
	}
	if c.Days > 0 {
		return fmt.Sprintf("about $%s for %d days", formatAmount(c.Budget), c.Days)
	}
	return fmt.Sprintf("about $%s", formatAmount(c.Budget))
}

func formatAmount(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Template builds the deterministic question for a topic.
func Template(topic string, c tripContext) *models.DynamicQuestion {
	switch topic {
	case TopicBudget:
		return &models.DynamicQuestion{
			ID:      TopicBudget,
			Text:    "What's your total budget for this trip, including flights?",
			Options: []string{"Under $1,000", "$1,000 - $2,500", "$2,500 - $5,000", "$5,000 - $10,000", "$10,000+"},
			Metadata: &models.QuestionMetadata{
				BudgetRange: &models.Range{Min: 500, Max: 15000},
			},
		}

	case TopicDuration:
		q := &models.DynamicQuestion{
			ID:      TopicDuration,
			Text:    "How long would you like to travel?",
			Options: []string{"Weekend (2-3 days)", "1 week", "2 weeks", "3 weeks", "1 month or longer"},
			Metadata: &models.QuestionMetadata{
				DurationRange: &models.Range{Min: 2, Max: 30},
			},
		}
		if p := c.budgetPhrase(); p != "" {
			q.Text = fmt.Sprintf("With %s, how long would you like to travel?", p)
			q.ContextAware = true
		}
		return q

	case TopicStyle:
		q := &models.DynamicQuestion{
			ID:   TopicStyle,
			Text: "Which travel style fits you best?",
			Options: []string{
				"Budget backpacking",
				"Comfortable mid-range",
				"Luxury experiences",
				"Adventure & outdoors",
				"Cultural immersion",
				"Slow travel & remote work",
			},
		}
		if p := c.budgetPhrase(); p != "" {
			q.Text = fmt.Sprintf("With %s, which travel style fits you best?", p)
			q.ContextAware = true
		}
		return q

	case TopicPriorities:
		q := &models.DynamicQuestion{
			ID:          TopicPriorities,
			Text:        "What matters most for the content you want to create?",
			MultiSelect: true,
			Options: []string{
				"Stunning visuals",
				"Local food scene",
				"Brand partnership potential",
				"Engaged local creator community",
				"Off-the-beaten-path stories",
				"Nightlife & events",
			},
		}
		if c.Style != "" {
			q.Text = fmt.Sprintf("For a %s trip, what matters most for the content you want to create?", strings.ToLower(c.Style))
			q.ContextAware = true
		}
		return q

	case TopicAccommodation:
		q := &models.DynamicQuestion{
			ID:   TopicAccommodation,
			Text: "Where do you prefer to stay?",
			Options: []string{
				"Hostels & shared stays",
				"Boutique hotels",
				"Apartments & rentals",
				"5-star resorts",
				"Homestays with locals",
			},
		}
		if c.Days > 0 {
			q.Text = fmt.Sprintf("Where do you prefer to stay for %d nights?", c.Days)
			q.ContextAware = true
		}
		return q

	case TopicInterests:
		return &models.DynamicQuestion{
			ID:          TopicInterests,
			Text:        "Which experiences would you like to capture?",
			MultiSelect: true,
			Options: []string{
				"Street food & markets",
				"Hiking & nature",
				"Architecture & history",
				"Beaches & islands",
				"Festivals & nightlife",
				"Wellness & retreats",
			},
		}
	}
	return nil
}

// ClosingQuestion collects free-form constraints; it is never adapted.
func ClosingQuestion() *models.DynamicQuestion {
	return &models.DynamicQuestion{
		ID:          TopicConstraints,
		Text:        "Anything else we should plan around? Add any constraints such as dates, diet, accessibility or visas.",
		MultiSelect: true,
		Options: []string{
			"Fixed travel dates",
			"Dietary requirements",
			"Accessibility needs",
			"Visa-free destinations only",
			"No long-haul flights",
			NoConstraints,
		},
	}
}
