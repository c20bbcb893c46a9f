package interview

import "strings"

var (
	luxuryKeywords = []string{"luxury", "5-star", "five-star", "five star", "premium", "first class", "first-class", "resort", "villa", "private jet"}
	budgetKeywords = []string{"budget", "hostel", "backpack", "cheap", "shoestring", "couchsurf"}
	longKeywords   = []string{"month", "30 days", "4 weeks", "four weeks", "extended", "long-term", "sabbatical"}
	shortKeywords  = []string{"weekend", "day trip", "overnight", "2-3 days", "3 days", "short break"}
)

// Constraints are what is already known about the trip when options are
// filtered.
type Constraints struct {
	Tier         Tier
	DurationDays int
}

// FilterOptions removes options that contradict the known budget tier or
// trip length, trims whitespace and drops duplicates.
func FilterOptions(options []string, c Constraints) []string {
	out := make([]string, 0, len(options))
	seen := make(map[string]bool, len(options))

	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		key := strings.ToLower(opt)
		if opt == "" || seen[key] {
			continue
		}
		if c.Tier == TierBudget && containsAny(key, luxuryKeywords) {
			continue
		}
		if c.Tier == TierLuxury && containsAny(key, budgetKeywords) {
			continue
		}
		if c.DurationDays > 0 && c.DurationDays <= 7 && containsAny(key, longKeywords) {
			continue
		}
		if c.DurationDays > 7 && containsAny(key, shortKeywords) {
			continue
		}
		seen[key] = true
		out = append(out, opt)
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
