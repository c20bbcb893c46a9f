package interview

import (
	"regexp"
	"strconv"
	"strings"
)

// Tier is the spending level implied by the running per-day budget.
type Tier string

const (
	TierUnknown Tier = ""
	TierBudget  Tier = "budget"
	TierMid     Tier = "mid"
	TierLuxury  Tier = "luxury"
)

const (
	budgetTierTotal   = 1000.0
	budgetTierPerDay  = 100.0
	luxuryTierPerDay  = 400.0
	assumedTripLength = 7
)

var amountPattern = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*(k\b)?`)

// ParseBudget reads a total budget from an answer such as "Under $1,000",
// "$2,500 - $5,000" (midpoint) or "$10,000+".
func ParseBudget(answer string) (float64, bool) {
	matches := amountPattern.FindAllStringSubmatch(strings.ToLower(answer), -1)
	var values []float64
	for _, m := range matches {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if m[2] != "" {
			v *= 1000
		}
		values = append(values, v)
	}

	switch len(values) {
	case 0:
		return 0, false
	case 1:
		return values[0], values[0] > 0
	default:
		mid := (values[0] + values[1]) / 2
		return mid, mid > 0
	}
}

var (
	monthsPattern = regexp.MustCompile(`(\d+)\s*months?`)
	weeksPattern  = regexp.MustCompile(`(\d+)\s*weeks?`)
	daysPattern   = regexp.MustCompile(`(\d+)\s*(?:-\s*\d+\s*)?(?:days?|nights?)`)
	numberPattern = regexp.MustCompile(`^\s*(\d+)\s*$`)
)

// ParseDuration reads a trip length in days: "Weekend" is 3, "1 week" 7,
// "2 weeks" 14, "a month" 30, "10 days" 10.
func ParseDuration(answer string) (int, bool) {
	a := strings.ToLower(strings.TrimSpace(answer))
	if a == "" {
		return 0, false
	}
	if strings.Contains(a, "weekend") {
		return 3, true
	}
	if m := monthsPattern.FindStringSubmatch(a); m != nil {
		return atoi(m[1]) * 30, true
	}
	if strings.Contains(a, "month") {
		return 30, true
	}
	if m := weeksPattern.FindStringSubmatch(a); m != nil {
		return atoi(m[1]) * 7, true
	}
	if strings.Contains(a, "week") {
		return 7, true
	}
	if m := daysPattern.FindStringSubmatch(a); m != nil {
		return atoi(m[1]), true
	}
	if m := numberPattern.FindStringSubmatch(a); m != nil {
		return atoi(m[1]), true
	}
	return 0, false
}

// budgetReadable reports whether the first non-empty value parses as a budget.
// That is the value Preferences will read.
func budgetReadable(values []string) bool {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			_, ok := ParseBudget(v)
			return ok
		}
	}
	return false
}

// readableBudgets keeps the options ParseBudget understands.
func readableBudgets(options []string) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		if _, ok := ParseBudget(opt); ok {
			out = append(out, opt)
		}
	}
	return out
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// TierFor classifies a total budget by its per-day amount. Without a known
// duration a one-week trip is assumed.
func TierFor(total float64, days int) Tier {
	if total <= 0 {
		return TierUnknown
	}
	// "Under $1,000" parses to exactly the threshold
	if total <= budgetTierTotal {
		return TierBudget
	}
	if days <= 0 {
		days = assumedTripLength
	}
	perDay := total / float64(days)
	switch {
	case perDay < budgetTierPerDay:
		return TierBudget
	case perDay > luxuryTierPerDay:
		return TierLuxury
	default:
		return TierMid
	}
}
