// Package scoring computes the fixed-weight composite destination score.
package scoring

import (
	"math"

	"creator-trips/internal/models"
)

// Neutral is substituted for any missing or invalid signal.
const Neutral = 0.5

// Weight is one signal's fixed share of the composite score.
type Weight struct {
	Signal string
	Value  float64
}

// Weights are never renormalized when signals are missing.
var Weights = []Weight{
	{models.SignalQlooAffinity, 0.45},
	{models.SignalCommunityEngagement, 0.25},
	{models.SignalBrandCollaboration, 0.15},
	{models.SignalBudgetAlignment, 0.10},
	{models.SignalLocalCreator, 0.05},
}

// Result is the outcome of scoring one signal set.
type Result struct {
	Signals        map[string]float64
	MissingSignals []string
	TotalScore     float64
	MatchScore     int
}

// Sanitize returns v when it is a finite value in [0,1], otherwise Neutral
// and false.
func Sanitize(v *float64) (float64, bool) {
	if v == nil {
		return Neutral, false
	}
	x := *v
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 || x > 1 {
		return Neutral, false
	}
	return x, true
}

// Score sanitizes every signal, applies the weights and derives the 0-100
// match score.
func Score(signals models.ScoringSignals) Result {
	raw := map[string]*float64{
		models.SignalQlooAffinity:        signals.QlooAffinity,
		models.SignalCommunityEngagement: signals.CommunityEngagement,
		models.SignalBrandCollaboration:  signals.BrandCollaboration,
		models.SignalBudgetAlignment:     signals.BudgetAlignment,
		models.SignalLocalCreator:        signals.LocalCreator,
	}

	res := Result{Signals: make(map[string]float64, len(Weights))}
	var total float64
	for _, w := range Weights {
		v, ok := Sanitize(raw[w.Signal])
		if !ok {
			res.MissingSignals = append(res.MissingSignals, w.Signal)
		}
		res.Signals[w.Signal] = v
		total += v * w.Value
	}

	res.TotalScore = sanitizeTotal(total)
	res.MatchScore = MatchScore(res.TotalScore)
	return res
}

func sanitizeTotal(total float64) float64 {
	switch {
	case math.IsNaN(total) || math.IsInf(total, 0):
		return Neutral
	case total < 0:
		return 0
	case total > 1:
		return 1
	}
	return total
}

// MatchScore converts a total score to a clamped integer percentage.
func MatchScore(total float64) int {
	pct := total * 100
	if math.IsNaN(pct) {
		return int(Neutral * 100)
	}
	return int(math.Round(math.Max(0, math.Min(100, pct))))
}

// EngagementSignal normalizes raw engagement metrics into [0,1]. A 10%
// engagement rate, a million average views or ten million reach each saturate
// their component.
func EngagementSignal(m *models.EngagementMetrics) *float64 {
	if m == nil {
		return nil
	}
	rate := saturate(m.Rate / 0.10)
	views := saturate(math.Log10(math.Max(m.AvgViews, 0)+1) / 6)
	reach := saturate(math.Log10(math.Max(m.Reach, 0)+1) / 7)
	activity := saturate(m.PlatformActivity)

	v := 0.4*rate + 0.2*views + 0.2*reach + 0.2*activity
	return &v
}

// BrandSignal normalizes brand-collaboration metrics into [0,1]; fifty active
// partners saturate the partner component.
func BrandSignal(m *models.BrandMetrics) *float64 {
	if m == nil {
		return nil
	}
	partners := saturate(float64(m.PartnerCount) / 50)
	v := 0.3*partners + 0.4*saturate(m.AlignmentScore) + 0.15*saturate(m.MarketSize) + 0.15*saturate(m.SeasonalDemand)
	return &v
}

// saturate clamps to [0,1] and maps NaN to 0 so one bad field cannot poison
// an otherwise valid metric group.
func saturate(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
