package capability

import (
	"math"
	"strings"

	"creator-trips/internal/common/logger"
	"creator-trips/internal/common/metrics"
	"creator-trips/internal/models"
	"creator-trips/internal/recommendation/budget"
)

// Fallback reasons.
const (
	ReasonDisabled   = "disabled"
	ReasonCallFailed = "call_failed"
	ReasonNoData     = "no_data"
	ReasonDeadline   = "deadline"
)

const (
	CostSourceHeuristic = "heuristic"

	tasteBase     = 0.5
	tasteStep     = 0.1
	tasteCap      = 0.8
	costSpreadPct = 0.15
)

// CostTier is a regional price level used when no live cost data exists.
// Amounts are in USD.
type CostTier struct {
	Name                  string
	FlightsPerTraveler    float64
	AccommodationPerNight float64
	DailyPerPerson        float64
}

var (
	TierLow    = CostTier{"low", 900, 45, 40}
	TierMedium = CostTier{"medium", 800, 110, 90}
	TierHigh   = CostTier{"high", 1100, 220, 160}
)

var countryTiers = map[string]CostTier{
	"thailand": TierLow, "vietnam": TierLow, "indonesia": TierLow, "india": TierLow,
	"mexico": TierLow, "colombia": TierLow, "peru": TierLow, "morocco": TierLow,
	"cambodia": TierLow, "philippines": TierLow, "nepal": TierLow, "egypt": TierLow,
	"turkey": TierLow, "bolivia": TierLow, "guatemala": TierLow, "sri lanka": TierLow,

	"switzerland": TierHigh, "norway": TierHigh, "iceland": TierHigh, "japan": TierHigh,
	"singapore": TierHigh, "united states": TierHigh, "usa": TierHigh, "australia": TierHigh,
	"denmark": TierHigh, "united kingdom": TierHigh, "uk": TierHigh, "maldives": TierHigh,
	"new zealand": TierHigh,
}

// Assumed creator totals per regional tier, used only for listed countries.
var estimatedCreators = map[string]int{
	TierLow.Name:    8,
	TierMedium.Name: 12,
	TierHigh.Name:   16,
}

var focusKeywords = map[string][]string{
	"food":        {"food", "culinary", "street food", "market", "cuisine", "wine"},
	"adventure":   {"adventure", "hiking", "outdoor", "trek", "diving", "surf"},
	"culture":     {"culture", "history", "museum", "architecture", "temple", "art"},
	"photography": {"scenic", "landscape", "photography", "architecture", "sunset", "wildlife"},
	"nightlife":   {"nightlife", "bars", "music", "festival", "club"},
	"wellness":    {"wellness", "spa", "yoga", "retreat", "hot spring"},
	"beach":       {"beach", "island", "coast", "snorkel", "surf"},
	"lifestyle":   {"cafe", "design", "shopping", "fashion", "urban"},
}

// Resolver returns deterministic substitutes for data a provider could not
// supply. Every substitution is counted and logged.
type Resolver struct {
	matrix *Matrix
	log    logger.Logger
}

func NewResolver(matrix *Matrix, log logger.Logger) *Resolver {
	return &Resolver{
		matrix: matrix,
		log:    log.WithFields(map[string]interface{}{"component": "fallback-resolver"}),
	}
}

// Matrix exposes the capability matrix the resolver was built with.
func (r *Resolver) Matrix() *Matrix {
	return r.matrix
}

// Reason picks the fallback reason for a provider: disabled when the matrix
// says so, otherwise the supplied reason.
func (r *Resolver) Reason(provider, otherwise string) string {
	if !r.matrix.Enabled(provider) {
		return ReasonDisabled
	}
	return otherwise
}

func (r *Resolver) record(provider, reason, subject string) {
	metrics.ProviderFallbacks.WithLabelValues(provider, reason).Inc()
	r.log.Debug("provider fallback used", map[string]interface{}{
		"provider": provider,
		"reason":   reason,
		"strategy": r.matrix.Status(provider).Fallback,
		"subject":  subject,
	})
}

// TasteAffinity derives an affinity from the overlap between the creator's
// content focus and the destination tags: 0.5 plus 0.1 per matched keyword,
// at most 0.8.
func (r *Resolver) TasteAffinity(reason, destination, contentFocus string, tags []string) *float64 {
	r.record(Qloo, reason, destination)

	v := tasteBase
	matched := 0
	for _, kw := range keywordsFor(contentFocus) {
		for _, tag := range tags {
			if strings.Contains(strings.ToLower(tag), kw) {
				matched++
				break
			}
		}
	}
	v = math.Min(tasteCap, v+float64(matched)*tasteStep)
	return &v
}

func keywordsFor(contentFocus string) []string {
	focus := strings.ToLower(strings.TrimSpace(contentFocus))
	if focus == "" {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	for key, kws := range focusKeywords {
		if strings.Contains(focus, key) {
			for _, kw := range kws {
				if !seen[kw] {
					seen[kw] = true
					out = append(out, kw)
				}
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, w := range strings.FieldsFunc(focus, func(r rune) bool { return r == ' ' || r == ',' || r == '/' || r == '&' }) {
		if len(w) > 2 && !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

// TierFor returns the regional cost tier for a country; unknown countries
// are priced as medium.
func TierFor(country string) CostTier {
	if t, ok := countryTiers[strings.ToLower(strings.TrimSpace(country))]; ok {
		return t
	}
	return TierMedium
}

// CostEstimate builds a heuristic estimate from the regional tier using the
// standard trip-cost formula, with a ±15% band.
func (r *Resolver) CostEstimate(reason, destination, country string, prefs models.UserPreferences) *models.CostEstimate {
	r.record(Amadeus, reason, destination)

	tier := TierFor(country)
	total := budget.EstimateTripCost(tier.FlightsPerTraveler, tier.AccommodationPerNight,
		prefs.TravelerCount(), prefs.Nights(), tier.DailyPerPerson)

	d := tier.DailyPerPerson
	return &models.CostEstimate{
		FlightsPerTraveler:    tier.FlightsPerTraveler,
		AccommodationPerNight: tier.AccommodationPerNight,
		DailyLiving:           d,
		Breakdown: models.CostBreakdown{
			Meals:      d * 0.40,
			Transport:  d * 0.20,
			Activities: d * 0.25,
			Misc:       d * 0.15,
		},
		MinTotal: math.Round(total * (1 - costSpreadPct)),
		MaxTotal: math.Round(total * (1 + costSpreadPct)),
		Total:    total,
		Currency: "USD",
		Source:   CostSourceHeuristic,
	}
}

// Engagement has no heuristic; scoring substitutes the neutral value.
func (r *Resolver) Engagement(reason, destination string) *models.EngagementMetrics {
	r.record(Instagram, reason, destination)
	return nil
}

// Brand has no heuristic; scoring substitutes the neutral value.
func (r *Resolver) Brand(reason, destination string) *models.BrandMetrics {
	r.record(Instagram, reason, destination)
	return nil
}

// Creators marks a reported total as an estimate so gating applies the
// estimated active fraction. Without a reported total the count comes from
// the country's regional tier; unlisted countries get nil.
func (r *Resolver) Creators(reason, destination, country string, reported int) *models.CreatorData {
	r.record(YouTube, reason, destination)
	if reported <= 0 {
		reported = EstimatedCreators(country)
	}
	if reported <= 0 {
		return nil
	}
	return &models.CreatorData{
		TotalReported: reported,
		DataSource:    models.CreatorSourceEstimate,
	}
}

// EstimatedCreators is the assumed reported creator total for a country, or
// 0 when the country has no regional tier.
func EstimatedCreators(country string) int {
	t, ok := countryTiers[strings.ToLower(strings.TrimSpace(country))]
	if !ok {
		return 0
	}
	return estimatedCreators[t.Name]
}

// Events are omitted entirely.
func (r *Resolver) Events(reason, destination string) []string {
	r.record(Places, reason, destination)
	return nil
}
