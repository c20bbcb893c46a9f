// Package budget classifies estimated trip costs against a creator's target
// budget and reproduces the upstream trip-cost formula.
package budget

import (
	"fmt"
	"math"

	"creator-trips/internal/models"
)

const (
	AlignedLowerRatio = 0.85
	AlignedUpperRatio = 1.15
	StretchUpperRatio = 1.35

	activitiesShare = 0.20
	bufferShare     = 0.10
)

// ComputeBands derives the tolerance windows for a target budget.
func ComputeBands(targetBudget float64) models.BudgetBand {
	return models.BudgetBand{
		Target:     targetBudget,
		AlignedMin: targetBudget * AlignedLowerRatio,
		AlignedMax: targetBudget * AlignedUpperRatio,
		StretchMax: targetBudget * StretchUpperRatio,
	}
}

// tolerance absorbs float error in budget×ratio so that a cost exactly on a
// boundary lands inside it (3000×1.15 is 3449.9999999999995).
func tolerance(target float64) float64 {
	return 1e-9 * math.Max(1, math.Abs(target))
}

// Classify places estimatedTotal into Aligned, Stretch or Out-of-Band.
// Boundaries are inclusive; costs below the aligned window are still aligned.
func Classify(estimatedTotal, targetBudget float64) models.BudgetStatus {
	band := ComputeBands(targetBudget)
	eps := tolerance(targetBudget)

	level := models.BudgetOutOfBand
	switch {
	case estimatedTotal <= band.AlignedMax+eps:
		level = models.BudgetAligned
	case estimatedTotal <= band.StretchMax+eps:
		level = models.BudgetStretch
	}

	delta := DeltaPercent(estimatedTotal, targetBudget)
	return models.BudgetStatus{
		Level:          level,
		EstimatedTotal: estimatedTotal,
		DeltaPercent:   delta,
		Badge:          Badge(level, delta),
	}
}

// DeltaPercent is the rounded signed difference from the target in percent.
func DeltaPercent(estimatedTotal, targetBudget float64) int {
	if targetBudget <= 0 {
		return 0
	}
	return int(math.Round((estimatedTotal - targetBudget) / targetBudget * 100))
}

// Badge renders the display label, e.g. "Stretch (+17%)".
func Badge(level models.BudgetLevel, delta int) string {
	label := "Out of Budget"
	switch level {
	case models.BudgetAligned:
		label = "Aligned"
	case models.BudgetStretch:
		label = "Stretch"
	}
	return fmt.Sprintf("%s (%+d%%)", label, delta)
}

// EstimateTripCost must stay in step with the upstream cost estimator:
// rooms are shared by two, activities are 20% of daily spend and a 10% buffer
// is added on top of everything.
func EstimateTripCost(flightsPerTraveler, accommodationPerRoomPerNight float64, travelerCount, nights int, dailyPerPersonBudget float64) float64 {
	if travelerCount < 1 {
		travelerCount = 1
	}
	if nights < 0 {
		nights = 0
	}

	rooms := math.Ceil(float64(travelerCount) / 2)
	flights := flightsPerTraveler * float64(travelerCount)
	accommodation := accommodationPerRoomPerNight * rooms * float64(nights)
	daily := dailyPerPersonBudget * float64(travelerCount) * float64(nights)
	activities := daily * activitiesShare
	buffer := (flights + accommodation + daily + activities) * bufferShare

	return math.Round(flights + accommodation + daily + activities + buffer)
}

// EstimatedTotal picks the best total available on a cost estimate: an explicit
// total, then the min/max midpoint, then the component formula.
func EstimatedTotal(cost models.CostEstimate, prefs models.UserPreferences) (float64, bool) {
	switch {
	case validAmount(cost.Total) && cost.Total > 0:
		return cost.Total, true
	case validAmount(cost.MinTotal) && validAmount(cost.MaxTotal) && cost.MaxTotal > 0:
		return math.Round((cost.MinTotal + cost.MaxTotal) / 2), true
	}

	if !validAmount(cost.FlightsPerTraveler) || !validAmount(cost.AccommodationPerNight) || !validAmount(cost.DailyLiving) {
		return 0, false
	}
	if cost.FlightsPerTraveler == 0 && cost.AccommodationPerNight == 0 && cost.DailyLiving == 0 {
		return 0, false
	}

	daily := cost.DailyLiving
	if daily == 0 {
		b := cost.Breakdown
		daily = b.Meals + b.Transport + b.Activities + b.Misc
	}
	return EstimateTripCost(cost.FlightsPerTraveler, cost.AccommodationPerNight,
		prefs.TravelerCount(), prefs.Nights(), daily), true
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Assessed pairs a destination with its budget classification.
type Assessed struct {
	Destination models.CandidateDestination
	Status      models.BudgetStatus
}

// FilterByBudget drops every Out-of-Band destination. Destinations without a
// usable cost estimate are returned in unpriced so the caller can decide.
func FilterByBudget(destinations []models.CandidateDestination, prefs models.UserPreferences) (kept, excluded []Assessed, unpriced []models.CandidateDestination) {
	target := prefs.Budget.Amount
	for _, d := range destinations {
		if d.Cost == nil {
			unpriced = append(unpriced, d)
			continue
		}
		total, ok := EstimatedTotal(*d.Cost, prefs)
		if !ok {
			unpriced = append(unpriced, d)
			continue
		}

		a := Assessed{Destination: d, Status: Classify(total, target)}
		if a.Status.Level == models.BudgetOutOfBand {
			excluded = append(excluded, a)
			continue
		}
		kept = append(kept, a)
	}
	return kept, excluded, unpriced
}

// AlignmentSignal maps a status to the budgetAlignment scoring signal in [0,1].
// Aligned costs score 0.8–1.0 (closer to target is better), Stretch 0.3–0.6.
func AlignmentSignal(status models.BudgetStatus) float64 {
	abs := math.Abs(float64(status.DeltaPercent))
	switch status.Level {
	case models.BudgetAligned:
		return 1.0 - 0.2*math.Min(abs/15, 1)
	case models.BudgetStretch:
		over := math.Max(float64(status.DeltaPercent)-15, 0)
		return 0.6 - 0.3*math.Min(over/20, 1)
	default:
		return 0
	}
}
