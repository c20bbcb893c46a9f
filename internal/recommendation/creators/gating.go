// Package creators decides whether a destination has enough active local
// creators to surface a collaboration block.
package creators

import (
	"fmt"
	"math"
	"time"

	"creator-trips/internal/models"
)

const (
	MinFollowers      = 1000
	MaxDaysSincePost  = 90
	MinPostsLast90    = 5
	ReasonUnavailable = "creator data unavailable"
)

// Tier is one linear segment of the collaboration curve, starting at From
// active creators.
type Tier struct {
	From  int
	Base  float64
	Slope float64
}

// Curve maps an active creator count to a collaboration score. Breakpoints
// are tunable.
type Curve struct {
	MinActive int
	Tiers     []Tier // ascending by From
	Max       float64
}

// DefaultCurve: 0.5 at two creators, 0.65 at five, 0.95 at fifteen, capped at 1.
var DefaultCurve = Curve{
	MinActive: 2,
	Tiers: []Tier{
		{From: 2, Base: 0.50, Slope: 0.05},
		{From: 6, Base: 0.68, Slope: 0.03},
		{From: 16, Base: 0.96, Slope: 0.01},
	},
	Max: 1.0,
}

// Score returns 0 below MinActive, else the value of the tier active falls in.
func (c Curve) Score(active int) float64 {
	if active < c.MinActive || len(c.Tiers) == 0 {
		return 0
	}
	tier := c.Tiers[0]
	for _, t := range c.Tiers {
		if active >= t.From {
			tier = t
		}
	}
	return math.Min(c.Max, tier.Base+float64(active-tier.From)*tier.Slope)
}

// Gater evaluates creator data against a reference clock.
type Gater struct {
	Curve Curve
	Now   func() time.Time
}

func NewGater() *Gater {
	return &Gater{Curve: DefaultCurve, Now: time.Now}
}

// IsActive applies the follower, recency and posting-frequency thresholds.
// Unknown recency or frequency does not disqualify a creator.
func IsActive(c models.CreatorRecord, now time.Time) bool {
	if c.Followers < MinFollowers {
		return false
	}
	if c.LastPostAt != nil && now.Sub(*c.LastPostAt) > MaxDaysSincePost*24*time.Hour {
		return false
	}
	if c.PostsLast90Days != nil && *c.PostsLast90Days < MinPostsLast90 {
		return false
	}
	return true
}

// ActiveCount derives the number of active creators. Verified sources are
// filtered record by record; estimates apply a fixed fraction of the reported
// total.
func ActiveCount(data models.CreatorData, now time.Time) int {
	if data.IsVerified() {
		n := 0
		for _, c := range data.Creators {
			if IsActive(c, now) {
				n++
			}
		}
		return n
	}

	reported := data.TotalReported
	if reported <= 0 {
		return 0
	}
	active := int(math.Floor(float64(reported) * EstimateRatio(reported)))
	if active > reported {
		active = reported
	}
	if listed := len(data.Creators); listed > 0 && active > listed {
		active = listed
	}
	return active
}

// EstimateRatio is the assumed active fraction for a reported total. It lies
// in [0.6, 0.8] and depends only on the count so results are reproducible.
func EstimateRatio(reported int) float64 {
	h := uint32(reported) * 2654435761
	return 0.6 + 0.2*float64(h%1001)/1000
}

// Gate builds the gating result. Nil data hides the block.
func (g *Gater) Gate(data *models.CreatorData) models.CreatorGatingResult {
	if data == nil {
		return models.CreatorGatingResult{Reason: ReasonUnavailable}
	}

	active := ActiveCount(*data, g.Now())
	res := models.CreatorGatingResult{
		ActiveCreatorCount: active,
		DataAvailable:      true,
	}
	if active < g.Curve.MinActive {
		res.Reason = fewCreatorsReason(active, g.Curve.MinActive)
		return res
	}

	res.ShouldShowCollaboration = true
	res.CollaborationScore = g.Curve.Score(active)
	return res
}

func fewCreatorsReason(active, minActive int) string {
	if active == 1 {
		return fmt.Sprintf("only 1 active creator (minimum %d)", minActive)
	}
	return fmt.Sprintf("only %d active creators (minimum %d)", active, minActive)
}
