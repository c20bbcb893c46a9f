// internal/models/destination.go
package models

import "time"

// CandidateDestination carries the raw per-destination signals gathered by the
// enrichment step. Every signal group is optional: nil means the provider was
// disabled or failed.
type CandidateDestination struct {
	Name          string             `json:"name"`
	Country       string             `json:"country"`
	Tags          []string           `json:"tags,omitempty"`
	TasteAffinity *float64           `json:"tasteAffinity,omitempty"`
	Engagement    *EngagementMetrics `json:"engagement,omitempty"`
	Brand         *BrandMetrics      `json:"brand,omitempty"`
	Cost          *CostEstimate      `json:"cost,omitempty"`
	Creators      *CreatorData       `json:"creators,omitempty"`
	Highlights    []string           `json:"highlights,omitempty"`
}

// EngagementMetrics describes social engagement for content about a destination.
type EngagementMetrics struct {
	Rate             float64 `json:"rate"` // fraction, 0.05 == 5%
	AvgViews         float64 `json:"avgViews"`
	Reach            float64 `json:"reach"`
	PlatformActivity float64 `json:"platformActivity"` // 0-1
}

// BrandMetrics describes brand-collaboration potential.
type BrandMetrics struct {
	PartnerCount   int     `json:"partnerCount"`
	AlignmentScore float64 `json:"alignmentScore"` // 0-1
	MarketSize     float64 `json:"marketSize"`     // 0-1
	SeasonalDemand float64 `json:"seasonalDemand"` // 0-1
}

// CostBreakdown splits daily living costs.
type CostBreakdown struct {
	Meals      float64 `json:"meals"`
	Transport  float64 `json:"transport"`
	Activities float64 `json:"activities"`
	Misc       float64 `json:"misc"`
}

// CostEstimate is a trip cost estimate for one destination.
type CostEstimate struct {
	FlightsPerTraveler    float64       `json:"flightsPerTraveler"`
	AccommodationPerNight float64       `json:"accommodationPerNight"`
	DailyLiving           float64       `json:"dailyLiving"`
	Breakdown             CostBreakdown `json:"breakdown"`
	MinTotal              float64       `json:"minTotal,omitempty"`
	MaxTotal              float64       `json:"maxTotal,omitempty"`
	Total                 float64       `json:"total,omitempty"`
	Currency              string        `json:"currency,omitempty"`
	Source                string        `json:"source,omitempty"`
}

// Creator data sources. Verified sources list real accounts; everything else
// is treated as an estimate.
const (
	CreatorSourceYouTube   = "youtube_api"
	CreatorSourceInstagram = "instagram_api"
	CreatorSourceVerified  = "verified"
	CreatorSourceEstimate  = "estimate"
)

// CreatorData is the raw local-creator community for a destination.
type CreatorData struct {
	TotalReported int             `json:"totalReported"`
	Creators      []CreatorRecord `json:"creators,omitempty"`
	DataSource    string          `json:"dataSource"`
}

// IsVerified reports whether the creator list came from a platform API.
func (c CreatorData) IsVerified() bool {
	switch c.DataSource {
	case CreatorSourceYouTube, CreatorSourceInstagram, CreatorSourceVerified:
		return true
	}
	return false
}

// CreatorRecord is a single creator; only used to decide activity.
type CreatorRecord struct {
	Name            string     `json:"name"`
	Platform        string     `json:"platform"`
	Followers       int        `json:"followers"`
	LastPostAt      *time.Time `json:"lastPostAt,omitempty"`
	PostsLast90Days *int       `json:"postsLast90Days,omitempty"`
}
