package providers

import (
	"context"
	"net/url"
	"strings"
	"unicode"

	"creator-trips/internal/capability"
	"creator-trips/internal/common/config"
	"creator-trips/internal/models"
)

// SocialClient reads hashtag insights from an Instagram data API exposed
// through RapidAPI.
type SocialClient struct {
	base
	host string
}

func NewSocialClient(cfg config.ProviderConfig, opts Options) *SocialClient {
	b := newBase(capability.Instagram, cfg, "", opts)
	host := ""
	if u, err := url.Parse(b.baseURL); err == nil {
		host = u.Host
	}
	return &SocialClient{base: b, host: host}
}

// Insights are the social signals for one destination. Either part may be nil.
type Insights struct {
	Engagement *models.EngagementMetrics `json:"engagement,omitempty"`
	Brand      *models.BrandMetrics      `json:"brand,omitempty"`
}

type hashtagResponse struct {
	Data *struct {
		MediaCount     int64    `json:"media_count"`
		EngagementRate *float64 `json:"avg_engagement_rate"`
		AvgViews       float64  `json:"avg_views"`
		Reach          float64  `json:"reach"`
		ActivityIndex  float64  `json:"activity_index"`
		Brand          *struct {
			PartnerCount   int     `json:"partner_count"`
			Alignment      float64 `json:"alignment"`
			MarketSize     float64 `json:"market_size"`
			SeasonalDemand float64 `json:"seasonal_demand"`
		} `json:"brand"`
	} `json:"data"`
}

// Insights fetches engagement and brand metrics for the destination hashtag.
func (c *SocialClient) Insights(ctx context.Context, destination string) (*Insights, error) {
	tag := Hashtag(destination)
	if tag == "" {
		return nil, c.wrap(ErrNoData)
	}

	q := url.Values{}
	q.Set("hashtag", tag)
	endpoint := c.baseURL + "/v1/hashtag/insights?" + q.Encode()
	headers := map[string]string{
		"X-RapidAPI-Key":  c.cfg.APIKey,
		"X-RapidAPI-Host": c.host,
	}

	var resp hashtagResponse
	err := c.cached(ctx, cacheKey(c.name, tag), &resp, func(ctx context.Context) error {
		return c.http.GetJSON(ctx, endpoint, headers, &resp)
	})
	if err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.MediaCount == 0 {
		return nil, c.wrap(ErrNoData)
	}

	d := resp.Data
	out := &Insights{}
	if d.EngagementRate != nil {
		out.Engagement = &models.EngagementMetrics{
			Rate:             *d.EngagementRate,
			AvgViews:         d.AvgViews,
			Reach:            d.Reach,
			PlatformActivity: d.ActivityIndex,
		}
	}
	if d.Brand != nil {
		out.Brand = &models.BrandMetrics{
			PartnerCount:   d.Brand.PartnerCount,
			AlignmentScore: d.Brand.Alignment,
			MarketSize:     d.Brand.MarketSize,
			SeasonalDemand: d.Brand.SeasonalDemand,
		}
	}
	return out, nil
}

// Hashtag lowercases the name and strips everything but letters and digits.
func Hashtag(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
