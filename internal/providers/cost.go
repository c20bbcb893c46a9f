package providers

import (
	"context"
	stderrs "errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"creator-trips/internal/capability"
	"creator-trips/internal/common/config"
	httpclient "creator-trips/internal/common/http"
	"creator-trips/internal/models"
	"creator-trips/internal/recommendation/budget"
)

// CostSourceAmadeus marks estimates priced by the travel API.
const CostSourceAmadeus = "amadeus"

// Live prices are tighter than the heuristic bands.
const liveSpread = 0.10

// CostClient prices a trip through the Amadeus self-service APIs. It holds an
// OAuth2 client-credentials token and refreshes it on expiry or 401.
type CostClient struct {
	base

	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

func NewCostClient(cfg config.ProviderConfig, opts Options) *CostClient {
	return &CostClient{
		base: newBase(capability.Amadeus, cfg, "", opts),
		now:  time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type price struct {
	Total string `json:"total"`
}

type tripCostResponse struct {
	Data struct {
		FlightPerTraveler price `json:"flightPerTraveler"`
		HotelPerNight     price `json:"hotelPerNight"`
		DailyLiving       struct {
			Meals      float64 `json:"meals"`
			Transport  float64 `json:"transport"`
			Activities float64 `json:"activities"`
			Misc       float64 `json:"misc"`
		} `json:"dailyLiving"`
		Currency string `json:"currency"`
	} `json:"data"`
}

// Estimate prices the trip for the preferences' party size and duration.
func (c *CostClient) Estimate(ctx context.Context, destination, country string, prefs models.UserPreferences) (*models.CostEstimate, error) {
	q := url.Values{}
	q.Set("destination", destination)
	if country != "" {
		q.Set("countryCode", country)
	}
	q.Set("adults", strconv.Itoa(prefs.TravelerCount()))
	q.Set("nights", strconv.Itoa(prefs.Nights()))
	q.Set("currencyCode", prefs.Currency())
	endpoint := c.baseURL + "/v1/travel/trip-cost?" + q.Encode()

	var resp tripCostResponse
	key := cacheKey(c.name, destination, country, q.Get("adults"), q.Get("nights"), q.Get("currencyCode"))
	err := c.cached(ctx, key, &resp, func(ctx context.Context) error {
		return c.authorizedGet(ctx, endpoint, &resp)
	})
	if err != nil {
		return nil, err
	}
	return c.toEstimate(resp, prefs)
}

func (c *CostClient) toEstimate(resp tripCostResponse, prefs models.UserPreferences) (*models.CostEstimate, error) {
	flights, err := parsePrice(resp.Data.FlightPerTraveler)
	if err != nil {
		return nil, c.wrap(fmt.Errorf("flight price: %w", err))
	}
	hotel, err := parsePrice(resp.Data.HotelPerNight)
	if err != nil {
		return nil, c.wrap(fmt.Errorf("hotel price: %w", err))
	}
	if flights == 0 && hotel == 0 {
		return nil, c.wrap(ErrNoData)
	}

	d := resp.Data.DailyLiving
	breakdown := models.CostBreakdown{
		Meals:      d.Meals,
		Transport:  d.Transport,
		Activities: d.Activities,
		Misc:       d.Misc,
	}
	daily := d.Meals + d.Transport + d.Activities + d.Misc
	total := budget.EstimateTripCost(flights, hotel, prefs.TravelerCount(), prefs.Nights(), daily)

	currency := resp.Data.Currency
	if currency == "" {
		currency = prefs.Currency()
	}
	return &models.CostEstimate{
		FlightsPerTraveler:    flights,
		AccommodationPerNight: hotel,
		DailyLiving:           daily,
		Breakdown:             breakdown,
		MinTotal:              math.Round(total * (1 - liveSpread)),
		MaxTotal:              math.Round(total * (1 + liveSpread)),
		Total:                 total,
		Currency:              currency,
		Source:                CostSourceAmadeus,
	}, nil
}

func parsePrice(p price) (float64, error) {
	if p.Total == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(p.Total, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid amount %q", p.Total)
	}
	return v, nil
}

// authorizedGet retries once with a fresh token when the current one is rejected.
func (c *CostClient) authorizedGet(ctx context.Context, endpoint string, out interface{}) error {
	for attempt := 0; ; attempt++ {
		token, err := c.accessToken(ctx)
		if err != nil {
			return fmt.Errorf("token: %w", err)
		}
		err = c.http.GetJSON(ctx, endpoint, map[string]string{"Authorization": "Bearer " + token}, out)
		var se *httpclient.StatusError
		if attempt == 0 && stderrs.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
			c.invalidate()
			continue
		}
		return err
	}
}

func (c *CostClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expires) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.cfg.APIKey)
	form.Set("client_secret", c.cfg.APISecret)

	var tok tokenResponse
	if err := c.http.PostForm(ctx, c.baseURL+"/v1/security/oauth2/token", form, &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", stderrs.New("empty access token")
	}

	// refresh a minute early
	ttl := time.Duration(tok.ExpiresIn)*time.Second - time.Minute
	if ttl < 0 {
		ttl = 0
	}
	c.token = tok.AccessToken
	c.expires = c.now().Add(ttl)
	return c.token, nil
}

func (c *CostClient) invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}
