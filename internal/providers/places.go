package providers

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"creator-trips/internal/capability"
	"creator-trips/internal/common/config"
)

const (
	placesBaseURL = "https://maps.googleapis.com/maps/api/place"
	maxHighlights = 5
)

// PlacesClient looks up things to do at a destination.
type PlacesClient struct {
	base
}

func NewPlacesClient(cfg config.ProviderConfig, opts Options) *PlacesClient {
	return &PlacesClient{base: newBase(capability.Places, cfg, placesBaseURL, opts)}
}

type textSearchResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Name        string  `json:"name"`
		Rating      float64 `json:"rating"`
		RatingCount int     `json:"user_ratings_total"`
	} `json:"results"`
}

// Highlights returns up to five attraction names, best rated first.
func (c *PlacesClient) Highlights(ctx context.Context, destination, country string) ([]string, error) {
	query := "things to do in " + destination
	if country != "" {
		query += ", " + country
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("key", c.cfg.APIKey)
	endpoint := c.baseURL + "/textsearch/json?" + q.Encode()

	var resp textSearchResponse
	err := c.cached(ctx, cacheKey(c.name, destination, country), &resp, func(ctx context.Context) error {
		if err := c.http.GetJSON(ctx, endpoint, nil, &resp); err != nil {
			return err
		}
		switch resp.Status {
		case "OK", "ZERO_RESULTS":
			return nil
		default:
			return fmt.Errorf("places status %s: %s", resp.Status, resp.ErrorMessage)
		}
	})
	if err != nil {
		return nil, err
	}

	results := resp.Results
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Rating != results[j].Rating {
			return results[i].Rating > results[j].Rating
		}
		return results[i].RatingCount > results[j].RatingCount
	})

	var names []string
	for _, r := range results {
		if r.Name == "" {
			continue
		}
		names = append(names, r.Name)
		if len(names) == maxHighlights {
			break
		}
	}
	if len(names) == 0 {
		return nil, c.wrap(ErrNoData)
	}
	return names, nil
}
