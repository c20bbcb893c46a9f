package providers

import (
	"context"
	"net/url"
	"strings"

	"creator-trips/internal/capability"
	"creator-trips/internal/common/config"
)

const destinationEntity = "urn:entity:destination"

// TasteClient queries the Qloo insights API for destination affinity.
type TasteClient struct {
	base
}

func NewTasteClient(cfg config.ProviderConfig, opts Options) *TasteClient {
	return &TasteClient{base: newBase(capability.Qloo, cfg, "", opts)}
}

type insightsResponse struct {
	Success bool `json:"success"`
	Results struct {
		Entities []struct {
			Name  string `json:"name"`
			Query struct {
				Affinity *float64 `json:"affinity"`
			} `json:"query"`
		} `json:"entities"`
	} `json:"results"`
}

// Affinity returns how well the destination matches the creator's content
// focus, as reported by the taste graph. ErrNoData when the destination is
// unknown upstream.
func (c *TasteClient) Affinity(ctx context.Context, destination, contentFocus string, tags []string) (float64, error) {
	signals := interestTags(contentFocus, tags)

	q := url.Values{}
	q.Set("filter.type", destinationEntity)
	q.Set("filter.query", destination)
	q.Set("take", "1")
	if len(signals) > 0 {
		q.Set("signal.interests.tags", strings.Join(signals, ","))
	}
	endpoint := c.baseURL + "/v2/insights?" + q.Encode()
	headers := map[string]string{"X-Api-Key": c.cfg.APIKey}

	var resp insightsResponse
	key := cacheKey(c.name, destination, strings.Join(signals, ","))
	err := c.cached(ctx, key, &resp, func(ctx context.Context) error {
		return c.http.GetJSON(ctx, endpoint, headers, &resp)
	})
	if err != nil {
		return 0, err
	}

	for _, e := range resp.Results.Entities {
		if e.Query.Affinity != nil {
			return *e.Query.Affinity, nil
		}
	}
	return 0, c.wrap(ErrNoData)
}

// interestTags turns free-text focus and destination tags into normalized
// interest signals, deduplicated and in input order.
func interestTags(contentFocus string, tags []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, f := range strings.FieldsFunc(contentFocus, func(r rune) bool { return r == ',' || r == '/' || r == ';' }) {
		add(f)
	}
	for _, t := range tags {
		add(t)
	}
	return out
}
