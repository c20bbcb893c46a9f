package providers

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"creator-trips/internal/capability"
	"creator-trips/internal/common/config"
	"creator-trips/internal/models"
)

const (
	youtubeBaseURL  = "https://www.googleapis.com/youtube/v3"
	searchPageSize  = 50
	creatorLookback = 90 * 24 * time.Hour
)

// CreatorClient finds local creators for a destination from recent YouTube
// uploads, then looks up channel statistics for the uploaders.
type CreatorClient struct {
	base
	now func() time.Time
}

func NewCreatorClient(cfg config.ProviderConfig, opts Options) *CreatorClient {
	return &CreatorClient{
		base: newBase(capability.YouTube, cfg, youtubeBaseURL, opts),
		now:  time.Now,
	}
}

type searchResponse struct {
	PageInfo struct {
		TotalResults int `json:"totalResults"`
	} `json:"pageInfo"`
	Items []struct {
		Snippet struct {
			ChannelID    string    `json:"channelId"`
			ChannelTitle string    `json:"channelTitle"`
			PublishedAt  time.Time `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

type channelsResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			SubscriberCount       string `json:"subscriberCount"`
			HiddenSubscriberCount bool   `json:"hiddenSubscriberCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type channelActivity struct {
	title string
	last  time.Time
	posts int
}

// Creators returns the verified creator list for the destination.
func (c *CreatorClient) Creators(ctx context.Context, destination, country string) (*models.CreatorData, error) {
	var data models.CreatorData
	key := cacheKey(c.name, destination, country)
	err := c.cached(ctx, key, &data, func(ctx context.Context) error {
		fetched, err := c.fetch(ctx, destination, country)
		if err != nil {
			return err
		}
		data = *fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *CreatorClient) fetch(ctx context.Context, destination, country string) (*models.CreatorData, error) {
	subject := destination
	if country != "" {
		subject += " " + country
	}
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("q", subject+" travel vlog")
	q.Set("maxResults", strconv.Itoa(searchPageSize))
	q.Set("order", "date")
	q.Set("publishedAfter", c.now().Add(-creatorLookback).UTC().Format(time.RFC3339))
	q.Set("key", c.cfg.APIKey)

	var search searchResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/search?"+q.Encode(), nil, &search); err != nil {
		return nil, err
	}

	byChannel := make(map[string]*channelActivity)
	for _, item := range search.Items {
		s := item.Snippet
		if s.ChannelID == "" {
			continue
		}
		a, ok := byChannel[s.ChannelID]
		if !ok {
			a = &channelActivity{title: s.ChannelTitle}
			byChannel[s.ChannelID] = a
		}
		a.posts++
		if s.PublishedAt.After(a.last) {
			a.last = s.PublishedAt
		}
	}
	if len(byChannel) == 0 {
		return &models.CreatorData{DataSource: models.CreatorSourceYouTube}, nil
	}

	ids := make([]string, 0, len(byChannel))
	for id := range byChannel {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	followers, err := c.subscribers(ctx, ids)
	if err != nil {
		return nil, err
	}

	records := make([]models.CreatorRecord, 0, len(ids))
	for _, id := range ids {
		a := byChannel[id]
		last := a.last
		posts := a.posts
		records = append(records, models.CreatorRecord{
			Name:            a.title,
			Platform:        "youtube",
			Followers:       followers[id],
			LastPostAt:      &last,
			PostsLast90Days: &posts,
		})
	}
	return &models.CreatorData{
		TotalReported: len(records),
		Creators:      records,
		DataSource:    models.CreatorSourceYouTube,
	}, nil
}

func (c *CreatorClient) subscribers(ctx context.Context, ids []string) (map[string]int, error) {
	q := url.Values{}
	q.Set("part", "statistics")
	q.Set("id", strings.Join(ids, ","))
	q.Set("key", c.cfg.APIKey)

	var resp channelsResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/channels?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]int, len(resp.Items))
	for _, item := range resp.Items {
		if item.Statistics.HiddenSubscriberCount {
			continue
		}
		n, err := strconv.Atoi(item.Statistics.SubscriberCount)
		if err != nil {
			continue
		}
		out[item.ID] = n
	}
	return out, nil
}
