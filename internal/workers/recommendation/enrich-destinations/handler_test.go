// internal/workers/recommendation/enrich-destinations/handler_test.go
package enrichdestinations

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"creator-trips/internal/capability"
	"creator-trips/internal/common/config"
	"creator-trips/internal/common/errors"
	"creator-trips/internal/common/logger"
	"creator-trips/internal/models"
	"creator-trips/internal/providers"
	"creator-trips/internal/recommendation/creators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func createTestConfig() *Config {
	return &Config{
		Timeout:            5 * time.Second,
		DestinationTimeout: time.Second,
		Concurrency:        4,
	}
}

func newTestHandler(t *testing.T, sources Sources) *Handler {
	log := &testLogger{t: t}
	resolver := capability.NewResolver(capability.NewMatrix(config.ProvidersConfig{}), log)
	return NewHandler(createTestConfig(), sources, resolver, nil, log)
}

func testPrefs() models.UserPreferences {
	return models.UserPreferences{
		Budget:       models.Money{Amount: 3000, Currency: "USD"},
		DurationDays: 7,
		ContentFocus: "food",
	}
}

func ptr(v float64) *float64 { return &v }

type stubTaste struct{ scores map[string]float64 }

func (s stubTaste) Affinity(_ context.Context, destination, _ string, _ []string) (float64, error) {
	v, ok := s.scores[destination]
	if !ok {
		return 0, errors.NewProviderCallFailedError(capability.Qloo, providers.ErrNoData)
	}
	return v, nil
}

type failingCost struct{}

func (failingCost) Estimate(context.Context, string, string, models.UserPreferences) (*models.CostEstimate, error) {
	return nil, errors.NewProviderTimeoutError(capability.Amadeus, context.DeadlineExceeded)
}

type stubCreators struct{}

func (stubCreators) Creators(_ context.Context, destination, _ string) (*models.CreatorData, error) {
	return &models.CreatorData{TotalReported: 3, DataSource: models.CreatorSourceYouTube}, nil
}

type stubSocial struct{ in *providers.Insights }

func (s stubSocial) Insights(context.Context, string) (*providers.Insights, error) {
	return s.in, nil
}

type stubEvents struct{}

func (stubEvents) Highlights(_ context.Context, destination, _ string) ([]string, error) {
	return []string{destination + " old town"}, nil
}

func fallbacksFor(out *Output, destination string) map[string]string {
	got := make(map[string]string)
	for _, f := range out.Fallbacks {
		if f.Destination == destination {
			got[f.Provider] = f.Reason
		}
	}
	return got
}

// ==========================
// Execute
// ==========================

func TestExecute_AllProvidersDisabled(t *testing.T) {
	h := newTestHandler(t, Sources{})

	out, err := h.Execute(context.Background(), &Input{
		Preferences: testPrefs(),
		Destinations: []models.CandidateDestination{
			{Name: "Lisbon", Country: "Portugal", Tags: []string{"food", "coast"}},
			{Name: "Chiang Mai", Country: "Thailand"},
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Destinations, 2)

	lisbon := out.Destinations[0]
	assert.Equal(t, "Lisbon", lisbon.Name)
	require.NotNil(t, lisbon.TasteAffinity)
	assert.GreaterOrEqual(t, *lisbon.TasteAffinity, 0.5)
	assert.LessOrEqual(t, *lisbon.TasteAffinity, 0.8)
	require.NotNil(t, lisbon.Cost)
	assert.Equal(t, capability.CostSourceHeuristic, lisbon.Cost.Source)
	assert.Greater(t, lisbon.Cost.Total, 0.0)
	assert.Nil(t, lisbon.Engagement, "neutral substitution happens at scoring")
	assert.Nil(t, lisbon.Brand)
	assert.Nil(t, lisbon.Creators)
	assert.Empty(t, lisbon.Highlights)

	assert.Equal(t, map[string]string{
		capability.Qloo:      capability.ReasonDisabled,
		capability.Amadeus:   capability.ReasonDisabled,
		capability.YouTube:   capability.ReasonDisabled,
		capability.Instagram: capability.ReasonDisabled,
		capability.Places:    capability.ReasonDisabled,
	}, fallbacksFor(out, "Lisbon"))
	assert.Len(t, out.Fallbacks, 10)

	chiangMai := out.Destinations[1]
	require.NotNil(t, chiangMai.Creators, "listed country gets an estimated total")
	assert.Equal(t, models.CreatorSourceEstimate, chiangMai.Creators.DataSource)
	assert.Equal(t, capability.EstimatedCreators("Thailand"), chiangMai.Creators.TotalReported)

	active := creators.ActiveCount(*chiangMai.Creators, time.Now())
	assert.Greater(t, active, 0)
	assert.Less(t, active, chiangMai.Creators.TotalReported)
	assert.True(t, creators.NewGater().Gate(chiangMai.Creators).DataAvailable)
}

func TestExecute_MixedProviderOutcomes(t *testing.T) {
	h := newTestHandler(t, Sources{
		Taste:    stubTaste{scores: map[string]float64{"Kyoto": 0.91}},
		Cost:     failingCost{},
		Creators: stubCreators{},
		Social: stubSocial{in: &providers.Insights{
			Engagement: &models.EngagementMetrics{Rate: 0.05, AvgViews: 20000},
		}},
		Events: stubEvents{},
	})

	out, err := h.Execute(context.Background(), &Input{
		Preferences: testPrefs(),
		Destinations: []models.CandidateDestination{
			{Name: "Kyoto", Country: "Japan"},
			{Name: "Atlantis"},
		},
	})
	require.NoError(t, err)

	kyoto := out.Destinations[0]
	assert.Equal(t, 0.91, *kyoto.TasteAffinity)
	assert.Equal(t, capability.CostSourceHeuristic, kyoto.Cost.Source)
	assert.Equal(t, models.CreatorSourceYouTube, kyoto.Creators.DataSource)
	assert.Equal(t, 0.05, kyoto.Engagement.Rate)
	assert.Nil(t, kyoto.Brand)
	assert.Equal(t, []string{"Kyoto old town"}, kyoto.Highlights)

	assert.Equal(t, map[string]string{
		capability.Amadeus:   capability.ReasonCallFailed,
		capability.Instagram: capability.ReasonNoData,
	}, fallbacksFor(out, "Kyoto"))

	atlantis := out.Destinations[1]
	require.NotNil(t, atlantis.TasteAffinity)
	assert.Equal(t, capability.ReasonNoData, fallbacksFor(out, "Atlantis")[capability.Qloo])
}

func TestExecute_KeepsSuppliedSignals(t *testing.T) {
	var calls int32
	h := newTestHandler(t, Sources{Taste: countingTaste{calls: &calls}})

	supplied := models.CandidateDestination{
		Name:          "Reykjavik",
		Country:       "Iceland",
		Tags:          []string{"nature"},
		TasteAffinity: ptr(0.77),
		Cost:          &models.CostEstimate{Total: 5200, Source: "partner"},
		Engagement:    &models.EngagementMetrics{Rate: 0.02},
		Brand:         &models.BrandMetrics{PartnerCount: 4},
		Creators:      &models.CreatorData{TotalReported: 12, DataSource: models.CreatorSourceEstimate},
		Highlights:    []string{"Blue Lagoon"},
	}
	in := &Input{Preferences: testPrefs(), Destinations: []models.CandidateDestination{supplied}}

	out, err := h.Execute(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, supplied, out.Destinations[0])
	assert.Empty(t, out.Fallbacks)
	assert.Zero(t, atomic.LoadInt32(&calls))

	out.Destinations[0].Tags[0] = "changed"
	assert.Equal(t, "nature", in.Destinations[0].Tags[0], "input is never aliased")
}

type countingTaste struct{ calls *int32 }

func (c countingTaste) Affinity(context.Context, string, string, []string) (float64, error) {
	atomic.AddInt32(c.calls, 1)
	return 0.5, nil
}

type slowTaste struct {
	mu      sync.Mutex
	active  int
	maxSeen int
}

func (s *slowTaste) Affinity(context.Context, string, string, []string) (float64, error) {
	s.mu.Lock()
	s.active++
	if s.active > s.maxSeen {
		s.maxSeen = s.active
	}
	s.mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	return 0.6, nil
}

func TestExecute_BoundedConcurrencyPreservesOrder(t *testing.T) {
	taste := &slowTaste{}
	h := newTestHandler(t, Sources{Taste: taste})
	h.config.Concurrency = 2

	names := []string{"Porto", "Seville", "Split", "Tbilisi", "Hoi An", "Oaxaca"}
	var dests []models.CandidateDestination
	for _, n := range names {
		dests = append(dests, models.CandidateDestination{Name: n})
	}

	out, err := h.Execute(context.Background(), &Input{Preferences: testPrefs(), Destinations: dests})
	require.NoError(t, err)

	for i, n := range names {
		assert.Equal(t, n, out.Destinations[i].Name)
		assert.Equal(t, 0.6, *out.Destinations[i].TasteAffinity)
	}
	assert.LessOrEqual(t, taste.maxSeen, 2)
	assert.GreaterOrEqual(t, taste.maxSeen, 1)
}

func TestExecute_Errors(t *testing.T) {
	h := newTestHandler(t, Sources{})

	t.Run("invalid budget", func(t *testing.T) {
		prefs := testPrefs()
		prefs.Budget.Amount = 0
		_, err := h.Execute(context.Background(), &Input{Preferences: prefs})
		var std *errors.StandardError
		require.ErrorAs(t, err, &std)
		assert.Equal(t, errors.ErrCodeInvalidPreferences, std.Code)
	})

}

// blockingTaste answers only when its context ends.
type blockingTaste struct{ calls *int32 }

func (b blockingTaste) Affinity(ctx context.Context, _, _ string, _ []string) (float64, error) {
	atomic.AddInt32(b.calls, 1)
	<-ctx.Done()
	return 0, errors.NewProviderTimeoutError(capability.Qloo, ctx.Err())
}

func TestExecute_JobDeadlineKeepsPartialResults(t *testing.T) {
	tests := []struct {
		name        string
		jobTimeout  time.Duration
		destTimeout time.Duration
		cancelFirst bool
	}{
		{name: "slow source outlives the job", jobTimeout: 150 * time.Millisecond, destTimeout: 100 * time.Millisecond},
		{name: "cancelled before any call", cancelFirst: true, destTimeout: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			h := newTestHandler(t, Sources{Taste: blockingTaste{calls: &calls}, Creators: stubCreators{}})
			h.config.Concurrency = 1
			h.config.DestinationTimeout = tt.destTimeout

			var ctx context.Context
			var cancel context.CancelFunc
			if tt.cancelFirst {
				ctx, cancel = context.WithCancel(context.Background())
				cancel()
			} else {
				ctx, cancel = context.WithTimeout(context.Background(), tt.jobTimeout)
			}
			defer cancel()

			names := []string{"Lima", "Cusco", "Arequipa"}
			var dests []models.CandidateDestination
			for _, n := range names {
				dests = append(dests, models.CandidateDestination{Name: n, Country: "Peru"})
			}

			out, err := h.Execute(ctx, &Input{Preferences: testPrefs(), Destinations: dests})
			require.NoError(t, err)
			require.Len(t, out.Destinations, len(names))

			deadline := 0
			for i, n := range names {
				d := out.Destinations[i]
				assert.Equal(t, n, d.Name)
				require.NotNil(t, d.TasteAffinity, n)
				require.NotNil(t, d.Cost, n)
				assert.Contains(t, fallbacksFor(out, n), capability.Qloo)
				if fallbacksFor(out, n)[capability.YouTube] == capability.ReasonDeadline {
					deadline++
				}
			}
			assert.Positive(t, deadline, "destinations reached after the deadline skip live calls")
			if tt.cancelFirst {
				assert.Zero(t, atomic.LoadInt32(&calls))
			} else {
				assert.Less(t, int(atomic.LoadInt32(&calls)), len(names))
			}
		})
	}
}

// ==========================
// Input parsing
// ==========================

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{"valid", `{"preferences":{"budget":{"amount":3000,"currency":"USD"},"durationDays":7},"destinations":[{"name":"Lisbon","tags":["food"]}]}`, false},
		{"missing destinations", `{"preferences":{"budget":{"amount":3000}}}`, true},
		{"destination without name", `{"preferences":{"budget":{"amount":3000}},"destinations":[{"country":"PT"}]}`, true},
		{"budget as string", `{"preferences":{"budget":{"amount":"3000"}},"destinations":[]}`, true},
		{"not json", `{"preferences":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := parseInput(tt.variables)
			if tt.wantErr {
				var std *errors.StandardError
				require.ErrorAs(t, err, &std)
				assert.Equal(t, errors.ErrCodeInvalidInput, std.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Lisbon", input.Destinations[0].Name)
			assert.Equal(t, 3000.0, input.Preferences.Budget.Amount)
		})
	}
}

func TestSourcesFrom(t *testing.T) {
	assert.Equal(t, Sources{}, SourcesFrom(nil))

	s := SourcesFrom(&providers.Set{})
	assert.Nil(t, s.Taste, "nil clients must not become non-nil interfaces")
	assert.Nil(t, s.Cost)
	assert.Nil(t, s.Events)

	cfg := config.ProvidersConfig{Places: config.ProviderConfig{APIKey: "places-key"}}
	set := providers.NewSet(cfg, capability.NewMatrix(cfg), providers.Options{})
	s = SourcesFrom(set)
	assert.NotNil(t, s.Events)
	assert.Nil(t, s.Social)
}
