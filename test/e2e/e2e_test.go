// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creator-trips/internal/capability"
	"creator-trips/internal/common/camunda"
	"creator-trips/internal/common/config"
	"creator-trips/internal/common/database"
	"creator-trips/internal/common/logger"
	"creator-trips/internal/interview"
	"creator-trips/internal/models"
	"creator-trips/internal/providers"
	"creator-trips/internal/recommendation/creators"
	"creator-trips/internal/recommendation/processor"

	nq "creator-trips/internal/workers/interview/next-question"
	ed "creator-trips/internal/workers/recommendation/enrich-destinations"
	rd "creator-trips/internal/workers/recommendation/recommend-destinations"
)

// ==========================
// Fake upstream providers
// ==========================

type upstream struct {
	tasteCalls int32
	costCalls  int32
}

var affinities = map[string]float64{
	"Lisbon":    0.72,
	"Kyoto":     0.91,
	"Reykjavik": 0.95,
}

// prices per destination: flight per traveler, hotel per night, daily spend
var prices = map[string][3]string{
	"Lisbon":    {"300.00", "60.00", "50"},
	"Kyoto":     {"1400.00", "150.00", "120"},
	"Reykjavik": {"2500.00", "400.00", "250"},
}

func (u *upstream) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v2/insights", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.tasteCalls, 1)
		assert.Equal(t, "q-key", r.Header.Get("X-Api-Key"))
		dest := r.URL.Query().Get("filter.query")
		writeJSON(w, map[string]interface{}{
			"success": true,
			"results": map[string]interface{}{
				"entities": []interface{}{
					map[string]interface{}{"name": dest, "query": map[string]interface{}{"affinity": affinities[dest]}},
				},
			},
		})
	})

	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "a-secret", r.PostForm.Get("client_secret"))
		writeJSON(w, map[string]interface{}{"access_token": "tok", "expires_in": 1799})
	})

	mux.HandleFunc("/v1/travel/trip-cost", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.costCalls, 1)
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		p := prices[r.URL.Query().Get("destination")]
		var daily float64
		_ = json.Unmarshal([]byte(p[2]), &daily)
		writeJSON(w, map[string]interface{}{
			"data": map[string]interface{}{
				"flightPerTraveler": map[string]string{"total": p[0]},
				"hotelPerNight":     map[string]string{"total": p[1]},
				"dailyLiving":       map[string]float64{"meals": daily},
				"currency":          "USD",
			},
		})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// roundTrip moves a worker's output into the next worker's input the way
// process variables do.
func roundTrip(t *testing.T, from, to interface{}) {
	t.Helper()
	data, err := json.Marshal(from)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, to))
}

// ==========================
// Pipeline
// ==========================

func TestPipeline_InterviewToRecommendations(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := logger.NewTestLogger(t)

	up := &upstream{}
	srv := httptest.NewServer(up.handler(t))
	defer srv.Close()

	mr := miniredis.RunT(t)
	cache := database.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	provCfg := config.ProvidersConfig{
		Qloo:    config.ProviderConfig{APIKey: "q-key", BaseURL: srv.URL},
		Amadeus: config.ProviderConfig{APIKey: "a-key", APISecret: "a-secret", BaseURL: srv.URL},
	}
	matrix := capability.NewMatrix(provCfg)
	require.True(t, matrix.Enabled(capability.Qloo))
	require.True(t, matrix.Enabled(capability.Amadeus))
	require.False(t, matrix.Enabled(capability.GenAI))

	resolver := capability.NewResolver(matrix, log)
	set := providers.NewSet(provCfg, matrix, providers.OptionsFrom(config.RecommendationConfig{CacheTTL: 600}, cache, log))

	// 1. interview
	flow := interview.NewFlow(matrix, nil, 5, log)
	next := nq.NewHandler(nq.LoadConfig(), flow, nil, log)

	answers := map[string][]string{
		interview.TopicBudget:        {"$2,500 - $5,000"},
		interview.TopicDuration:      {"1 week"},
		interview.TopicStyle:         {"Cultural immersion"},
		interview.TopicPriorities:    {"Local food scene"},
		interview.TopicAccommodation: {"Boutique hotels"},
		interview.TopicConstraints:   {interview.NoConstraints},
	}

	turn, err := next.Execute(ctx, &nq.Input{})
	require.NoError(t, err)
	for i := 0; i < 10 && !turn.InterviewComplete; i++ {
		id := turn.Question.ID
		var in nq.Input
		roundTrip(t, map[string]interface{}{
			"interviewSession": turn.Session,
			"answer":           nq.AnswerInput{QuestionID: id, Values: answers[id]},
		}, &in)
		turn, err = next.Execute(ctx, &in)
		require.NoError(t, err)
	}
	require.True(t, turn.InterviewComplete)
	require.NotNil(t, turn.Preferences)
	prefs := *turn.Preferences
	assert.Equal(t, 3750.0, prefs.Budget.Amount)
	assert.Equal(t, 7, prefs.DurationDays)

	// 2. enrichment, twice to exercise the response cache
	enrich := ed.NewHandler(ed.LoadConfig(), ed.SourcesFrom(set), resolver, nil, log)
	enrichInput := &ed.Input{
		Preferences: prefs,
		Destinations: []models.CandidateDestination{
			{Name: "Lisbon", Country: "PT"},
			{Name: "Kyoto", Country: "JP"},
			{Name: "Reykjavik", Country: "IS"},
		},
	}

	var enriched *ed.Output
	for i := 0; i < 2; i++ {
		enriched, err = enrich.Execute(ctx, enrichInput)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&up.tasteCalls))
	assert.Equal(t, int32(3), atomic.LoadInt32(&up.costCalls))

	require.Len(t, enriched.Destinations, 3)
	for _, d := range enriched.Destinations {
		require.NotNil(t, d.TasteAffinity, d.Name)
		assert.Equal(t, affinities[d.Name], *d.TasteAffinity, d.Name)
		require.NotNil(t, d.Cost, d.Name)
		assert.Equal(t, providers.CostSourceAmadeus, d.Cost.Source, d.Name)
	}
	for _, fb := range enriched.Fallbacks {
		assert.NotEqual(t, capability.Qloo, fb.Provider)
		assert.NotEqual(t, capability.Amadeus, fb.Provider)
	}

	// 3. recommendation
	var recIn rd.Input
	roundTrip(t, map[string]interface{}{
		"preferences":  prefs,
		"destinations": enriched.Destinations,
	}, &recIn)

	recommend := rd.NewHandler(rd.LoadConfig(), resolver, creators.NewGater(), nil, log)
	out, err := recommend.Execute(ctx, &recIn)
	require.NoError(t, err)

	assert.True(t, out.HasRecommendations)
	assert.Nil(t, out.NoFit)
	assert.Equal(t, 3, out.CandidateCount)

	var names []string
	for _, r := range out.Recommendations {
		names = append(names, r.Destination.Name)
		assert.Equal(t, models.BudgetAligned, r.Budget.Level, r.Destination.Name)
	}
	assert.ElementsMatch(t, []string{"Lisbon", "Kyoto"}, names)

	require.Len(t, out.Dropped, 1)
	assert.Equal(t, "Reykjavik", out.Dropped[0].Name)
	assert.Equal(t, processor.StageFilter, out.Dropped[0].Stage)
}

// ==========================
// Live broker (optional)
// ==========================

func TestBrokerConnectivity(t *testing.T) {
	addr := os.Getenv("ZEEBE_ADDRESS")
	if addr == "" {
		t.Skip("ZEEBE_ADDRESS not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := camunda.ConfigFrom(config.CamundaConfig{BrokerAddress: addr, Timeout: 5000})
	client, err := camunda.Connect(ctx, cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.HealthCheck(ctx))
}
