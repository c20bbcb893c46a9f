package processor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"creator-trips/internal/capability"
	"creator-trips/internal/common/config"
	stderrors "creator-trips/internal/common/errors"
	"creator-trips/internal/common/logger"
	"creator-trips/internal/models"
	"creator-trips/internal/recommendation/creators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

type recordingObserver struct {
	mu     sync.Mutex
	stages []string
}

func (o *recordingObserver) RecordStage(_ context.Context, stage string, _ time.Duration, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stage)
}

func newTestProcessor(t *testing.T, obs Observer) *Processor {
	log := logger.NewTestLogger(t)
	resolver := capability.NewResolver(capability.NewMatrix(config.ProvidersConfig{}), log)
	gater := &creators.Gater{Curve: creators.DefaultCurve, Now: func() time.Time { return refNow }}
	return New(resolver, gater, obs, log, 3)
}

func f(v float64) *float64 { return &v }

func prefs3000() models.UserPreferences {
	return models.UserPreferences{
		Budget:       models.Money{Amount: 3000, Currency: "USD"},
		DurationDays: 7,
		Travelers:    1,
		ContentFocus: "food",
	}
}

func dest(name string, total, affinity float64) models.CandidateDestination {
	return models.CandidateDestination{
		Name:          name,
		Country:       "Portugal",
		TasteAffinity: f(affinity),
		Cost:          &models.CostEstimate{Total: total},
	}
}

func verifiedCreators(n int) *models.CreatorData {
	data := &models.CreatorData{TotalReported: n, DataSource: models.CreatorSourceVerified}
	for i := 0; i < n; i++ {
		data.Creators = append(data.Creators, models.CreatorRecord{Name: fmt.Sprintf("c%d", i), Followers: 5000})
	}
	return data
}

func TestProcess_SelectsTopThree(t *testing.T) {
	obs := &recordingObserver{}
	p := newTestProcessor(t, obs)

	candidates := []models.CandidateDestination{
		dest("Lisbon", 2900, 0.9),
		dest("Porto", 3000, 0.7),
		dest("Tokyo", 3500, 1.0),
		dest("Reykjavik", 4200, 1.0),
		dest("Madeira", 2700, 0.6),
	}

	res, err := p.Process(context.Background(), prefs3000(), candidates)
	require.NoError(t, err)
	require.Nil(t, res.NoFit)

	require.Len(t, res.Recommendations, 3)
	assert.Equal(t, 5, res.CandidateCount)
	for i, r := range res.Recommendations {
		assert.NotEqual(t, models.BudgetOutOfBand, r.Budget.Level)
		assert.NotEqual(t, "Reykjavik", r.Destination.Name)
		assert.GreaterOrEqual(t, r.MatchScore, 0)
		assert.LessOrEqual(t, r.MatchScore, 100)
		if i > 0 {
			assert.False(t, Less(r, res.Recommendations[i-1]), "sorted")
		}
	}
	assert.Equal(t, "Tokyo", res.Recommendations[0].Destination.Name)
	assert.Equal(t, "Stretch (+17%)", res.Recommendations[0].Budget.Badge)

	require.Len(t, res.Dropped, 1)
	assert.Equal(t, "Reykjavik", res.Dropped[0].Name)
	assert.Equal(t, StageFilter, res.Dropped[0].Stage)

	assert.Equal(t, []string{StagePrepare, StageFilter, StageScore, StageGate, StageRank}, obs.stages)
}

func TestProcess_NoFit(t *testing.T) {
	p := newTestProcessor(t, nil)

	res, err := p.Process(context.Background(), prefs3000(), []models.CandidateDestination{
		dest("Maldives", 9000, 0.9),
		dest("Bora Bora", 12000, 0.8),
	})
	require.NoError(t, err)

	assert.Empty(t, res.Recommendations)
	require.NotNil(t, res.NoFit)
	assert.Equal(t, 3000.0, res.NoFit.TargetBudget)
	assert.Equal(t, 2, res.NoFit.CandidateCount)
	assert.Contains(t, res.NoFit.Message, "3000")
	assert.Len(t, res.Dropped, 2)
}

func TestProcess_EmptyInputIsNoFit(t *testing.T) {
	p := newTestProcessor(t, nil)

	res, err := p.Process(context.Background(), prefs3000(), nil)
	require.NoError(t, err)
	require.NotNil(t, res.NoFit)
	assert.Equal(t, 0, res.NoFit.CandidateCount)
	assert.Contains(t, res.NoFit.Message, "3000")
}

func TestProcess_InvalidBudget(t *testing.T) {
	p := newTestProcessor(t, nil)

	for _, amount := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		prefs := prefs3000()
		prefs.Budget.Amount = amount
		_, err := p.Process(context.Background(), prefs, []models.CandidateDestination{dest("Lisbon", 100, 0.5)})

		var stdErr *stderrors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, stderrors.ErrCodeInvalidPreferences, stdErr.Code)
	}
}

func TestProcess_TieBreaks(t *testing.T) {
	p := newTestProcessor(t, nil)

	// Alignment decides between Zagreb and Athens.
	aligned := dest("Zagreb", 3450, 0.8)
	stretch := dest("Athens", 3451, 0.8)
	// Equal scores fall back to name order.
	b := dest("Bled", 3000, 0.8)
	a := dest("Alicante", 3000, 0.8)

	res, err := p.Process(context.Background(), prefs3000(), []models.CandidateDestination{aligned, stretch, b, a})
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 3)

	assert.Equal(t, "Alicante", res.Recommendations[0].Destination.Name)
	assert.Equal(t, "Bled", res.Recommendations[1].Destination.Name)
	assert.Equal(t, "Zagreb", res.Recommendations[2].Destination.Name)
}

func TestLess_LevelBreaksScoreTie(t *testing.T) {
	x := models.ScoredDestination{Destination: models.CandidateDestination{Name: "Zeta"}, TotalScore: 0.7, Budget: models.BudgetStatus{Level: models.BudgetAligned}}
	y := models.ScoredDestination{Destination: models.CandidateDestination{Name: "Alpha"}, TotalScore: 0.7, Budget: models.BudgetStatus{Level: models.BudgetStretch}}

	assert.True(t, Less(x, y))
	assert.False(t, Less(y, x))

	y.Budget.Level = models.BudgetAligned
	assert.True(t, Less(y, x))
}

func TestProcess_CreatorGatingRescores(t *testing.T) {
	p := newTestProcessor(t, nil)

	lonely := dest("Hallstatt", 3000, 0.9)
	ts := refNow.AddDate(0, 0, -10)
	posts := 8
	lonely.Creators = &models.CreatorData{
		TotalReported: 1,
		DataSource:    models.CreatorSourceYouTube,
		Creators:      []models.CreatorRecord{{Name: "solo", Followers: 5000, LastPostAt: &ts, PostsLast90Days: &posts}},
	}
	busy := dest("Vienna", 3000, 0.9)
	busy.Creators = verifiedCreators(30)
	unknown := dest("Graz", 3000, 0.9)

	res, err := p.Process(context.Background(), prefs3000(), []models.CandidateDestination{lonely, busy, unknown})
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 3)

	byName := map[string]models.ScoredDestination{}
	for _, r := range res.Recommendations {
		byName[r.Destination.Name] = r
	}

	h := byName["Hallstatt"]
	assert.Equal(t, 1, h.Gating.ActiveCreatorCount)
	assert.False(t, h.Gating.ShouldShowCollaboration)
	assert.Equal(t, 0.0, h.Signals[models.SignalLocalCreator])

	v := byName["Vienna"]
	assert.True(t, v.Gating.ShouldShowCollaboration)
	assert.Equal(t, 1.0, v.Signals[models.SignalLocalCreator])

	g := byName["Graz"]
	assert.Equal(t, 0.5, g.Signals[models.SignalLocalCreator])
	assert.Contains(t, g.MissingSignals, models.SignalLocalCreator)

	assert.Greater(t, v.TotalScore, g.TotalScore)
	assert.Greater(t, g.TotalScore, h.TotalScore)
	assert.InDelta(t, 0.05*0.5, v.TotalScore-g.TotalScore, 1e-9)
	assert.Equal(t, []string{"Vienna", "Graz", "Hallstatt"}, []string{
		res.Recommendations[0].Destination.Name,
		res.Recommendations[1].Destination.Name,
		res.Recommendations[2].Destination.Name,
	})
}

func TestProcess_PrepareStage(t *testing.T) {
	p := newTestProcessor(t, nil)

	noCost := models.CandidateDestination{Name: "Chiang Mai", Country: "Thailand", TasteAffinity: f(0.8)}
	input := []models.CandidateDestination{
		{Name: "   "},
		dest("Lisbon", 2900, 0.9),
		dest(" lisbon ", 2000, 0.1),
		noCost,
	}

	res, err := p.Process(context.Background(), prefs3000(), input)
	require.NoError(t, err)

	names := []string{}
	for _, r := range res.Recommendations {
		names = append(names, r.Destination.Name)
	}
	assert.ElementsMatch(t, []string{"Lisbon", "Chiang Mai"}, names)

	for _, r := range res.Recommendations {
		if r.Destination.Name == "Chiang Mai" {
			require.NotNil(t, r.Destination.Cost)
			assert.Equal(t, capability.CostSourceHeuristic, r.Destination.Cost.Source)
		}
	}
	assert.Nil(t, input[3].Cost, "input is not modified")

	reasons := map[string]bool{}
	for _, d := range res.Dropped {
		reasons[d.Reason] = true
	}
	assert.True(t, reasons[DropUnnamed])
	assert.True(t, reasons[DropDuplicate])
}

func TestProcess_HostileSignals(t *testing.T) {
	p := newTestProcessor(t, nil)

	weird := dest("Nowhere", 3000, math.NaN())
	weird.Engagement = &models.EngagementMetrics{Rate: math.Inf(1), AvgViews: math.NaN()}
	weird.Brand = &models.BrandMetrics{PartnerCount: -5, AlignmentScore: math.Inf(-1)}

	res, err := p.Process(context.Background(), prefs3000(), []models.CandidateDestination{weird})
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 1)

	r := res.Recommendations[0]
	assert.False(t, math.IsNaN(r.TotalScore))
	assert.GreaterOrEqual(t, r.MatchScore, 0)
	assert.LessOrEqual(t, r.MatchScore, 100)
	assert.Contains(t, r.MissingSignals, models.SignalQlooAffinity)
}

func TestProcess_CancelledContext(t *testing.T) {
	p := newTestProcessor(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, prefs3000(), []models.CandidateDestination{dest("Lisbon", 2900, 0.9)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcess_NeverMoreThanTopN(t *testing.T) {
	p := newTestProcessor(t, nil)

	var candidates []models.CandidateDestination
	for i := 0; i < 40; i++ {
		candidates = append(candidates, dest(fmt.Sprintf("City %02d", i), 2000+float64(i*60), float64(i%10)/10))
	}

	res, err := p.Process(context.Background(), prefs3000(), candidates)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Recommendations), 3)
	for _, r := range res.Recommendations {
		assert.NotEqual(t, models.BudgetOutOfBand, r.Budget.Level)
	}
}

func TestNew_TopNCapped(t *testing.T) {
	log := logger.NewTestLogger(t)
	resolver := capability.NewResolver(capability.NewMatrix(config.ProvidersConfig{}), log)

	tests := []struct {
		name string
		topN int
		want int
	}{
		{"zero uses the default", 0, DefaultTopN},
		{"negative uses the default", -2, DefaultTopN},
		{"smaller list kept", 2, 2},
		{"larger list capped", 5, DefaultTopN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(resolver, nil, nil, log, tt.topN)
			assert.Equal(t, tt.want, p.topN)
		})
	}
}

func TestProcess_ConfiguredTopNAboveThree(t *testing.T) {
	log := logger.NewTestLogger(t)
	resolver := capability.NewResolver(capability.NewMatrix(config.ProvidersConfig{}), log)
	gater := &creators.Gater{Curve: creators.DefaultCurve, Now: func() time.Time { return refNow }}
	p := New(resolver, gater, nil, log, 5)

	var candidates []models.CandidateDestination
	for i, name := range []string{"Porto", "Seville", "Split", "Tbilisi", "Hoi An", "Oaxaca"} {
		candidates = append(candidates, dest(name, 2600+float64(i*50), 0.8))
	}

	res, err := p.Process(context.Background(), prefs3000(), candidates)
	require.NoError(t, err)
	assert.Len(t, res.Recommendations, 3)
}

func TestLess_NearEqualScoresOrderConsistently(t *testing.T) {
	base := 0.7
	offsets := []float64{0, 6e-10, 1.2e-9, 3e-7, 6e-7, 2e-6}
	// Names run against score order so any score tie shows up as name order.
	var items []models.ScoredDestination
	for i, off := range offsets {
		items = append(items, models.ScoredDestination{
			Destination: models.CandidateDestination{Name: fmt.Sprintf("%c", 'F'-i)},
			TotalScore:  base + off,
			Budget:      models.BudgetStatus{Level: models.BudgetAligned},
		})
	}

	for _, a := range items {
		assert.False(t, Less(a, a))
		for _, b := range items {
			for _, c := range items {
				if Less(a, b) && Less(b, c) {
					assert.True(t, Less(a, c), "%s < %s < %s", a.Destination.Name, b.Destination.Name, c.Destination.Name)
				}
			}
		}
	}

	p := newTestProcessor(t, nil)
	p.topN = len(items)
	want := p.rank(items)
	for shift := 1; shift < len(items); shift++ {
		rotated := append(append([]models.ScoredDestination{}, items[shift:]...), items[:shift]...)
		got := p.rank(rotated)
		for i := range want {
			assert.Equal(t, want[i].Destination.Name, got[i].Destination.Name, "rotation %d", shift)
		}
	}
}
