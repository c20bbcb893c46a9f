// Package processor runs the recommendation pipeline: prepare, hard budget
// filter, provisional score, creator gating with rescoring, then rank.
package processor

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"creator-trips/internal/capability"
	"creator-trips/internal/common/errors"
	"creator-trips/internal/common/logger"
	"creator-trips/internal/common/metrics"
	"creator-trips/internal/models"
	"creator-trips/internal/recommendation/budget"
	"creator-trips/internal/recommendation/creators"
	"creator-trips/internal/recommendation/scoring"
)

// DefaultTopN is also the most recommendations a run ever returns.
const DefaultTopN = 3

// Stage names, also used as metric attributes.
const (
	StagePrepare = "prepare"
	StageFilter  = "filter"
	StageScore   = "score"
	StageGate    = "gate"
	StageRank    = "rank"
)

// Drop reasons.
const (
	DropUnnamed     = "unnamed"
	DropDuplicate   = "duplicate"
	DropUnpriced    = "unpriced"
	DropOutOfBudget = "out_of_budget"
	DropFailed      = "processing_failed"
)

// Scores are compared after rounding to this many steps per point.
const scorePrecision = 1e6

// Observer receives per-stage timings.
type Observer interface {
	RecordStage(ctx context.Context, stage string, duration time.Duration, remaining int)
}

type nopObserver struct{}

func (nopObserver) RecordStage(context.Context, string, time.Duration, int) {}

// Result is either a ranked list or a no-fit outcome.
type Result struct {
	Recommendations []models.ScoredDestination  `json:"recommendations"`
	NoFit           *models.NoFit               `json:"noFit,omitempty"`
	Dropped         []models.DroppedDestination `json:"dropped,omitempty"`
	CandidateCount  int                         `json:"candidateCount"`
}

type Processor struct {
	resolver *capability.Resolver
	gater    *creators.Gater
	observer Observer
	logger   logger.Logger
	topN     int
}

func New(resolver *capability.Resolver, gater *creators.Gater, observer Observer, log logger.Logger, topN int) *Processor {
	if observer == nil {
		observer = nopObserver{}
	}
	if gater == nil {
		gater = creators.NewGater()
	}
	if topN < 1 || topN > DefaultTopN {
		topN = DefaultTopN
	}
	return &Processor{
		resolver: resolver,
		gater:    gater,
		observer: observer,
		logger:   log.WithFields(map[string]interface{}{"component": "recommendation-processor"}),
		topN:     topN,
	}
}

type run struct {
	p       *Processor
	ctx     context.Context
	prefs   models.UserPreferences
	dropped []models.DroppedDestination
}

// Process ranks candidates for prefs. Per-destination problems drop that
// destination; an empty surviving set is reported as NoFit, not an error.
func (p *Processor) Process(ctx context.Context, prefs models.UserPreferences, candidates []models.CandidateDestination) (*Result, error) {
	if err := ValidatePreferences(prefs); err != nil {
		return nil, err
	}

	r := &run{p: p, ctx: ctx, prefs: prefs}
	result := &Result{CandidateCount: len(candidates)}

	prepared := timed(r, StagePrepare, func() []models.CandidateDestination { return r.prepare(candidates) }, lenOf[models.CandidateDestination])
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kept := timed(r, StageFilter, func() []budget.Assessed { return r.filter(prepared) }, lenOf[budget.Assessed])
	if len(kept) == 0 {
		result.NoFit = r.noFit(len(candidates))
		result.Dropped = r.dropped
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	provisional := timed(r, StageScore, func() []models.ScoredDestination { return r.score(kept) }, lenOf[models.ScoredDestination])
	gated := timed(r, StageGate, func() []models.ScoredDestination { return r.gate(provisional) }, lenOf[models.ScoredDestination])
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Recommendations = timed(r, StageRank, func() []models.ScoredDestination { return p.rank(gated) }, lenOf[models.ScoredDestination])
	result.Dropped = r.dropped

	p.logger.Info("recommendations selected", map[string]interface{}{
		"candidates": len(candidates),
		"selected":   len(result.Recommendations),
		"dropped":    len(r.dropped),
	})
	return result, nil
}

// ValidatePreferences rejects preferences the pipeline cannot band.
func ValidatePreferences(prefs models.UserPreferences) error {
	amount := prefs.Budget.Amount
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return errors.NewInvalidPreferencesError("budget amount must be a positive number")
	}
	if prefs.DurationDays < 0 {
		return errors.NewInvalidPreferencesError("duration cannot be negative")
	}
	return nil
}

func lenOf[T any](s []T) int { return len(s) }

func timed[T any](r *run, stage string, fn func() T, size func(T) int) T {
	start := time.Now()
	out := fn()
	r.p.observer.RecordStage(r.ctx, stage, time.Since(start), size(out))
	return out
}

func (r *run) drop(name, stage, code, detail string) {
	metrics.DestinationsDropped.WithLabelValues(code).Inc()
	r.p.logger.Info("destination dropped", map[string]interface{}{
		"destination": name,
		"stage":       stage,
		"reason":      code,
		"detail":      detail,
	})
	reason := code
	if detail != "" {
		reason = code + ": " + detail
	}
	r.dropped = append(r.dropped, models.DroppedDestination{Name: name, Stage: stage, Reason: reason})
}

// prepare removes unnamed and duplicate candidates and fills missing cost
// estimates from the fallback resolver. Inputs are copied, never modified.
func (r *run) prepare(candidates []models.CandidateDestination) []models.CandidateDestination {
	out := make([]models.CandidateDestination, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))

	for _, c := range candidates {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			r.drop("", StagePrepare, DropUnnamed, "")
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			r.drop(name, StagePrepare, DropDuplicate, "")
			continue
		}
		seen[key] = true

		d := c
		d.Name = name
		if !hasUsableCost(d.Cost, r.prefs) && r.p.resolver != nil {
			reason := r.p.resolver.Reason(capability.Amadeus, capability.ReasonNoData)
			d.Cost = r.p.resolver.CostEstimate(reason, name, d.Country, r.prefs)
		}
		out = append(out, d)
	}
	return out
}

func hasUsableCost(cost *models.CostEstimate, prefs models.UserPreferences) bool {
	if cost == nil {
		return false
	}
	_, ok := budget.EstimatedTotal(*cost, prefs)
	return ok
}

func (r *run) filter(destinations []models.CandidateDestination) []budget.Assessed {
	kept, excluded, unpriced := budget.FilterByBudget(destinations, r.prefs)
	for _, e := range excluded {
		r.drop(e.Destination.Name, StageFilter, DropOutOfBudget, e.Status.Badge)
	}
	for _, d := range unpriced {
		r.drop(d.Name, StageFilter, DropUnpriced, "no cost estimate")
	}
	return kept
}

func (r *run) noFit(candidateCount int) *models.NoFit {
	metrics.NoFitOutcomes.Inc()
	target := r.prefs.Budget.Amount
	currency := r.prefs.Currency()

	var msg string
	if candidateCount == 0 {
		msg = fmt.Sprintf("No destinations were available to compare against your %s %.0f budget. Try again with different interests.", currency, target)
	} else {
		band := budget.ComputeBands(target)
		msg = fmt.Sprintf("None of the %d destinations fit a %s %.0f budget (up to %s %.0f with stretch). Consider raising your budget or shortening the trip.",
			candidateCount, currency, target, currency, band.StretchMax)
	}

	r.p.logger.Info("no destination fits budget", map[string]interface{}{
		"targetBudget": target,
		"currency":     currency,
		"candidates":   candidateCount,
	})
	return &models.NoFit{
		TargetBudget:   target,
		Currency:       currency,
		CandidateCount: candidateCount,
		Message:        msg,
	}
}

func baseSignals(a budget.Assessed) models.ScoringSignals {
	alignment := budget.AlignmentSignal(a.Status)
	return models.ScoringSignals{
		QlooAffinity:        a.Destination.TasteAffinity,
		CommunityEngagement: scoring.EngagementSignal(a.Destination.Engagement),
		BrandCollaboration:  scoring.BrandSignal(a.Destination.Brand),
		BudgetAlignment:     &alignment,
	}
}

func buildScored(dest models.CandidateDestination, status models.BudgetStatus, gating models.CreatorGatingResult, res scoring.Result) models.ScoredDestination {
	return models.ScoredDestination{
		Destination:    dest,
		Signals:        res.Signals,
		MissingSignals: res.MissingSignals,
		TotalScore:     res.TotalScore,
		MatchScore:     res.MatchScore,
		Budget:         status,
		Gating:         gating,
	}
}

// score computes a provisional score with a neutral local-creator signal.
func (r *run) score(kept []budget.Assessed) []models.ScoredDestination {
	provisional := scoring.Neutral
	out := make([]models.ScoredDestination, 0, len(kept))
	for _, a := range kept {
		sd, err := safely(func() models.ScoredDestination {
			res := scoring.Score(baseSignals(a).WithLocalCreator(&provisional))
			return buildScored(a.Destination, a.Status, models.CreatorGatingResult{}, res)
		})
		if err != nil {
			r.drop(a.Destination.Name, StageScore, DropFailed, err.Error())
			continue
		}
		out = append(out, sd)
	}
	return out
}

// gate resolves the local-creator signal and rescores. Missing creator data
// leaves the signal neutral; gated-off destinations contribute 0.
func (r *run) gate(provisional []models.ScoredDestination) []models.ScoredDestination {
	out := make([]models.ScoredDestination, 0, len(provisional))
	for _, prev := range provisional {
		sd, err := safely(func() models.ScoredDestination {
			dest := prev.Destination
			gating := r.p.gater.Gate(dest.Creators)

			var local *float64
			if gating.DataAvailable {
				v := gating.CollaborationScore
				local = &v
			}
			a := budget.Assessed{Destination: dest, Status: prev.Budget}
			res := scoring.Score(baseSignals(a).WithLocalCreator(local))
			return buildScored(dest, prev.Budget, gating, res)
		})
		if err != nil {
			r.drop(prev.Destination.Name, StageGate, DropFailed, err.Error())
			continue
		}
		for _, s := range sd.MissingSignals {
			metrics.MissingSignals.WithLabelValues(s).Inc()
		}
		out = append(out, sd)
	}
	return out
}

// rank orders by total score, then budget level, then name, and keeps top N.
func (p *Processor) rank(scored []models.ScoredDestination) []models.ScoredDestination {
	ranked := make([]models.ScoredDestination, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Less(ranked[i], ranked[j])
	})
	if len(ranked) > p.topN {
		ranked = ranked[:p.topN]
	}
	return ranked
}

// Less is the total ranking order.
func Less(a, b models.ScoredDestination) bool {
	if ka, kb := scoreKey(a.TotalScore), scoreKey(b.TotalScore); ka != kb {
		return ka > kb
	}
	if ra, rb := a.Budget.Level.Rank(), b.Budget.Level.Rank(); ra != rb {
		return ra < rb
	}
	return a.Destination.Name < b.Destination.Name
}

// scoreKey buckets a score so near-equal totals tie consistently.
func scoreKey(v float64) int64 {
	return int64(math.Round(v * scorePrecision))
}

func safely(fn func() models.ScoredDestination) (sd models.ScoredDestination, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("recovered: %v", rec)
		}
	}()
	return fn(), nil
}
