// internal/workers/recommendation/enrich-destinations/handler.go
package enrichdestinations

import (
	"context"
	"encoding/json"
	stderrs "errors"
	"time"

	"creator-trips/internal/capability"
	"creator-trips/internal/common/errors"
	"creator-trips/internal/common/logger"
	"creator-trips/internal/common/metrics"
	"creator-trips/internal/common/observability"
	"creator-trips/internal/common/validation"
	"creator-trips/internal/models"
	"creator-trips/internal/providers"
	"creator-trips/internal/recommendation/processor"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"golang.org/x/sync/errgroup"
)

const (
	TaskType = "enrich-destinations"
)

var inputValidator = validation.MustValidator(InputSchema)

type TasteSource interface {
	Affinity(ctx context.Context, destination, contentFocus string, tags []string) (float64, error)
}

type CostSource interface {
	Estimate(ctx context.Context, destination, country string, prefs models.UserPreferences) (*models.CostEstimate, error)
}

type CreatorSource interface {
	Creators(ctx context.Context, destination, country string) (*models.CreatorData, error)
}

type SocialSource interface {
	Insights(ctx context.Context, destination string) (*providers.Insights, error)
}

type EventSource interface {
	Highlights(ctx context.Context, destination, country string) ([]string, error)
}

// Sources are the live providers. A nil source means the provider is
// disabled and the resolver is used directly.
type Sources struct {
	Taste    TasteSource
	Cost     CostSource
	Creators CreatorSource
	Social   SocialSource
	Events   EventSource
}

// SourcesFrom adapts a provider set, leaving disabled providers nil.
func SourcesFrom(set *providers.Set) Sources {
	var s Sources
	if set == nil {
		return s
	}
	if set.Taste != nil {
		s.Taste = set.Taste
	}
	if set.Cost != nil {
		s.Cost = set.Cost
	}
	if set.Creators != nil {
		s.Creators = set.Creators
	}
	if set.Social != nil {
		s.Social = set.Social
	}
	if set.Places != nil {
		s.Events = set.Places
	}
	return s
}

type Handler struct {
	config       *Config
	sources      Sources
	resolver     *capability.Resolver
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, sources Sources, resolver *capability.Resolver, obs *observability.Observability, log logger.Logger) *Handler {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if obs == nil {
		obs = &observability.Observability{}
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sources:      sources,
		resolver:     resolver,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output, start)
}

func parseInput(variables string) (*Input, error) {
	raw := []byte(variables)
	if err := inputValidator.Check(raw); err != nil {
		return nil, err
	}
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := processor.ValidatePreferences(input.Preferences); err != nil {
		return nil, err
	}

	type result struct {
		dest      models.CandidateDestination
		fallbacks []Fallback
	}
	results := make([]result, len(input.Destinations))

	var g errgroup.Group
	g.SetLimit(h.config.Concurrency)
	for i, d := range input.Destinations {
		g.Go(func() error {
			dest, fb := h.enrichOne(ctx, input.Preferences, d)
			results[i] = result{dest: dest, fallbacks: fb}
			return nil
		})
	}
	_ = g.Wait()

	out := &Output{Destinations: make([]models.CandidateDestination, len(results))}
	skipped := 0
	for i, r := range results {
		out.Destinations[i] = r.dest
		out.Fallbacks = append(out.Fallbacks, r.fallbacks...)
		for _, f := range r.fallbacks {
			if f.Reason == capability.ReasonDeadline {
				skipped++
			}
		}
	}

	if err := ctx.Err(); err != nil {
		h.logger.Warn("job deadline reached, remaining signals use fallbacks", map[string]interface{}{
			"destinations": len(out.Destinations),
			"skipped":      skipped,
			"error":        err.Error(),
		})
	}

	h.logger.Info("destinations enriched", map[string]interface{}{
		"destinations": len(out.Destinations),
		"fallbacks":    len(out.Fallbacks),
	})
	return out, nil
}

// enrichOne fills every signal group the candidate does not already carry.
// It works on a copy and never fails; each missing signal falls back on its own.
func (h *Handler) enrichOne(ctx context.Context, prefs models.UserPreferences, in models.CandidateDestination) (models.CandidateDestination, []Fallback) {
	d := in
	d.Tags = append([]string(nil), in.Tags...)
	d.Highlights = append([]string(nil), in.Highlights...)

	ctx, cancel := context.WithTimeout(ctx, h.config.DestinationTimeout)
	defer cancel()

	t := &trail{destination: d.Name}
	h.taste(ctx, prefs, &d, t)
	h.cost(ctx, prefs, &d, t)
	h.creators(ctx, &d, t)
	h.social(ctx, &d, t)
	h.events(ctx, &d, t)
	return d, t.items
}

type trail struct {
	destination string
	items       []Fallback
}

func (t *trail) add(provider, reason string) {
	t.items = append(t.items, Fallback{Destination: t.destination, Provider: provider, Reason: reason})
}

// skipReason is the fallback reason when a provider is not called at all,
// or "" when the call should go ahead.
func skipReason(ctx context.Context, available bool) string {
	if !available {
		return capability.ReasonDisabled
	}
	if ctx.Err() != nil {
		return capability.ReasonDeadline
	}
	return ""
}

// failure logs a provider error and classifies it as a fallback reason.
func (h *Handler) failure(provider, destination string, err error) string {
	reason := capability.ReasonCallFailed
	if stderrs.Is(err, providers.ErrNoData) {
		reason = capability.ReasonNoData
	}
	h.logger.Warn("provider call failed, using fallback", map[string]interface{}{
		"provider":    provider,
		"destination": destination,
		"reason":      reason,
		"error":       err.Error(),
	})
	return reason
}

func (h *Handler) taste(ctx context.Context, prefs models.UserPreferences, d *models.CandidateDestination, t *trail) {
	if d.TasteAffinity != nil {
		return
	}
	reason := skipReason(ctx, h.sources.Taste != nil)
	if reason == "" {
		v, err := h.sources.Taste.Affinity(ctx, d.Name, prefs.ContentFocus, d.Tags)
		if err == nil {
			d.TasteAffinity = &v
			return
		}
		reason = h.failure(capability.Qloo, d.Name, err)
	}
	d.TasteAffinity = h.resolver.TasteAffinity(reason, d.Name, prefs.ContentFocus, d.Tags)
	t.add(capability.Qloo, reason)
}

func (h *Handler) cost(ctx context.Context, prefs models.UserPreferences, d *models.CandidateDestination, t *trail) {
	if d.Cost != nil {
		return
	}
	reason := skipReason(ctx, h.sources.Cost != nil)
	if reason == "" {
		est, err := h.sources.Cost.Estimate(ctx, d.Name, d.Country, prefs)
		if err == nil {
			d.Cost = est
			return
		}
		reason = h.failure(capability.Amadeus, d.Name, err)
	}
	d.Cost = h.resolver.CostEstimate(reason, d.Name, d.Country, prefs)
	t.add(capability.Amadeus, reason)
}

func (h *Handler) creators(ctx context.Context, d *models.CandidateDestination, t *trail) {
	if d.Creators != nil {
		return
	}
	reason := skipReason(ctx, h.sources.Creators != nil)
	if reason == "" {
		data, err := h.sources.Creators.Creators(ctx, d.Name, d.Country)
		if err == nil {
			d.Creators = data
			return
		}
		reason = h.failure(capability.YouTube, d.Name, err)
	}
	d.Creators = h.resolver.Creators(reason, d.Name, d.Country, 0)
	t.add(capability.YouTube, reason)
}

func (h *Handler) social(ctx context.Context, d *models.CandidateDestination, t *trail) {
	if d.Engagement != nil && d.Brand != nil {
		return
	}
	reason := skipReason(ctx, h.sources.Social != nil)
	if reason == "" {
		in, err := h.sources.Social.Insights(ctx, d.Name)
		if err == nil {
			if d.Engagement == nil {
				d.Engagement = in.Engagement
			}
			if d.Brand == nil {
				d.Brand = in.Brand
			}
			if d.Engagement != nil && d.Brand != nil {
				return
			}
			reason = capability.ReasonNoData
		} else {
			reason = h.failure(capability.Instagram, d.Name, err)
		}
	}
	if d.Engagement == nil {
		d.Engagement = h.resolver.Engagement(reason, d.Name)
	}
	if d.Brand == nil {
		d.Brand = h.resolver.Brand(reason, d.Name)
	}
	t.add(capability.Instagram, reason)
}

func (h *Handler) events(ctx context.Context, d *models.CandidateDestination, t *trail) {
	if len(d.Highlights) > 0 {
		return
	}
	reason := skipReason(ctx, h.sources.Events != nil)
	if reason == "" {
		names, err := h.sources.Events.Highlights(ctx, d.Name, d.Country)
		if err == nil {
			d.Highlights = names
			return
		}
		reason = h.failure(capability.Places, d.Name, err)
	}
	d.Highlights = h.resolver.Events(reason, d.Name)
	t.add(capability.Places, reason)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output, start time.Time) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.failJob(ctx, client, job, errors.NewEnrichmentFailedError(err), start)
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	code := errors.Normalize(err).Code
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
