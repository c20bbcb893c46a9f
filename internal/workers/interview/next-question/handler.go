// internal/workers/interview/next-question/handler.go
package nextquestion

import (
	"context"
	"encoding/json"
	"time"

	"creator-trips/internal/common/errors"
	"creator-trips/internal/common/logger"
	"creator-trips/internal/common/metrics"
	"creator-trips/internal/common/observability"
	"creator-trips/internal/common/validation"
	"creator-trips/internal/interview"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "next-interview-question"
)

var inputValidator = validation.MustValidator(InputSchema)

type Handler struct {
	config       *Config
	flow         *interview.Flow
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, flow *interview.Flow, obs *observability.Observability, log logger.Logger) *Handler {
	if obs == nil {
		obs = &observability.Observability{}
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		flow:         flow,
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
	session := input.Session
	if session == nil {
		if input.Answer != nil {
			return nil, errors.NewInvalidSessionError("answer given without an interview session")
		}
		session = interview.NewSession()
		h.logger.Info("interview started", map[string]interface{}{"sessionId": session.ID})
	}

	if input.Answer != nil {
		if err := h.flow.Answer(session, input.Answer.QuestionID, input.Answer.Values); err != nil {
			return nil, err
		}
	}

	turn, err := h.flow.Next(ctx, session)
	if err != nil {
		return nil, err
	}

	output := &Output{
		Session:           session,
		Question:          turn.Question,
		QuestionSource:    turn.Source,
		InterviewComplete: turn.Complete,
	}
	if !turn.Complete {
		return output, nil
	}

	prefs, err := h.flow.Preferences(session)
	if err != nil {
		return nil, err
	}
	output.Answers = turn.Answers
	output.Preferences = &prefs

	h.logger.Info("interview complete", map[string]interface{}{
		"sessionId": session.ID,
		"questions": session.QuestionNumber,
		"budget":    prefs.Budget.Amount,
	})
	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output, start time.Time) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.failJob(ctx, client, job, errors.NewInvalidSessionError(err.Error()), start)
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
