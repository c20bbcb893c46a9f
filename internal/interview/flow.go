// Package interview runs the adaptive preference interview: at most five
// substantive questions followed by one closing constraints question.
package interview

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"creator-trips/internal/capability"
	"creator-trips/internal/common/errors"
	"creator-trips/internal/common/logger"
	"creator-trips/internal/common/metrics"
	"creator-trips/internal/models"

	"github.com/google/uuid"
)

// MaxQuestions is the hard cap on substantive questions.
const MaxQuestions = 5

const minOptions = 3

// Question sources.
const (
	SourceAdaptive = "adaptive"
	SourceTemplate = "template"
	SourceClosing  = "closing"
)

// GenerationRequest is everything an adaptive generator may use.
type GenerationRequest struct {
	Topic             string              `json:"topic"`
	QuestionNumber    int                 `json:"questionNumber"` // 1-based, the question being generated
	Answers           map[string][]string `json:"answers"`
	PreviousQuestions []string            `json:"previousQuestions"`
	BudgetTier        Tier                `json:"budgetTier,omitempty"`
	DurationDays      int                 `json:"durationDays,omitempty"`
}

// Generator produces an adaptive question for a topic.
type Generator interface {
	GenerateQuestion(ctx context.Context, req GenerationRequest) (*models.DynamicQuestion, error)
}

// Turn is the outcome of one Next call: a question, or completion with the
// final answers.
type Turn struct {
	Question *models.DynamicQuestion `json:"question,omitempty"`
	Source   string                  `json:"source,omitempty"`
	Complete bool                    `json:"complete"`
	Answers  map[string][]string     `json:"answers,omitempty"`
}

type Flow struct {
	generator    Generator
	maxQuestions int
	logger       logger.Logger
}

// NewFlow builds a flow. The generator is only used when the genai provider
// is enabled in the matrix.
func NewFlow(matrix *capability.Matrix, generator Generator, maxQuestions int, log logger.Logger) *Flow {
	if !matrix.Enabled(capability.GenAI) {
		generator = nil
	}
	if maxQuestions < 1 || maxQuestions > MaxQuestions {
		maxQuestions = MaxQuestions
	}
	return &Flow{
		generator:    generator,
		maxQuestions: maxQuestions,
		logger:       log.WithFields(map[string]interface{}{"component": "question-flow"}),
	}
}

// NewSession starts an empty interview.
func NewSession() *models.QuestionSession {
	return &models.QuestionSession{
		ID:      uuid.NewString(),
		Answers: make(map[string][]string),
	}
}

// Answer records the answer to the pending question. A budget answer with no
// readable amount is rejected and the question stays pending.
func (f *Flow) Answer(session *models.QuestionSession, questionID string, values []string) error {
	if session == nil {
		return errors.NewInvalidSessionError("session is required")
	}
	if session.PendingQuestionID == "" || session.PendingQuestionID != questionID {
		if session.Answered(questionID) {
			return errors.NewAnswerAlreadyRecordedError(questionID)
		}
		return errors.NewInvalidSessionError(fmt.Sprintf("question %q is not awaiting an answer", questionID))
	}
	if questionID == TopicBudget && !budgetReadable(values) {
		return errors.NewInvalidPreferencesError(fmt.Sprintf("budget answer %q has no amount", strings.Join(values, ", ")))
	}
	if err := session.RecordAnswer(questionID, values); err != nil {
		if stderrs.Is(err, models.ErrAnswerRecorded) {
			return errors.NewAnswerAlreadyRecordedError(questionID)
		}
		return errors.NewInvalidSessionError(err.Error())
	}
	session.PendingQuestionID = ""
	return nil
}

// Next advances the interview by one turn. A session waiting for an answer
// is rejected.
func (f *Flow) Next(ctx context.Context, session *models.QuestionSession) (Turn, error) {
	if session == nil {
		return Turn{}, errors.NewInvalidSessionError("session is required")
	}
	if session.Answers == nil {
		session.Answers = make(map[string][]string)
	}
	if session.Complete {
		return f.complete(session), nil
	}
	if session.PendingQuestionID != "" {
		return Turn{}, errors.NewInvalidSessionError(fmt.Sprintf("question %q is still awaiting an answer", session.PendingQuestionID))
	}

	if session.ClosingAsked {
		session.Complete = true
		return f.complete(session), nil
	}

	topic := f.nextTopic(session)
	if session.QuestionNumber >= f.maxQuestions || topic == "" {
		return f.closing(session), nil
	}

	tc := contextOf(session)
	number := session.QuestionNumber + 1

	q, source := f.adaptive(ctx, session, topic, number, tc)
	if q == nil {
		q, source = f.template(topic, tc), SourceTemplate
	}

	session.QuestionNumber = number
	session.PreviousQuestions = append(session.PreviousQuestions, q.Text)
	session.PendingQuestionID = q.ID
	metrics.InterviewQuestions.WithLabelValues(source).Inc()

	f.logger.Debug("question issued", map[string]interface{}{
		"sessionId":      session.ID,
		"questionNumber": number,
		"topic":          topic,
		"source":         source,
	})
	return Turn{Question: q, Source: source}, nil
}

func (f *Flow) complete(session *models.QuestionSession) Turn {
	return Turn{Complete: true, Answers: copyAnswers(session.Answers)}
}

func copyAnswers(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func (f *Flow) closing(session *models.QuestionSession) Turn {
	q := ClosingQuestion()
	session.ClosingAsked = true
	session.PendingQuestionID = q.ID
	session.PreviousQuestions = append(session.PreviousQuestions, q.Text)
	metrics.InterviewQuestions.WithLabelValues(SourceClosing).Inc()
	return Turn{Question: q, Source: SourceClosing}
}

// nextTopic is the first unanswered topic in priority order.
func (f *Flow) nextTopic(session *models.QuestionSession) string {
	for _, t := range TopicOrder {
		if !session.Answered(t) {
			return t
		}
	}
	return ""
}

// adaptive asks the generator and keeps its question only if it is new and
// still offers enough options after filtering.
func (f *Flow) adaptive(ctx context.Context, session *models.QuestionSession, topic string, number int, tc tripContext) (*models.DynamicQuestion, string) {
	if f.generator == nil {
		return nil, ""
	}

	q, err := f.generator.GenerateQuestion(ctx, GenerationRequest{
		Topic:             topic,
		QuestionNumber:    number,
		Answers:           copyAnswers(session.Answers),
		PreviousQuestions: append([]string(nil), session.PreviousQuestions...),
		BudgetTier:        tc.Tier,
		DurationDays:      tc.Days,
	})
	if err != nil {
		f.logger.Warn("adaptive question generation failed, using template", map[string]interface{}{
			"sessionId": session.ID,
			"topic":     topic,
			"error":     err,
		})
		return nil, ""
	}
	if q == nil || strings.TrimSpace(q.Text) == "" {
		f.logger.Warn("adaptive generator returned an empty question", map[string]interface{}{
			"sessionId": session.ID,
			"topic":     topic,
		})
		return nil, ""
	}
	if session.HasAsked(q.Text) {
		f.logger.Warn("adaptive generator repeated a question", map[string]interface{}{
			"sessionId": session.ID,
			"topic":     topic,
		})
		return nil, ""
	}

	out := *q
	out.ID = topic
	out.Text = strings.TrimSpace(q.Text)
	out.Options = FilterOptions(q.Options, tc.constraints())
	if topic == TopicBudget {
		out.Options = readableBudgets(out.Options)
	}
	out.ContextAware = true
	if len(out.Options) < minOptions {
		f.logger.Info("adaptive question has too few usable options", map[string]interface{}{
			"sessionId": session.ID,
			"topic":     topic,
			"options":   len(out.Options),
		})
		return nil, ""
	}
	return &out, SourceAdaptive
}

func (f *Flow) template(topic string, tc tripContext) *models.DynamicQuestion {
	q := Template(topic, tc)
	q.Options = FilterOptions(q.Options, tc.constraints())
	return q
}

// Preferences turns a finished interview into pipeline input.
func (f *Flow) Preferences(session *models.QuestionSession) (models.UserPreferences, error) {
	if session == nil {
		return models.UserPreferences{}, errors.NewInvalidSessionError("session is required")
	}

	amount, ok := ParseBudget(session.Answer(TopicBudget))
	if !ok {
		return models.UserPreferences{}, errors.NewInvalidPreferencesError("budget answer is missing or unreadable")
	}
	days, ok := ParseDuration(session.Answer(TopicDuration))
	if !ok {
		days = assumedTripLength
	}

	prefs := models.UserPreferences{
		Budget:        models.Money{Amount: amount, Currency: "USD"},
		DurationDays:  days,
		Travelers:     1,
		TravelStyle:   session.Answer(TopicStyle),
		Accommodation: session.Answer(TopicAccommodation),
		Priorities:    append([]string(nil), session.Answers[TopicPriorities]...),
		Climate:       append([]string(nil), session.Answers["climate"]...),
	}

	interests := session.Answers[TopicInterests]
	switch {
	case len(interests) > 0:
		prefs.ContentFocus = strings.Join(interests, ", ")
	case len(prefs.Priorities) > 0:
		prefs.ContentFocus = strings.Join(prefs.Priorities, ", ")
	}

	for _, c := range session.Answers[TopicConstraints] {
		if !strings.EqualFold(c, NoConstraints) {
			prefs.Constraints = append(prefs.Constraints, c)
		}
	}
	return prefs, nil
}
