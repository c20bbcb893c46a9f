// Package capability records which upstream data providers are usable and
// supplies deterministic substitutes for the ones that are not.
package capability

import (
	"regexp"
	"sort"
	"strings"

	"creator-trips/internal/common/config"
)

// Provider names.
const (
	Qloo      = "qloo"
	Amadeus   = "amadeus"
	Places    = "places"
	FactCheck = "factcheck"
	YouTube   = "youtube"
	Instagram = "instagram"
	GenAI     = "genai"
	Email     = "email"
)

// Fallback strategies.
const (
	StrategyContentDerivedTaste = "content_derived_taste"
	StrategyHeuristicBudget     = "heuristic_budget_bands"
	StrategyOmitEvents          = "omit_events"
	StrategyOmit                = "omit"
	StrategyEstimatedCreators   = "estimated_creators"
	StrategyNeutralEngagement   = "neutral_engagement"
	StrategyTemplateQuestions   = "template_questions"
)

// Status is the capability record of one provider.
type Status struct {
	Provider string   `json:"provider"`
	Enabled  bool     `json:"enabled"`
	Fallback string   `json:"fallback"`
	Missing  []string `json:"missing,omitempty"`
}

type requirement struct {
	fallback string
	fields   func(config.ProviderConfig) map[string]string
}

func keyOnly(p config.ProviderConfig) map[string]string {
	return map[string]string{"api_key": p.APIKey}
}

func keyAndURL(p config.ProviderConfig) map[string]string {
	return map[string]string{"api_key": p.APIKey, "base_url": p.BaseURL}
}

func amadeusFields(p config.ProviderConfig) map[string]string {
	return map[string]string{"api_key": p.APIKey, "api_secret": p.APISecret, "base_url": p.BaseURL}
}

func emailFields(p config.ProviderConfig) map[string]string {
	return map[string]string{"from_email": p.FromEmail, "region": p.Region}
}

var requirements = map[string]requirement{
	Qloo:      {StrategyContentDerivedTaste, keyAndURL},
	Amadeus:   {StrategyHeuristicBudget, amadeusFields},
	Places:    {StrategyOmitEvents, keyOnly},
	FactCheck: {StrategyOmit, keyOnly},
	YouTube:   {StrategyEstimatedCreators, keyOnly},
	Instagram: {StrategyNeutralEngagement, keyAndURL},
	GenAI:     {StrategyTemplateQuestions, keyAndURL},
	Email:     {StrategyOmit, emailFields},
}

// Matrix is built once at start-up and is read-only afterwards.
type Matrix struct {
	statuses map[string]Status
}

// NewMatrix inspects provider configuration. It performs no network calls.
func NewMatrix(cfg config.ProvidersConfig) *Matrix {
	byName := map[string]config.ProviderConfig{
		Qloo:      cfg.Qloo,
		Amadeus:   cfg.Amadeus,
		Places:    cfg.Places,
		FactCheck: cfg.FactCheck,
		YouTube:   cfg.YouTube,
		Instagram: cfg.Instagram,
		GenAI:     cfg.GenAI,
		Email:     cfg.Email,
	}

	m := &Matrix{statuses: make(map[string]Status, len(requirements))}
	for name, req := range requirements {
		var missing []string
		for field, value := range req.fields(byName[name]) {
			if !IsConfigured(value) {
				missing = append(missing, field)
			}
		}
		sort.Strings(missing)
		m.statuses[name] = Status{
			Provider: name,
			Enabled:  len(missing) == 0,
			Fallback: req.fallback,
			Missing:  missing,
		}
	}
	return m
}

// Status returns the record for name. Unknown providers are disabled.
func (m *Matrix) Status(name string) Status {
	if m == nil {
		return Status{Provider: name}
	}
	if s, ok := m.statuses[name]; ok {
		return s
	}
	return Status{Provider: name, Fallback: StrategyOmit}
}

func (m *Matrix) Enabled(name string) bool {
	return m.Status(name).Enabled
}

// Snapshot lists every provider sorted by name.
func (m *Matrix) Snapshot() []Status {
	if m == nil {
		return nil
	}
	out := make([]Status, 0, len(m.statuses))
	for _, s := range m.statuses {
		s.Missing = append([]string(nil), s.Missing...)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}

var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^your[_-]`),
	regexp.MustCompile(`[_-]here$`),
	regexp.MustCompile(`^x{3,}$`),
	regexp.MustCompile(`\$\{[^}]*\}`),
	regexp.MustCompile(`^<.*>$`),
}

var placeholderWords = map[string]bool{
	"changeme":    true,
	"change_me":   true,
	"placeholder": true,
	"todo":        true,
	"none":        true,
	"null":        true,
}

// IsConfigured reports whether value is non-empty and not a template placeholder.
func IsConfigured(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || placeholderWords[v] {
		return false
	}
	for _, re := range placeholderPatterns {
		if re.MatchString(v) {
			return false
		}
	}
	return true
}
