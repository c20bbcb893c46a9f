// internal/models/recommendation.go
package models

// BudgetLevel is the tolerance band a destination's cost falls into.
type BudgetLevel string

const (
	BudgetAligned   BudgetLevel = "aligned"
	BudgetStretch   BudgetLevel = "stretch"
	BudgetOutOfBand BudgetLevel = "out_of_band"
)

// Rank orders levels for tie-breaking; lower is better.
func (l BudgetLevel) Rank() int {
	switch l {
	case BudgetAligned:
		return 0
	case BudgetStretch:
		return 1
	default:
		return 2
	}
}

// BudgetBand holds the tolerance windows around a target budget.
// Stretch starts just above AlignedMax.
type BudgetBand struct {
	Target     float64 `json:"target"`
	AlignedMin float64 `json:"alignedMin"`
	AlignedMax float64 `json:"alignedMax"`
	StretchMax float64 `json:"stretchMax"`
}

// BudgetStatus is the classification of one estimated total.
type BudgetStatus struct {
	Level          BudgetLevel `json:"level"`
	EstimatedTotal float64     `json:"estimatedTotal"`
	DeltaPercent   int         `json:"deltaPercent"`
	Badge          string      `json:"badge"`
}

// Signal names, in weight order.
const (
	SignalQlooAffinity        = "qlooAffinity"
	SignalCommunityEngagement = "communityEngagement"
	SignalBrandCollaboration  = "brandCollaboration"
	SignalBudgetAlignment     = "budgetAlignment"
	SignalLocalCreator        = "localCreator"
)

// ScoringSignals are the five raw inputs to the composite score. A nil value
// means the source was unavailable.
type ScoringSignals struct {
	QlooAffinity        *float64 `json:"qlooAffinity,omitempty"`
	CommunityEngagement *float64 `json:"communityEngagement,omitempty"`
	BrandCollaboration  *float64 `json:"brandCollaboration,omitempty"`
	BudgetAlignment     *float64 `json:"budgetAlignment,omitempty"`
	LocalCreator        *float64 `json:"localCreator,omitempty"`
}

// WithLocalCreator returns a copy with the local creator signal replaced.
func (s ScoringSignals) WithLocalCreator(v *float64) ScoringSignals {
	s.LocalCreator = v
	return s
}

// CreatorGatingResult decides whether a collaboration block is shown.
type CreatorGatingResult struct {
	ActiveCreatorCount      int     `json:"activeCreatorCount"`
	ShouldShowCollaboration bool    `json:"shouldShowCollaboration"`
	CollaborationScore      float64 `json:"collaborationScore"`
	Reason                  string  `json:"reason,omitempty"`
	DataAvailable           bool    `json:"dataAvailable"`
}

// ScoredDestination is an immutable pipeline result for one destination.
type ScoredDestination struct {
	Destination    CandidateDestination `json:"destination"`
	Signals        map[string]float64   `json:"signals"`
	MissingSignals []string             `json:"missingSignals,omitempty"`
	TotalScore     float64              `json:"totalScore"`
	MatchScore     int                  `json:"matchScore"`
	Budget         BudgetStatus         `json:"budget"`
	Gating         CreatorGatingResult  `json:"gating"`
}

// NoFit is the terminal outcome when nothing survives the hard filter.
type NoFit struct {
	TargetBudget   float64 `json:"targetBudget"`
	Currency       string  `json:"currency"`
	CandidateCount int     `json:"candidateCount"`
	Message        string  `json:"message"`
}

// DroppedDestination records why a candidate left the pipeline.
type DroppedDestination struct {
	Name   string `json:"name"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}
