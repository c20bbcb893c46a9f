package providers

import (
	"creator-trips/internal/capability"
	"creator-trips/internal/common/config"
)

// Set holds one client per enabled provider. Disabled providers stay nil and
// callers go straight to the fallback resolver.
type Set struct {
	Taste    *TasteClient
	Cost     *CostClient
	Creators *CreatorClient
	Social   *SocialClient
	Places   *PlacesClient
	GenAI    *GenAIClient
}

func NewSet(cfg config.ProvidersConfig, matrix *capability.Matrix, opts Options) *Set {
	s := &Set{}
	if matrix.Enabled(capability.Qloo) {
		s.Taste = NewTasteClient(cfg.Qloo, opts)
	}
	if matrix.Enabled(capability.Amadeus) {
		s.Cost = NewCostClient(cfg.Amadeus, opts)
	}
	if matrix.Enabled(capability.YouTube) {
		s.Creators = NewCreatorClient(cfg.YouTube, opts)
	}
	if matrix.Enabled(capability.Instagram) {
		s.Social = NewSocialClient(cfg.Instagram, opts)
	}
	if matrix.Enabled(capability.Places) {
		s.Places = NewPlacesClient(cfg.Places, opts)
	}
	if matrix.Enabled(capability.GenAI) {
		s.GenAI = NewGenAIClient(cfg.GenAI, opts)
	}
	return s
}
