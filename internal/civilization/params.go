package civilization

import (
	"math"

	"civsim-server/internal/shared/errors"
)

type Motivation string

const (
	MotivationExpansion Motivation = "expansion"
	MotivationKnowledge Motivation = "knowledge"
	MotivationSeeding   Motivation = "seeding"
	MotivationResource  Motivation = "resource"
)

var Motivations = []Motivation{MotivationExpansion, MotivationKnowledge, MotivationSeeding, MotivationResource}

type BiologicalType string

const (
	BiologicalTypeBiological BiologicalType = "biological"
	BiologicalTypeArtificial BiologicalType = "artificial"
	BiologicalTypeHybrid     BiologicalType = "hybrid"
)

var BiologicalTypes = []BiologicalType{BiologicalTypeBiological, BiologicalTypeArtificial, BiologicalTypeHybrid}

type OrganizationType string

const (
	OrganizationTypeIndividual OrganizationType = "individual"
	OrganizationTypeHive       OrganizationType = "hive"
	OrganizationTypeSingular   OrganizationType = "singular"
)

var OrganizationTypes = []OrganizationType{OrganizationTypeIndividual, OrganizationTypeHive, OrganizationTypeSingular}

// Params is a civilization's identity and behavioral genome. Population
// and TechLevel are the initial values; the live totals are exposed by
// Civilization.
type Params struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	OriginStarID        string           `json:"origin_star"`
	Population          float64          `json:"population"`
	ReproductionRate    float64          `json:"reproduction_rate"`
	IndividualLifespan  float64          `json:"individual_lifespan"`
	ExpansionRate       float64          `json:"expansion_rate"`
	ExpansionRange      float64          `json:"expansion_range"`
	CooperationFactor   float64          `json:"cooperation_factor"`
	AggressionFactor    float64          `json:"aggression_factor"`
	FoundingDate        int              `json:"founding_date"`
	TechLevel           float64          `json:"tech_level"`
	TechAdvancementRate float64          `json:"tech_advancement_rate"`
	TimeHorizon         float64          `json:"time_horizon"`
	BiologicalType      BiologicalType   `json:"biological_type"`
	OrganizationType    OrganizationType `json:"organization_type"`
	Motivation          Motivation       `json:"motivation"`
}

// DefaultParams returns the baseline genome used when a caller only
// overrides a few traits.
func DefaultParams(id, name, originStarID string, foundingDate int) Params {
	return Params{
		ID:                  id,
		Name:                name,
		OriginStarID:        originStarID,
		Population:          1e6,
		ReproductionRate:    0.01,
		IndividualLifespan:  100,
		ExpansionRate:       0.05,
		ExpansionRange:      100,
		CooperationFactor:   0.5,
		AggressionFactor:    0.5,
		FoundingDate:        foundingDate,
		TechLevel:           1.0,
		TechAdvancementRate: 0.005,
		TimeHorizon:         1000,
		BiologicalType:      BiologicalTypeBiological,
		OrganizationType:    OrganizationTypeIndividual,
		Motivation:          MotivationExpansion,
	}
}

// Validate rejects genomes no simulation can run with.
func (p Params) Validate() error {
	if p.ID == "" {
		return errors.Validation("civilization id is required")
	}
	if p.OriginStarID == "" {
		return errors.Validationf("civilization %s: origin star is required", p.ID)
	}

	finite := map[string]float64{
		"population":            p.Population,
		"reproduction_rate":     p.ReproductionRate,
		"individual_lifespan":   p.IndividualLifespan,
		"expansion_rate":        p.ExpansionRate,
		"expansion_range":       p.ExpansionRange,
		"cooperation_factor":    p.CooperationFactor,
		"aggression_factor":     p.AggressionFactor,
		"tech_level":            p.TechLevel,
		"tech_advancement_rate": p.TechAdvancementRate,
		"time_horizon":          p.TimeHorizon,
	}
	for name, v := range finite {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Validationf("civilization %s: %s must be finite", p.ID, name)
		}
	}

	switch {
	case p.Population <= 0:
		return errors.Validationf("civilization %s: population must be positive, got %v", p.ID, p.Population)
	case p.IndividualLifespan <= 0:
		return errors.Validationf("civilization %s: individual lifespan must be positive, got %v", p.ID, p.IndividualLifespan)
	case p.ReproductionRate < 0:
		return errors.Validationf("civilization %s: reproduction rate must not be negative, got %v", p.ID, p.ReproductionRate)
	case p.ExpansionRate < 0:
		return errors.Validationf("civilization %s: expansion rate must not be negative, got %v", p.ID, p.ExpansionRate)
	case p.ExpansionRange < 0:
		return errors.Validationf("civilization %s: expansion range must not be negative, got %v", p.ID, p.ExpansionRange)
	case p.CooperationFactor < 0 || p.CooperationFactor > 1:
		return errors.Validationf("civilization %s: cooperation factor must be in [0,1], got %v", p.ID, p.CooperationFactor)
	case p.AggressionFactor < 0 || p.AggressionFactor > 1:
		return errors.Validationf("civilization %s: aggression factor must be in [0,1], got %v", p.ID, p.AggressionFactor)
	case p.TechLevel <= 0:
		return errors.Validationf("civilization %s: tech level must be positive, got %v", p.ID, p.TechLevel)
	case p.TechAdvancementRate <= -1:
		return errors.Validationf("civilization %s: tech advancement rate must be greater than -1, got %v", p.ID, p.TechAdvancementRate)
	case p.TimeHorizon < 0:
		return errors.Validationf("civilization %s: time horizon must not be negative, got %v", p.ID, p.TimeHorizon)
	}

	if !validMotivation(p.Motivation) {
		return errors.Validationf("civilization %s: unknown motivation %q", p.ID, p.Motivation)
	}
	if !validBiologicalType(p.BiologicalType) {
		return errors.Validationf("civilization %s: unknown biological type %q", p.ID, p.BiologicalType)
	}
	if !validOrganizationType(p.OrganizationType) {
		return errors.Validationf("civilization %s: unknown organization type %q", p.ID, p.OrganizationType)
	}
	return nil
}

func validMotivation(m Motivation) bool {
	for _, known := range Motivations {
		if m == known {
			return true
		}
	}
	return false
}

func validBiologicalType(b BiologicalType) bool {
	for _, known := range BiologicalTypes {
		if b == known {
			return true
		}
	}
	return false
}

func validOrganizationType(o OrganizationType) bool {
	for _, known := range OrganizationTypes {
		if o == known {
			return true
		}
	}
	return false
}
