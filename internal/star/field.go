package star

import (
	"fmt"
	"math"
	"slices"

	"civsim-server/internal/shared/errors"
)

// Rand is the random source used for star generation.
type Rand interface {
	Float64() float64
}

// FieldConfig controls star generation.
type FieldConfig struct {
	// Size is the side length of the cube, centered on the origin.
	Size float64
	// ResourceFalloff is the fraction of a star's base resources lost at
	// FalloffRadius from the center. Falloff is linear in distance.
	ResourceFalloff float64
	// FalloffRadius is the falloff reference distance as a fraction of
	// Size/2.
	FalloffRadius float64
	// PlanetProbability is the success probability of the geometric
	// planet-count distribution.
	PlanetProbability float64
	MaxPlanets        int
	// GridCellSize selects a GridIndex when positive, a LinearIndex
	// otherwise.
	GridCellSize float64
}

func DefaultFieldConfig(size float64) FieldConfig {
	return FieldConfig{
		Size:              size,
		ResourceFalloff:   0.5,
		FalloffRadius:     1.0,
		PlanetProbability: 0.2,
		MaxPlanets:        10,
	}
}

func (c FieldConfig) validate() error {
	if !(c.Size > 0) {
		return errors.Validationf("universe size must be positive, got %v", c.Size)
	}
	if c.ResourceFalloff < 0 || c.ResourceFalloff > 1 {
		return errors.Validationf("resource falloff must be in [0,1], got %v", c.ResourceFalloff)
	}
	if !(c.FalloffRadius > 0) {
		return errors.Validationf("falloff radius must be positive, got %v", c.FalloffRadius)
	}
	if !(c.PlanetProbability > 0) || c.PlanetProbability > 1 {
		return errors.Validationf("planet probability must be in (0,1], got %v", c.PlanetProbability)
	}
	if c.MaxPlanets < 1 {
		return errors.Validationf("max planets must be at least 1, got %d", c.MaxPlanets)
	}
	if c.GridCellSize < 0 {
		return errors.Validationf("grid cell size must not be negative, got %v", c.GridCellSize)
	}
	return nil
}

// Field is the immutable star registry.
type Field struct {
	size  float64
	stars []*Star
	byID  map[string]*Star
	index Index
}

// Generate builds a field of count random stars. Each star draws, in
// order, its x, y, z coordinates, a base resource value and then its
// planet count from rng.
func Generate(count int, cfg FieldConfig, rng Rand) (*Field, error) {
	if count <= 0 {
		return nil, errors.Validationf("star count must be positive, got %d", count)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	half := cfg.Size / 2
	radius := half * cfg.FalloffRadius
	stars := make([]*Star, 0, count)

	for i := 0; i < count; i++ {
		position := Vec3{
			X: rng.Float64()*cfg.Size - half,
			Y: rng.Float64()*cfg.Size - half,
			Z: rng.Float64()*cfg.Size - half,
		}

		base := rng.Float64()
		modifier := 1 - (position.Norm()/radius)*cfg.ResourceFalloff
		resources := math.Max(0, math.Min(1, base*modifier))

		planets := geometric(rng, cfg.PlanetProbability, cfg.MaxPlanets)

		stars = append(stars, New(
			fmt.Sprintf("star_%d", i),
			fmt.Sprintf("Star-%d", i),
			position,
			resources,
			planets,
		))
	}

	return newField(cfg.Size, stars, cfg.GridCellSize)
}

// NewField builds a field from explicit stars, keeping their order.
func NewField(size float64, stars []*Star, gridCellSize float64) (*Field, error) {
	if len(stars) == 0 {
		return nil, errors.Validation("star field must contain at least one star")
	}
	for _, s := range stars {
		if s == nil {
			return nil, errors.Validation("star must not be nil")
		}
		if s.Resources < 0 || s.Resources > 1 || math.IsNaN(s.Resources) {
			return nil, errors.Validationf("star %s: resources must be in [0,1], got %v", s.ID, s.Resources)
		}
		if s.Planets < 1 {
			return nil, errors.Validationf("star %s: planet count must be at least 1, got %d", s.ID, s.Planets)
		}
	}
	if gridCellSize < 0 {
		return nil, errors.Validationf("grid cell size must not be negative, got %v", gridCellSize)
	}
	return newField(size, stars, gridCellSize)
}

func newField(size float64, stars []*Star, gridCellSize float64) (*Field, error) {
	f := &Field{
		size:  size,
		stars: stars,
		byID:  make(map[string]*Star, len(stars)),
	}
	for i, s := range stars {
		if _, dup := f.byID[s.ID]; dup {
			return nil, errors.Conflictf("duplicate star id %s", s.ID)
		}
		s.seq = i
		f.byID[s.ID] = s
	}

	if gridCellSize > 0 {
		f.index = NewGridIndex(stars, gridCellSize)
	} else {
		f.index = NewLinearIndex(stars)
	}
	return f, nil
}

// geometric draws the trial number of the first success, capped at limit.
func geometric(rng Rand, p float64, limit int) int {
	k := 1
	for k < limit && rng.Float64() >= p {
		k++
	}
	return k
}

func (f *Field) Size() float64 {
	return f.size
}

func (f *Field) Len() int {
	return len(f.stars)
}

func (f *Field) Star(id string) (*Star, bool) {
	s, ok := f.byID[id]
	return s, ok
}

// Stars returns all stars in generation order.
func (f *Field) Stars() []*Star {
	return slices.Clone(f.stars)
}

// Nearby returns the stars at distance (0, rangeLimit] from pos.
func (f *Field) Nearby(pos Vec3, rangeLimit float64) []*Star {
	return f.index.Within(pos, rangeLimit)
}

func (f *Field) Distance(a, b *Star) float64 {
	return a.DistanceTo(b)
}

// TopByResources returns up to n stars ordered by descending resources.
// Ties keep generation order.
func (f *Field) TopByResources(n int) []*Star {
	ranked := slices.Clone(f.stars)
	slices.SortStableFunc(ranked, func(a, b *Star) int {
		switch {
		case a.Resources > b.Resources:
			return -1
		case a.Resources < b.Resources:
			return 1
		default:
			return 0
		}
	})
	if n < len(ranked) {
		ranked = ranked[:max(n, 0)]
	}
	return ranked
}
