package star

import (
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Vec3 is a position in the field's cubic space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo is the Euclidean distance between v and o.
func (v Vec3) DistanceTo(o Vec3) float64 {
	return v.Sub(o).Norm()
}

// Visit is the first recorded visit of a civilization to a star.
type Visit struct {
	CivilizationID string `json:"civilization_id"`
	Date           int    `json:"date"`
}

// Star is a star system. Everything but the visitor record is fixed once
// the field has been built.
type Star struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Position  Vec3    `json:"position"`
	Resources float64 `json:"resources"`
	Planets   int     `json:"planets"`

	seq      int
	visitors *orderedmap.OrderedMap[string, int]
}

func New(id, name string, position Vec3, resources float64, planets int) *Star {
	return &Star{
		ID:        id,
		Name:      name,
		Position:  position,
		Resources: resources,
		Planets:   planets,
		visitors:  orderedmap.New[string, int](),
	}
}

func (s *Star) DistanceTo(other *Star) float64 {
	return s.Position.DistanceTo(other.Position)
}

// CarryingCapacity is the largest local population the star sustains.
func (s *Star) CarryingCapacity() float64 {
	return s.Resources * 1e9 * float64(s.Planets)
}

// RecordVisit stores the first visit date of civID. Later calls for the
// same civilization are no-ops; the return value reports whether the
// visit was new.
func (s *Star) RecordVisit(civID string, date int) bool {
	if s.visitors == nil {
		s.visitors = orderedmap.New[string, int]()
	}
	if _, ok := s.visitors.Get(civID); ok {
		return false
	}
	s.visitors.Set(civID, date)
	return true
}

// FirstVisit returns the date civID first visited the star.
func (s *Star) FirstVisit(civID string) (int, bool) {
	if s.visitors == nil {
		return 0, false
	}
	return s.visitors.Get(civID)
}

// Visitors returns a copy of the visitor record in first-visit order.
func (s *Star) Visitors() []Visit {
	if s.visitors == nil {
		return nil
	}
	visits := make([]Visit, 0, s.visitors.Len())
	for pair := s.visitors.Oldest(); pair != nil; pair = pair.Next() {
		visits = append(visits, Visit{CivilizationID: pair.Key, Date: pair.Value})
	}
	return visits
}

func (s *Star) VisitorCount() int {
	if s.visitors == nil {
		return 0
	}
	return s.visitors.Len()
}
