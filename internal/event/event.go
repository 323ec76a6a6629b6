// Package event defines the append-only history records written by
// civilizations and the universe.
package event

import (
	"encoding/json"
	"maps"
	"slices"

	"civsim-server/internal/shared/number"
)

type Kind string

const (
	KindFounding            Kind = "founding"
	KindExpansion           Kind = "expansion"
	KindTechExchange        Kind = "tech_exchange"
	KindConflictWon         Kind = "conflict_won"
	KindConflictLost        Kind = "conflict_lost"
	KindExtinction          Kind = "extinction"
	KindExtinctionCaused    Kind = "extinction_caused"
	KindNewCivilization     Kind = "new_civilization"
	KindCivilizationExtinct Kind = "civilization_extinct"
	KindStatistics          Kind = "statistics"
)

var kinds = []Kind{
	KindFounding,
	KindExpansion,
	KindTechExchange,
	KindConflictWon,
	KindConflictLost,
	KindExtinction,
	KindExtinctionCaused,
	KindNewCivilization,
	KindCivilizationExtinct,
	KindStatistics,
}

func (k Kind) Valid() bool {
	return slices.Contains(kinds, k)
}

type Event struct {
	Date int            `json:"date"`
	Kind Kind           `json:"event"`
	Data map[string]any `json:"data"`
}

// MarshalJSON writes non-finite payload values in their string form.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	out := plain(e)
	if e.Data != nil {
		out.Data = make(map[string]any, len(e.Data))
		for k, v := range e.Data {
			if f, ok := v.(float64); ok {
				out.Data[k] = number.Safe(f)
				continue
			}
			out.Data[k] = v
		}
	}
	return json.Marshal(out)
}

func (e Event) clone() Event {
	e.Data = maps.Clone(e.Data)
	return e
}

// Log is an append-only event sequence.
type Log struct {
	events []Event
}

func (l *Log) Append(e Event) {
	l.events = append(l.events, e)
}

func (l *Log) Len() int {
	return len(l.events)
}

// Events returns a copy of the log; callers may not reach the stored
// payloads through it.
func (l *Log) Events() []Event {
	out := make([]Event, len(l.events))
	for i, e := range l.events {
		out[i] = e.clone()
	}
	return out
}

// Last returns a copy of the n most recent events.
func (l *Log) Last(n int) []Event {
	if n <= 0 {
		return nil
	}
	start := max(len(l.events)-n, 0)
	out := make([]Event, 0, len(l.events)-start)
	for _, e := range l.events[start:] {
		out = append(out, e.clone())
	}
	return out
}

// Filter returns copies of the events of the given kind.
func (l *Log) Filter(kind Kind) []Event {
	var out []Event
	for _, e := range l.events {
		if e.Kind == kind {
			out = append(out, e.clone())
		}
	}
	return out
}

func Founding(date int, starID string, techLevel, population float64) Event {
	return Event{Date: date, Kind: KindFounding, Data: map[string]any{
		"star":       starID,
		"tech_level": techLevel,
		"population": population,
	}}
}

func Expansion(date int, fromStar, toStar string, distance, colonySize float64) Event {
	return Event{Date: date, Kind: KindExpansion, Data: map[string]any{
		"from_star":   fromStar,
		"to_star":     toStar,
		"distance":    distance,
		"colony_size": colonySize,
	}}
}

func TechExchange(date int, withCiv, atStar string, boost float64) Event {
	return Event{Date: date, Kind: KindTechExchange, Data: map[string]any{
		"with_civilization": withCiv,
		"at_star":           atStar,
		"tech_boost":        boost,
	}}
}

func ConflictWon(date int, against, atStar string, captured float64) Event {
	return Event{Date: date, Kind: KindConflictWon, Data: map[string]any{
		"against_civilization": against,
		"at_star":              atStar,
		"captured_population":  captured,
	}}
}

func ConflictLost(date int, against, atStar string, lost float64) Event {
	return Event{Date: date, Kind: KindConflictLost, Data: map[string]any{
		"against_civilization": against,
		"at_star":              atStar,
		"lost_population":      lost,
	}}
}

func Extinction(date int, causedBy string) Event {
	return Event{Date: date, Kind: KindExtinction, Data: map[string]any{
		"caused_by": causedBy,
	}}
}

func ExtinctionCaused(date int, civID string) Event {
	return Event{Date: date, Kind: KindExtinctionCaused, Data: map[string]any{
		"civilization": civID,
	}}
}

func NewCivilization(date int, id, name, originStar string) Event {
	return Event{Date: date, Kind: KindNewCivilization, Data: map[string]any{
		"id":          id,
		"name":        name,
		"origin_star": originStar,
	}}
}

func CivilizationExtinct(date int, id, name string, existedFor int) Event {
	return Event{Date: date, Kind: KindCivilizationExtinct, Data: map[string]any{
		"id":          id,
		"name":        name,
		"existed_for": existedFor,
	}}
}

func Statistics(date, civilizations int, totalPopulation float64, inhabitedStars int) Event {
	return Event{Date: date, Kind: KindStatistics, Data: map[string]any{
		"civilizations":    civilizations,
		"total_population": totalPopulation,
		"inhabited_stars":  inhabitedStars,
	}}
}
