package event

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogEventsAreCopies(t *testing.T) {
	var log Log
	log.Append(Expansion(10, "star_1", "star_2", 12.5, 1000))

	events := log.Events()
	events[0].Data["to_star"] = "tampered"
	events[0].Date = 99

	stored := log.Events()[0]
	assert.Equal(t, "star_2", stored.Data["to_star"])
	assert.Equal(t, 10, stored.Date)
}

func TestLogLastAndFilter(t *testing.T) {
	var log Log
	log.Append(Founding(0, "star_0", 1, 1e6))
	log.Append(Expansion(10, "star_0", "star_3", 5, 1e5))
	log.Append(TechExchange(11, "civ_2", "star_3", 0.02))
	log.Append(Expansion(12, "star_3", "star_4", 7, 9e4))

	last := log.Last(2)
	require.Len(t, last, 2)
	assert.Equal(t, KindTechExchange, last[0].Kind)
	assert.Equal(t, KindExpansion, last[1].Kind)
	assert.Len(t, log.Last(10), 4)
	assert.Nil(t, log.Last(0))

	assert.Len(t, log.Filter(KindExpansion), 2)
	assert.Empty(t, log.Filter(KindConflictWon))
}

func TestEventJSONShape(t *testing.T) {
	raw, err := json.Marshal(Statistics(20, 3, 2.5e6, 17))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, float64(20), decoded["date"])
	assert.Equal(t, "statistics", decoded["event"])
	data := decoded["data"].(map[string]any)
	assert.Equal(t, float64(3), data["civilizations"])
	assert.Equal(t, float64(17), data["inhabited_stars"])
}

func TestEventJSONKeepsNonFiniteValues(t *testing.T) {
	e := TechExchange(40, "civ_2", "star_3", math.Inf(1))

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "Infinity", decoded.Data["tech_boost"])
	assert.Equal(t, "star_3", decoded.Data["at_star"])

	// The in-memory payload is untouched.
	assert.True(t, math.IsInf(e.Data["tech_boost"].(float64), 1))
}

func TestKindValid(t *testing.T) {
	assert.True(t, KindExtinctionCaused.Valid())
	assert.False(t, Kind("supernova").Valid())
}
