package snapshot

import (
	"testing"

	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/stretchr/testify/assert"
)

func TestHashIsOrderIndependent(t *testing.T) {
	a := platform.ResourceState{
		"id":     "c1",
		"name":   "Spring Sale",
		"status": "active",
		"budget": 1000.0,
		"targeting": map[string]any{
			"countries": []any{"US", "CA"},
			"age_min":   18.0,
		},
	}
	b := platform.ResourceState{
		"budget": 1000.0,
		"targeting": map[string]any{
			"age_min":   18.0,
			"countries": []any{"US", "CA"},
		},
		"status": "active",
		"id":     "c1",
		"name":   "Spring Sale",
	}

	assert.Equal(t, Hash(a), Hash(b))
}

func TestHashChangesWithValues(t *testing.T) {
	base := platform.ResourceState{"id": "c1", "name": "A", "status": "active"}
	changed := platform.ResourceState{"id": "c1", "name": "A", "status": "paused"}

	assert.NotEqual(t, Hash(base), Hash(changed))
}

func TestHashDistinguishesTypes(t *testing.T) {
	asNumber := platform.ResourceState{"id": "c1", "budget": 100.0}
	asString := platform.ResourceState{"id": "c1", "budget": "100"}

	assert.NotEqual(t, Hash(asNumber), Hash(asString))
}

func TestCanonicalSortsNestedKeys(t *testing.T) {
	got := Canonical(map[string]any{"b": 1.0, "a": map[string]any{"z": true, "y": nil}})
	assert.Equal(t, `{"a":{"y":null,"z":true},"b":1}`, got)
}
