package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attrs(overrides map[string]any) map[string]any {
	base := map[string]any{
		"platform":      "meta",
		"ad_account_id": "1234",
		"change_type":   "updated",
		"resource_type": "campaign",
		"resource_id":   "c1",
		"severity":      "warning",
		"before_value":  map[string]any{"daily_budget": 100},
		"after_value":   map[string]any{"daily_budget": 150},
	}
	for k, v := range overrides {
		base[k] = v
	}
	return base
}

func TestParseConditionsEmptyMatchesAll(t *testing.T) {
	for _, raw := range []string{"", "null", "{}"} {
		cond, err := ParseConditions([]byte(raw))
		require.NoError(t, err)
		assert.Nil(t, cond)

		matched, err := cond.Evaluate(attrs(nil))
		require.NoError(t, err)
		assert.True(t, matched)
	}
}

func TestShorthandConditions(t *testing.T) {
	cond, err := ParseConditions([]byte(`{"severity": "critical"}`))
	require.NoError(t, err)

	matched, err := cond.Evaluate(attrs(map[string]any{"severity": "critical"}))
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = cond.Evaluate(attrs(map[string]any{"severity": "info"}))
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestShorthandListBecomesIn(t *testing.T) {
	cond, err := ParseConditions([]byte(`{"change_type": ["paused", "deleted"]}`))
	require.NoError(t, err)

	matched, err := cond.Evaluate(attrs(map[string]any{"change_type": "paused"}))
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = cond.Evaluate(attrs(map[string]any{"change_type": "updated"}))
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestTaggedTreeAndOrNot(t *testing.T) {
	raw := []byte(`{
		"op": "and",
		"conditions": [
			{"op": "eq", "field": "platform", "value": "meta"},
			{"op": "or", "conditions": [
				{"op": "eq", "field": "severity", "value": "critical"},
				{"op": "in", "field": "change_type", "values": ["paused", "deleted"]}
			]},
			{"op": "not", "condition": {"op": "eq", "field": "resource_type", "value": "ad"}}
		]
	}`)
	cond, err := ParseConditions(raw)
	require.NoError(t, err)

	matched, err := cond.Evaluate(attrs(map[string]any{"change_type": "paused"}))
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = cond.Evaluate(attrs(map[string]any{"severity": "critical", "resource_type": "ad"}))
	require.NoError(t, err)
	assert.False(t, matched, "not-clause must reject ads")

	matched, err = cond.Evaluate(attrs(nil))
	require.NoError(t, err)
	assert.False(t, matched, "neither or-branch holds")
}

func TestNotEquals(t *testing.T) {
	cond, err := ParseConditions([]byte(`{"op": "neq", "field": "severity", "value": "info"}`))
	require.NoError(t, err)

	matched, err := cond.Evaluate(attrs(nil))
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = cond.Evaluate(attrs(map[string]any{"severity": "info"}))
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestNumericComparisonIgnoresJSONType(t *testing.T) {
	// Attributes decoded from jsonb arrive as float64; authored values may be ints.
	cond, err := ParseConditions([]byte(`{"op": "eq", "field": "after_value", "value": {"daily_budget": 150}}`))
	require.NoError(t, err)

	matched, err := cond.Evaluate(attrs(map[string]any{"after_value": map[string]any{"daily_budget": float64(150)}}))
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestParseConditionsRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"bad json":         `{"op": `,
		"unknown op":       `{"op": "gte", "field": "severity", "value": "info"}`,
		"unknown field":    `{"op": "eq", "field": "budget_delta", "value": 5}`,
		"eq without field": `{"op": "eq", "value": "x"}`,
		"empty in values":  `{"op": "in", "field": "severity"}`,
		"empty and":        `{"op": "and"}`,
		"not missing arm":  `{"op": "not"}`,
		"shorthand field":  `{"spend": "high"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConditions([]byte(raw))
			assert.Error(t, err)
		})
	}
}
