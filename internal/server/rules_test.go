package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(f *serverFixture, method, path string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func TestRuleCRUDOverHTTP(t *testing.T) {
	f := newServerFixture(t)

	rec := doJSON(f, http.MethodPost, "/v1/rules", map[string]any{
		"name":             "critical to slack",
		"conditions":       map[string]any{"severity": "critical"},
		"priority":         100,
		"slack_channel_id": "C0123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Priority int    `json:"priority"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "critical to slack", created.Name)
	assert.Equal(t, 100, created.Priority)
	require.NotEmpty(t, created.ID)

	rec = doJSON(f, http.MethodGet, "/v1/rules/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(f, http.MethodPut, "/v1/rules/"+created.ID, map[string]any{
		"name":             "critical to slack",
		"conditions":       map[string]any{"severity": "critical"},
		"priority":         50,
		"slack_channel_id": "C0123",
		"is_active":        false,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(f, http.MethodGet, "/v1/rules", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Rules []json.RawMessage `json:"rules"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed.Rules, 1)

	rec = doJSON(f, http.MethodDelete, "/v1/rules/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(f, http.MethodGet, "/v1/rules/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRuleValidation(t *testing.T) {
	f := newServerFixture(t)

	// No channel configured.
	rec := doJSON(f, http.MethodPost, "/v1/rules", map[string]any{
		"name":       "no channels",
		"conditions": map[string]any{"severity": "critical"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error.Type)

	// Malformed condition tree.
	rec = doJSON(f, http.MethodPost, "/v1/rules", map[string]any{
		"name":             "bad condition",
		"conditions":       map[string]any{"op": "between", "field": "severity"},
		"slack_channel_id": "C0123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConnectAdAccountOverHTTP(t *testing.T) {
	f := newServerFixture(t)

	rec := doJSON(f, http.MethodPost, "/v1/ad-accounts", map[string]any{
		"platform":            "meta",
		"external_account_id": "act_42",
		"name":                "Main Meta Account",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Reconnecting the same external account conflicts.
	rec = doJSON(f, http.MethodPost, "/v1/ad-accounts", map[string]any{
		"platform":            "meta",
		"external_account_id": "act_42",
		"name":                "Main Meta Account",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(f, http.MethodGet, "/v1/ad-accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		AdAccounts []json.RawMessage `json:"ad_accounts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed.AdAccounts, 1)
}
