package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(f *serverFixture, platformName string, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/platforms/"+platformName+"/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func TestPlatformWebhookTriggersDetection(t *testing.T) {
	f := newServerFixture(t)
	account := f.seedAdAccount(t, platform.PlatformMeta, "act_100")

	body, err := json.Marshal(map[string]any{
		"external_account_id": "act_100",
		"resource_type":       "campaign",
		"resource": map[string]any{
			"id":     "c1",
			"name":   "Spring Sale",
			"status": "paused",
		},
	})
	require.NoError(t, err)

	rec := postWebhook(f, "meta", body, signBody(f.cfg.PlatformWebhookSecret, body))

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, f.detector.calls, 1)
	call := f.detector.calls[0]
	assert.Equal(t, account.ID, call.accountID)
	assert.Equal(t, platform.ResourceTypeCampaign, call.resourceType)
	require.Len(t, call.resources, 1)
	assert.Equal(t, "c1", call.resources[0].ID())
}

func TestPlatformWebhookRejectsBadSignature(t *testing.T) {
	f := newServerFixture(t)
	f.seedAdAccount(t, platform.PlatformMeta, "act_100")

	body := []byte(`{"external_account_id":"act_100","resource_type":"campaign","resource":{"id":"c1"}}`)

	rec := postWebhook(f, "meta", body, signBody("wrong-secret", body))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postWebhook(f, "meta", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Empty(t, f.detector.calls)
}

func TestPlatformWebhookSignaturePrefixAccepted(t *testing.T) {
	f := newServerFixture(t)
	f.seedAdAccount(t, platform.PlatformMeta, "act_100")

	body := []byte(`{"external_account_id":"act_100","resource_type":"campaign","resource":{"id":"c1","name":"x","status":"active"}}`)

	rec := postWebhook(f, "meta", body, "sha256="+signBody(f.cfg.PlatformWebhookSecret, body))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestPlatformWebhookUnknownPlatform(t *testing.T) {
	f := newServerFixture(t)

	body := []byte(`{"external_account_id":"act_100","resource_type":"campaign","resource":{"id":"c1"}}`)
	rec := postWebhook(f, "linkedin", body, signBody(f.cfg.PlatformWebhookSecret, body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlatformWebhookUnknownAccount(t *testing.T) {
	f := newServerFixture(t)

	body := []byte(`{"external_account_id":"act_missing","resource_type":"campaign","resource":{"id":"c1"}}`)
	rec := postWebhook(f, "meta", body, signBody(f.cfg.PlatformWebhookSecret, body))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.detector.calls)
}

func TestPlatformWebhookInvalidResourceType(t *testing.T) {
	f := newServerFixture(t)
	f.seedAdAccount(t, platform.PlatformMeta, "act_100")

	body := []byte(`{"external_account_id":"act_100","resource_type":"audience","resource":{"id":"c1"}}`)
	rec := postWebhook(f, "meta", body, signBody(f.cfg.PlatformWebhookSecret, body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlatformWebhookResolvesAccountFromCache(t *testing.T) {
	f := newServerFixture(t)
	account := f.seedAdAccount(t, platform.PlatformMeta, "act_100")

	body := []byte(`{"external_account_id":"act_100","resource_type":"campaign","resource":{"id":"c1","name":"x","status":"active"}}`)
	signature := signBody(f.cfg.PlatformWebhookSecret, body)

	require.Equal(t, http.StatusAccepted, postWebhook(f, "meta", body, signature).Code)

	// The second push resolves through the cache even after the row is gone.
	require.NoError(t, f.db.Delete(account).Error)
	assert.Equal(t, http.StatusAccepted, postWebhook(f, "meta", body, signature).Code)
	assert.Len(t, f.detector.calls, 2)
}
