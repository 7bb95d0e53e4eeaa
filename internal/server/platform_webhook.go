package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	adaccountdomain "github.com/adwatchhq/adwatch/internal/adaccount/domain"
	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	signatureHeader = "X-AdWatch-Signature"
	maxWebhookBody  = 1 << 20
)

// platformWebhookPayload is the push shape platforms deliver: the current
// state of one resource inside one external account.
type platformWebhookPayload struct {
	ExternalAccountID string                 `json:"external_account_id"`
	ResourceType      platform.ResourceType  `json:"resource_type"`
	Resource          platform.ResourceState `json:"resource"`
}

// HandlePlatformWebhook translates an authenticated platform push into a
// one-resource detection pass, so pushes and polls share the same pipeline.
func (s *Server) HandlePlatformWebhook(c *gin.Context) {
	p := platform.Platform(strings.ToLower(strings.TrimSpace(c.Param("platform"))))
	if !p.Valid() {
		AbortWithError(c, newValidationError("platform", "invalid_platform", "invalid value"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if !s.verifySignature(body, c.GetHeader(signatureHeader)) {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var payload platformWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	payload.ExternalAccountID = strings.TrimSpace(payload.ExternalAccountID)
	if payload.ExternalAccountID == "" || payload.Resource.ID() == "" {
		AbortWithError(c, invalidRequestError())
		return
	}
	if !validResourceType(payload.ResourceType) {
		AbortWithError(c, newValidationError("resource_type", "invalid_resource_type", "invalid value"))
		return
	}

	ctx := c.Request.Context()

	if s.webhookLimiter != nil {
		result, err := s.webhookLimiter.Allow(ctx, p, payload.ExternalAccountID)
		if err != nil {
			s.log.Warn("webhook rate limit check failed, allowing",
				zap.String("platform", string(p)),
				zap.Error(err))
		}
		if !result.Allowed {
			s.obsMetrics.RecordRateLimitDenied(ctx, string(p), "platform_webhook", "rate")
			AbortWithError(c, ErrRateLimited)
			return
		}
		s.obsMetrics.RecordRateLimitAllowed(ctx, string(p), "platform_webhook")
	}

	account, err := s.resolveAccount(c, p, payload.ExternalAccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if account == nil {
		AbortWithError(c, adaccountdomain.ErrAccountNotFound)
		return
	}

	detected, err := s.detectorSvc.DetectAndRecordChanges(ctx, account.ID, payload.ResourceType, []platform.ResourceState{payload.Resource})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"detected": detected})
}

// verifySignature checks the hex HMAC-SHA256 of the raw body. Deployments
// without a configured secret reject every push.
func (s *Server) verifySignature(body []byte, signature string) bool {
	secret := s.cfg.PlatformWebhookSecret
	if secret == "" {
		return false
	}

	signature = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if signature == "" {
		return false
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}

func (s *Server) resolveAccount(c *gin.Context, p platform.Platform, externalAccountID string) (*adaccountdomain.AdAccount, error) {
	if s.accountCache != nil {
		if account, ok := s.accountCache.Get(p, externalAccountID); ok {
			return account, nil
		}
	}

	account, err := s.adAccountRepo.FindByExternalID(c.Request.Context(), p, externalAccountID)
	if err != nil {
		return nil, err
	}
	if account != nil && s.accountCache != nil {
		s.accountCache.Set(p, externalAccountID, account)
	}
	return account, nil
}

func validResourceType(rt platform.ResourceType) bool {
	for _, known := range platform.AllResourceTypes {
		if rt == known {
			return true
		}
	}
	return false
}
