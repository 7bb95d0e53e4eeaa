package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	changedomain "github.com/adwatchhq/adwatch/internal/change/domain"
	"gorm.io/datatypes"
)

var ErrMissingURL = errors.New("webhook_url_required")

type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Client POSTs change events to customer-configured endpoints.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "AdWatch-Notifications/1.0"
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type eventEnvelope struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

type changePayload struct {
	Platform     string            `json:"platform"`
	ResourceType string            `json:"resource_type"`
	ResourceID   string            `json:"resource_id"`
	ResourceName string            `json:"resource_name"`
	ChangeType   string            `json:"change_type"`
	Severity     string            `json:"severity"`
	BeforeValue  datatypes.JSONMap `json:"before_value"`
	AfterValue   datatypes.JSONMap `json:"after_value"`
	Diff         datatypes.JSONMap `json:"diff"`
}

type deliveryPayload struct {
	Event  eventEnvelope `json:"event"`
	Change changePayload `json:"change"`
	Rule   RuleRef       `json:"rule"`
}

func (c *Client) Deliver(ctx context.Context, url string, rule RuleRef, event *changedomain.ChangeEvent) error {
	if url == "" {
		return ErrMissingURL
	}

	payload := deliveryPayload{
		Event: eventEnvelope{
			ID:        event.ID.String(),
			Type:      "change_detected",
			CreatedAt: event.CreatedAt.UTC(),
		},
		Change: changePayload{
			Platform:     string(event.Platform),
			ResourceType: string(event.ResourceType),
			ResourceID:   event.ResourceID,
			ResourceName: event.ResourceName,
			ChangeType:   string(event.ChangeType),
			Severity:     string(event.Severity),
			BeforeValue:  event.BeforeValue,
			AfterValue:   event.AfterValue,
			Diff:         event.Diff,
		},
		Rule: rule,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
