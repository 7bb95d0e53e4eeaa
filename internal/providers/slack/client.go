package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	changedomain "github.com/adwatchhq/adwatch/internal/change/domain"
)

// maxDiffFields caps the changed-field pairs rendered in one message so a
// noisy resource update cannot blow past Slack's block limits.
const maxDiffFields = 10

var ErrMissingChannel = errors.New("slack_channel_required")

type Config struct {
	APIBaseURL string
	BotToken   string
	Timeout    time.Duration
}

// Client posts change alerts through the Slack Web API (chat.postMessage).
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://slack.com/api"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type postMessageRequest struct {
	Channel string           `json:"channel"`
	Text    string           `json:"text"`
	Blocks  []map[string]any `json:"blocks,omitempty"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (c *Client) PostChangeAlert(ctx context.Context, channelID string, event *changedomain.ChangeEvent) error {
	if channelID == "" {
		return ErrMissingChannel
	}

	payload := postMessageRequest{
		Channel: channelID,
		Text:    summaryLine(event),
		Blocks:  buildBlocks(event),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.cfg.BotToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack api returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var result postMessageResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("slack api error: %s", result.Error)
	}
	return nil
}

func summaryLine(event *changedomain.ChangeEvent) string {
	return fmt.Sprintf("[%s] %s %s: %q",
		strings.ToUpper(string(event.Severity)),
		event.ResourceType,
		event.ChangeType,
		event.ResourceName,
	)
}

// buildBlocks renders a header, a context table and the changed-field pairs.
func buildBlocks(event *changedomain.ChangeEvent) []map[string]any {
	blocks := []map[string]any{
		{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": summaryLine(event)},
		},
		{
			"type": "section",
			"fields": []map[string]any{
				mrkdwnField("Resource Type", string(event.ResourceType)),
				mrkdwnField("Platform", string(event.Platform)),
				mrkdwnField("Severity", string(event.Severity)),
				mrkdwnField("Detected At", event.DetectedAt.UTC().Format(time.RFC3339)),
			},
		},
	}

	fields := diffFields(event)
	if len(fields) > 0 {
		blocks = append(blocks, map[string]any{
			"type":   "section",
			"fields": fields,
		})
	}
	return blocks
}

func mrkdwnField(label, value string) map[string]any {
	return map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*%s:*\n%s", label, value)}
}

func diffFields(event *changedomain.ChangeEvent) []map[string]any {
	names := make([]string, 0, len(event.Diff))
	for name := range event.Diff {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > maxDiffFields {
		names = names[:maxDiffFields]
	}

	fields := make([]map[string]any, 0, len(names))
	for _, name := range names {
		before, after := "-", "-"
		if pair, ok := event.Diff[name].(map[string]any); ok {
			before = formatValue(pair["before"])
			after = formatValue(pair["after"])
		}
		fields = append(fields, mrkdwnField(name, fmt.Sprintf("%s → %s", before, after)))
	}
	return fields
}

func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "-"
	case string:
		return value
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
	default:
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(raw)
	}
}
