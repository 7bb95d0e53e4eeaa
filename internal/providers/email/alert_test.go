package email

import (
	"testing"
	"time"

	changedomain "github.com/adwatchhq/adwatch/internal/change/domain"
	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestChangeAlertSubject(t *testing.T) {
	event := &changedomain.ChangeEvent{
		Platform:     platform.PlatformGoogle,
		ResourceType: platform.ResourceTypeAdSet,
		ResourceName: "Retargeting - US",
		ChangeType:   changedomain.ChangeTypePaused,
		Severity:     changedomain.SeverityWarning,
		DetectedAt:   time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC),
	}

	subject, body := ChangeAlert(event)
	assert.Equal(t, "[WARNING] paused - Retargeting - US", subject)
	assert.Contains(t, body, "Retargeting - US")
	assert.Contains(t, body, "google")
}

func TestChangeAlertBodyListsDiff(t *testing.T) {
	event := &changedomain.ChangeEvent{
		Platform:     platform.PlatformMeta,
		ResourceType: platform.ResourceTypeCampaign,
		ResourceName: "Spring Sale",
		ChangeType:   changedomain.ChangeTypeUpdated,
		Severity:     changedomain.SeverityCritical,
		Diff: datatypes.JSONMap{
			"daily_budget": map[string]any{"before": float64(100), "after": float64(200)},
		},
		DetectedAt: time.Now().UTC(),
	}

	_, body := ChangeAlert(event)
	assert.Contains(t, body, "daily_budget")
	assert.Contains(t, body, "100")
	assert.Contains(t, body, "200")
}
