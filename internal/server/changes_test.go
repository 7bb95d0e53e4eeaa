package server

import (
	"encoding/json"
	"net/http"
	"testing"

	changedomain "github.com/adwatchhq/adwatch/internal/change/domain"
	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *serverFixture) seedChangeEvent(t *testing.T, severity changedomain.Severity) *changedomain.ChangeEvent {
	t.Helper()
	event := &changedomain.ChangeEvent{
		ID:           f.node.Generate(),
		AdAccountID:  f.node.Generate(),
		OrgID:        f.orgID,
		Platform:     platform.PlatformMeta,
		ResourceType: platform.ResourceTypeCampaign,
		ResourceID:   "c1",
		ResourceName: "Spring Sale",
		ChangeType:   changedomain.ChangeTypeUpdated,
		Severity:     severity,
		DetectedAt:   f.clock.Now(),
		CreatedAt:    f.clock.Now(),
	}
	require.NoError(t, f.db.Create(event).Error)
	return event
}

func TestListChangeEventsPagination(t *testing.T) {
	f := newServerFixture(t)

	var ids []string
	for i := 0; i < 5; i++ {
		event := f.seedChangeEvent(t, changedomain.SeverityInfo)
		ids = append(ids, event.ID.String())
	}

	rec := doJSON(f, http.MethodGet, "/v1/changes?limit=3", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page struct {
		Changes    []changedomain.ChangeEvent `json:"changes"`
		NextCursor string                     `json:"next_cursor"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Changes, 3)
	require.NotEmpty(t, page.NextCursor)
	// Newest first.
	assert.Equal(t, ids[4], page.Changes[0].ID.String())

	rec = doJSON(f, http.MethodGet, "/v1/changes?limit=3&cursor="+page.NextCursor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Changes, 2)
	assert.Equal(t, ids[0], page.Changes[1].ID.String())
}

func TestListChangeEventsSeverityFilter(t *testing.T) {
	f := newServerFixture(t)
	f.seedChangeEvent(t, changedomain.SeverityInfo)
	critical := f.seedChangeEvent(t, changedomain.SeverityCritical)

	rec := doJSON(f, http.MethodGet, "/v1/changes?severity=critical", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Changes []changedomain.ChangeEvent `json:"changes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Changes, 1)
	assert.Equal(t, critical.ID, page.Changes[0].ID)
}

func TestGetChangeEventScopedToOrg(t *testing.T) {
	f := newServerFixture(t)
	event := f.seedChangeEvent(t, changedomain.SeverityWarning)

	rec := doJSON(f, http.MethodGet, "/v1/changes/"+event.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// An event owned by another org reads as not found.
	foreign := f.seedChangeEvent(t, changedomain.SeverityWarning)
	require.NoError(t, f.db.Model(foreign).Update("org_id", f.node.Generate()).Error)

	rec = doJSON(f, http.MethodGet, "/v1/changes/"+foreign.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
