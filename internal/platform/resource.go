// Package platform defines the contract between AdWatch and external
// advertising platforms: the resource taxonomy, the loosely typed resource
// state returned by platform APIs, and the fetcher collaborator interface.
package platform

import (
	"strings"
)

// Platform identifies an external advertising platform.
type Platform string

const (
	PlatformMeta   Platform = "meta"
	PlatformGoogle Platform = "google"
	PlatformTikTok Platform = "tiktok"
)

// Valid reports whether the platform is one AdWatch integrates with.
func (p Platform) Valid() bool {
	switch p {
	case PlatformMeta, PlatformGoogle, PlatformTikTok:
		return true
	}
	return false
}

// ResourceType identifies the kind of advertising entity being tracked.
type ResourceType string

const (
	ResourceTypeCampaign ResourceType = "campaign"
	ResourceTypeAdSet    ResourceType = "ad_set"
	ResourceTypeAd       ResourceType = "ad"
)

// AllResourceTypes lists resource types in polling order.
var AllResourceTypes = []ResourceType{ResourceTypeCampaign, ResourceTypeAdSet, ResourceTypeAd}

// ResourceState is the loosely typed state of one external resource at a
// point in time. Platform fetchers guarantee id, name and status are present;
// everything else is platform-specific.
type ResourceState map[string]any

// ID returns the stable external identifier.
func (s ResourceState) ID() string {
	return s.stringField("id")
}

// Name returns the display name.
func (s ResourceState) Name() string {
	return s.stringField("name")
}

// Status returns the platform status string, lowercased.
func (s ResourceState) Status() string {
	return strings.ToLower(s.stringField("status"))
}

// Budget returns the budget field when it is numeric.
func (s ResourceState) Budget() (float64, bool) {
	return numeric(s["budget"])
}

func (s ResourceState) stringField(key string) string {
	if s == nil {
		return ""
	}
	value, ok := s[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func numeric(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	}
	return 0, false
}
