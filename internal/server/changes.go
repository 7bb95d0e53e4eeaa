package server

import (
	"net/http"
	"strings"

	changedomain "github.com/adwatchhq/adwatch/internal/change/domain"
	"github.com/gin-gonic/gin"
)

const (
	defaultChangeListLimit = 50
	maxChangeListLimit     = 200
)

// ListChangeEvents lists the organization's change feed, newest first, with
// id-cursor pagination.
func (s *Server) ListChangeEvents(c *gin.Context) {
	orgID, ok := s.orgID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	filter := changedomain.ListFilter{
		OrgID: orgID,
		Limit: defaultChangeListLimit,
	}

	if accountID, err := parseOptionalSnowflakeID(c.Query("ad_account_id")); err != nil {
		AbortWithError(c, newValidationError("ad_account_id", "invalid_id", "invalid value"))
		return
	} else if accountID != nil {
		filter.AdAccountID = *accountID
	}

	if cursor, err := parseOptionalSnowflakeID(c.Query("cursor")); err != nil {
		AbortWithError(c, newValidationError("cursor", "invalid_cursor", "invalid value"))
		return
	} else if cursor != nil {
		filter.AfterCursor = *cursor
	}

	if limit, err := parseOptionalInt(c.Query("limit")); err != nil || (limit != nil && *limit <= 0) {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid value"))
		return
	} else if limit != nil {
		filter.Limit = min(*limit, maxChangeListLimit)
	}

	if severity := strings.TrimSpace(c.Query("severity")); severity != "" {
		filter.Severity = changedomain.Severity(severity)
	}
	if changeType := strings.TrimSpace(c.Query("change_type")); changeType != "" {
		filter.ChangeType = changedomain.ChangeType(changeType)
	}

	events, err := s.changeRepo.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var nextCursor string
	if len(events) == filter.Limit {
		nextCursor = events[len(events)-1].ID.String()
	}
	c.JSON(http.StatusOK, gin.H{
		"changes":     events,
		"next_cursor": nextCursor,
	})
}

func (s *Server) GetChangeEventByID(c *gin.Context) {
	orgID, ok := s.orgID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := parsePathID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid value"))
		return
	}

	event, err := s.changeRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if event == nil || event.OrgID != orgID {
		AbortWithError(c, ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, event)
}

// ListNotificationLogs returns the delivery audit trail for one change event.
func (s *Server) ListNotificationLogs(c *gin.Context) {
	orgID, ok := s.orgID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := parsePathID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid value"))
		return
	}

	event, err := s.changeRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if event == nil || event.OrgID != orgID {
		AbortWithError(c, ErrNotFound)
		return
	}

	logs, err := s.notificationSvc.ListLogs(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": logs})
}
