package server

import (
	"net/http"

	notificationdomain "github.com/adwatchhq/adwatch/internal/notification/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateRule(c *gin.Context) {
	orgID, ok := s.orgID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req notificationdomain.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rule, err := s.notificationSvc.CreateRule(c.Request.Context(), orgID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (s *Server) UpdateRule(c *gin.Context) {
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

	var req notificationdomain.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rule, err := s.notificationSvc.UpdateRule(c.Request.Context(), orgID, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (s *Server) DeleteRule(c *gin.Context) {
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

	if err := s.notificationSvc.DeleteRule(c.Request.Context(), orgID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) GetRuleByID(c *gin.Context) {
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

	rule, err := s.notificationSvc.GetRule(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (s *Server) ListRules(c *gin.Context) {
	orgID, ok := s.orgID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	rules, err := s.notificationSvc.ListRules(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}
