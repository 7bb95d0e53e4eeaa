package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetOrganizationUsage reports plan consumption for the dashboard quota view.
func (s *Server) GetOrganizationUsage(c *gin.Context) {
	orgID, ok := s.orgID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	usage, err := s.quotaSvc.GetOrganizationUsage(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}
