package server

import (
	"strings"

	obscontext "github.com/adwatchhq/adwatch/internal/observability/context"
	"github.com/adwatchhq/adwatch/internal/orgcontext"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// OrgContext resolves the acting organization from the X-Org-ID header and
// stores it in the request context. Requests without a resolvable org fall
// back to the configured default organization so single-tenant deployments
// work without the header.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := resolveOrgID(c.GetHeader("X-Org-ID"), s.cfg.DefaultOrgID)
		if !ok {
			AbortWithError(c, newValidationError("org_id", "invalid_org_id", "invalid value"))
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), orgID)
		ctx = obscontext.WithOrgID(ctx, orgID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func resolveOrgID(header string, defaultOrgID int64) (snowflake.ID, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		if defaultOrgID == 0 {
			return 0, false
		}
		return snowflake.ID(defaultOrgID), true
	}
	parsed, err := snowflake.ParseString(header)
	if err != nil || parsed == 0 {
		return 0, false
	}
	return parsed, true
}

func (s *Server) orgID(c *gin.Context) (snowflake.ID, bool) {
	return orgcontext.OrgIDFromContext(c.Request.Context())
}
