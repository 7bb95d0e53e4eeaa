package server

import (
	"net/http"

	adaccountdomain "github.com/adwatchhq/adwatch/internal/adaccount/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ConnectAdAccount(c *gin.Context) {
	orgID, ok := s.orgID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req adaccountdomain.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	account, err := s.adAccountSvc.Connect(c.Request.Context(), orgID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (s *Server) ListAdAccounts(c *gin.Context) {
	orgID, ok := s.orgID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	accounts, err := s.adAccountSvc.ListForOrg(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ad_accounts": accounts})
}

func (s *Server) GetAdAccountByID(c *gin.Context) {
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

	account, err := s.adAccountSvc.GetByID(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}
