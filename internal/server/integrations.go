package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	integrationdomain "github.com/smallbiznis/hullbook/internal/integration/domain"
)

func (s *Server) GetIntegrations(c *gin.Context) {
	resp, err := s.integrationSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateIntegrations(c *gin.Context) {
	var req integrationdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.integrationSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
