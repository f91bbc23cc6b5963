package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	mappingdomain "github.com/smallbiznis/hullbook/internal/mapping/domain"
)

type linkMappingRequest struct {
	BookingID         string `json:"booking_id" binding:"required"`
	ExternalInvoiceID string `json:"external_invoice_id" binding:"required"`
	Family            string `json:"family" binding:"omitempty,oneof=square squarespace"`
}

func (s *Server) LinkMapping(c *gin.Context) {
	var req linkMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	bookingID, err := parseSnowflakeID(req.BookingID)
	if err != nil {
		AbortWithError(c, mappingdomain.ErrInvalidBooking)
		return
	}

	resp, err := s.mappingSvc.Link(c.Request.Context(), mappingdomain.LinkRequest{
		BookingID:         bookingID,
		ExternalInvoiceID: strings.TrimSpace(req.ExternalInvoiceID),
		Family:            strings.TrimSpace(req.Family),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMappings(c *gin.Context) {
	resp, err := s.mappingSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UnlinkMapping(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	if err := s.mappingSvc.Unlink(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
