package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	completiondomain "github.com/smallbiznis/hullbook/internal/completion/domain"
)

type recordCompletionRequest struct {
	BookingID         string                           `json:"booking_id" binding:"required"`
	Status            string                           `json:"status" binding:"required"`
	Notes             *string                          `json:"notes"`
	ExtraWork         *completiondomain.ExtraWorkInput `json:"extra_work"`
	InvoiceFamily     *string                          `json:"invoice_family"`
	InvoiceExternalID *string                          `json:"invoice_external_id"`
}

func (s *Server) RecordCompletion(c *gin.Context) {
	var req recordCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	bookingID, err := parseSnowflakeID(req.BookingID)
	if err != nil {
		AbortWithError(c, completiondomain.ErrInvalidBooking)
		return
	}

	resp, err := s.completionSvc.Record(c.Request.Context(), completiondomain.RecordRequest{
		BookingID:         bookingID,
		Status:            req.Status,
		Notes:             req.Notes,
		ExtraWork:         req.ExtraWork,
		InvoiceFamily:     req.InvoiceFamily,
		InvoiceExternalID: req.InvoiceExternalID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCompletions(c *gin.Context) {
	resp, err := s.completionSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
