package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	completiondomain "github.com/smallbiznis/hullbook/internal/completion/domain"
	invoicingdomain "github.com/smallbiznis/hullbook/internal/invoicing/domain"
)

type createCustomInvoiceRequest struct {
	Title         string `json:"title"`
	Amount        string `json:"amount" binding:"required"`
	CustomerEmail string `json:"customer_email" binding:"omitempty,email"`
	BookingID     string `json:"booking_id"`
}

type createFromTemplateRequest struct {
	ExtraItems *[]completiondomain.ExtraItem `json:"extra_items"`
}

func familyParam(c *gin.Context) (invoicingdomain.Family, bool) {
	family, err := invoicingdomain.ParseFamily(c.Param("family"))
	if err != nil {
		AbortWithError(c, err)
		return "", false
	}
	return family, true
}

func (s *Server) SyncInvoices(c *gin.Context) {
	family, ok := familyParam(c)
	if !ok {
		return
	}

	resp, err := s.invoicingSvc.Sync(c.Request.Context(), family)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	family, ok := familyParam(c)
	if !ok {
		return
	}

	resp, err := s.invoicingSvc.List(c.Request.Context(), family)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoice(c *gin.Context) {
	family, ok := familyParam(c)
	if !ok {
		return
	}

	resp, err := s.invoicingSvc.Get(c.Request.Context(), family, strings.TrimSpace(c.Param("external_id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	family, ok := familyParam(c)
	if !ok {
		return
	}
	externalID := strings.TrimSpace(c.Param("external_id"))

	pdf, err := s.invoicingSvc.RenderPDF(c.Request.Context(), family, externalID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s-%s.pdf"`, family, externalID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (s *Server) CreateCustomInvoice(c *gin.Context) {
	family, ok := familyParam(c)
	if !ok {
		return
	}

	var req createCustomInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	bookingID, err := parseOptionalSnowflakeID(req.BookingID)
	if err != nil {
		AbortWithError(c, invoicingdomain.ErrInvalidBooking)
		return
	}

	resp, err := s.invoicingSvc.CreateCustom(c.Request.Context(), invoicingdomain.CustomRequest{
		Family:        family,
		Title:         strings.TrimSpace(req.Title),
		Amount:        strings.TrimSpace(req.Amount),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		BookingID:     bookingID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) CreateInvoiceFromTemplate(c *gin.Context) {
	bookingID, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, invoicingdomain.ErrInvalidBooking)
		return
	}

	// The body is optional; without it the stored extra work is used.
	var req createFromTemplateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, bindError(err))
			return
		}
	}

	resp, err := s.invoicingSvc.CreateFromTemplate(c.Request.Context(), invoicingdomain.FromTemplateRequest{
		BookingID:  bookingID,
		ExtraItems: req.ExtraItems,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListSquareLocations(c *gin.Context) {
	resp, err := s.invoicingSvc.Locations(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
