package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/smallbiznis/hullbook/internal/analytics/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func bindRange(c *gin.Context) (analyticsdomain.RangeRequest, bool) {
	var query struct {
		From string `form:"from"`
		To   string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return analyticsdomain.RangeRequest{}, false
	}

	from, err := parseOptionalDate(query.From)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return analyticsdomain.RangeRequest{}, false
	}
	to, err := parseOptionalDate(query.To)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return analyticsdomain.RangeRequest{}, false
	}
	return analyticsdomain.RangeRequest{From: from, To: to}, true
}

func (s *Server) AnalyticsSummary(c *gin.Context) {
	req, ok := bindRange(c)
	if !ok {
		return
	}

	resp, err := s.analyticsSvc.Summary(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AnalyticsByCustomer(c *gin.Context) {
	req, ok := bindRange(c)
	if !ok {
		return
	}

	resp, err := s.analyticsSvc.ByCustomer(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ExportAnalyticsByCustomer(c *gin.Context) {
	req, ok := bindRange(c)
	if !ok {
		return
	}

	workbook, err := s.analyticsSvc.ExportByCustomer(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := "revenue-by-customer"
	if req.From != nil && req.To != nil {
		filename = fmt.Sprintf("%s-%s-%s", filename, req.From.Format(dateOnlyLayout), req.To.Format(dateOnlyLayout))
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, filename))
	c.Data(http.StatusOK, xlsxContentType, workbook)
}
