package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/billflow/internal/invoice/domain"
)

const contextInvoiceIDKey = "invoice_id"

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set(contextInvoiceIDKey, resp.ID.String())
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	id := invoiceIDParam(c)

	var req invoicedomain.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Update(c.Request.Context(), invoicedomain.UpdateInvoiceRequest{
		ID:             id,
		InvoiceRequest: req,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoiceStatus(c *gin.Context) {
	id := invoiceIDParam(c)

	status := strings.TrimSpace(c.Query("status"))
	if status == "" {
		var body struct {
			Status string `json:"status"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&body); err != nil {
				AbortWithError(c, invalidRequestError())
				return
			}
		}
		status = strings.TrimSpace(body.Status)
	}

	resp, err := s.invoiceSvc.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	if err := s.invoiceSvc.Delete(c.Request.Context(), invoiceIDParam(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		Status   string `form:"status"`
		ClientID string `form:"client_id"`
		From     string `form:"from"`
		To       string `form:"to"`
		Limit    int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	from, err := parseOptionalTime(query.From, false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalTime(query.To, true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		Status:   strings.TrimSpace(query.Status),
		ClientID: strings.TrimSpace(query.ClientID),
		From:     from,
		To:       to,
		Limit:    query.Limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	item, err := s.invoiceSvc.GetByID(c.Request.Context(), invoiceIDParam(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) GetInvoiceStats(c *gin.Context) {
	stats, err := s.invoiceSvc.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	doc, err := s.invoiceSvc.RenderPDF(c.Request.Context(), invoiceIDParam(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.DataFromReader(http.StatusOK, -1, doc.ContentType, doc.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, doc.Filename),
	})
}

func invoiceIDParam(c *gin.Context) string {
	id := strings.TrimSpace(c.Param("id"))
	c.Set(contextInvoiceIDKey, id)
	return id
}
