// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/domain/order"
	"github.com/your-org/storefront-client/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-client/internal/pkg/pdf"
)

// InvoiceRenderer renders order invoices
type InvoiceRenderer interface {
	RenderHTML(o order.Order) (string, error)
	GenerateInvoice(o order.Order) (*bytes.Buffer, error)
}

// InvoiceHandler handles invoice-related endpoints
type InvoiceHandler struct {
	orders   OrderRepository
	invoices InvoiceRenderer
	logger   logrus.FieldLogger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(orders OrderRepository, invoices InvoiceRenderer, logger logrus.FieldLogger) *InvoiceHandler {
	return &InvoiceHandler{
		orders:   orders,
		invoices: invoices,
		logger:   logger,
	}
}

func (h *InvoiceHandler) order(c *gin.Context) (*order.Order, bool) {
	scope, ok := scopeOf(c)
	if !ok {
		return nil, false
	}

	o, err := h.orders.Order(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return o, true
}

// GenerateInvoice handles GET /orders/:id/invoice
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	o, ok := h.order(c)
	if !ok {
		return
	}

	pdfBuffer, err := h.invoices.GenerateInvoice(*o)
	if err != nil {
		h.logger.WithError(err).WithField("order_id", o.ID).Error("failed to generate invoice")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate invoice"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", pdf.InvoiceFilename(*o)))
	c.Header("Content-Length", strconv.Itoa(pdfBuffer.Len()))
	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}

// PreviewInvoice handles GET /orders/:id/invoice/html
func (h *InvoiceHandler) PreviewInvoice(c *gin.Context) {
	o, ok := h.order(c)
	if !ok {
		return
	}

	html, err := h.invoices.RenderHTML(*o)
	if err != nil {
		h.logger.WithError(err).WithField("order_id", o.ID).Error("failed to render invoice")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render invoice"})
		return
	}
	c.Header("Content-Security-Policy", middleware.DocumentPolicy)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
