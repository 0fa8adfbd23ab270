// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/storefront-client/internal/config"
	"github.com/your-org/storefront-client/internal/domain/order"
)

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(cents int64, currency string) string {
		if currency == "" {
			currency = "USD"
		}
		return order.FormatAmount(cents, currency)
	},
}).Parse(invoiceTemplate))

// Service renders order invoices
type Service struct {
	config *config.Config
	now    func() time.Time
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	if cfg.PDF.BinaryPath != "" {
		wkhtmltopdf.SetPath(cfg.PDF.BinaryPath)
	}
	return &Service{
		config: cfg,
		now:    time.Now,
	}
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	InvoiceNumber string
	InvoiceDate   string
	Order         order.Order
	Company       CompanyInfo
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string
	Address string
	Email   string
	Website string
}

// RenderHTML renders the invoice page for o
func (s *Service) RenderHTML(o order.Order) (string, error) {
	data := InvoiceData{
		InvoiceNumber: "INV-" + o.OrderNumber,
		InvoiceDate:   s.now().Format("January 2, 2006"),
		Order:         o,
		Company: CompanyInfo{
			Name:    s.config.App.CompanyName,
			Address: s.config.App.CompanyAddress,
			Email:   s.config.App.CompanyEmail,
			Website: s.config.App.CompanyWebsite,
		},
	}

	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// GenerateInvoice generates a PDF invoice for an order
func (s *Service) GenerateInvoice(o order.Order) (*bytes.Buffer, error) {
	htmlContent, err := s.RenderHTML(o)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)
	pdfg.Title.Set("Invoice " + o.OrderNumber)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// SaveInvoice writes the invoice PDF to the configured output directory and
// returns its path
func (s *Service) SaveInvoice(o order.Order) (string, error) {
	buf, err := s.GenerateInvoice(o)
	if err != nil {
		return "", err
	}

	dir := s.config.PDF.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, InvoiceFilename(o))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write invoice: %w", err)
	}
	return path, nil
}

// InvoiceFilename returns the file name used for o's invoice
func InvoiceFilename(o order.Order) string {
	name := o.OrderNumber
	if name == "" {
		name = o.ID
	}
	return fmt.Sprintf("invoice-%s.pdf", filepath.Base(name))
}

// Invoice HTML template
const invoiceTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invoice {{.InvoiceNumber}}</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            margin: 0;
            padding: 20px;
            color: #333;
        }
        .header {
            display: flex;
            justify-content: space-between;
            margin-bottom: 30px;
            border-bottom: 2px solid #eee;
            padding-bottom: 20px;
        }
        .invoice-info {
            text-align: right;
        }
        .invoice-title {
            font-size: 28px;
            font-weight: bold;
            color: #2563eb;
            margin-bottom: 10px;
        }
        .items-table {
            width: 100%;
            border-collapse: collapse;
            margin-bottom: 30px;
        }
        .items-table th,
        .items-table td {
            border: 1px solid #ddd;
            padding: 12px 8px;
            text-align: left;
        }
        .items-table th {
            background-color: #f8f9fa;
        }
        .items-table .num {
            text-align: right;
            width: 110px;
        }
        .total-row {
            font-size: 18px;
            font-weight: bold;
        }
        .status-badge {
            display: inline-block;
            padding: 4px 8px;
            border-radius: 4px;
            font-size: 12px;
            font-weight: bold;
            text-transform: uppercase;
            background-color: #f3f4f6;
        }
        .footer {
            margin-top: 50px;
            padding-top: 20px;
            border-top: 1px solid #eee;
            text-align: center;
            color: #666;
            font-size: 12px;
        }
    </style>
</head>
<body>
    <div class="header">
        <div class="company-info">
            <h1>{{.Company.Name}}</h1>
            {{if .Company.Address}}<p>{{.Company.Address}}</p>{{end}}
            {{if .Company.Email}}<p>Email: {{.Company.Email}}</p>{{end}}
            {{if .Company.Website}}<p>{{.Company.Website}}</p>{{end}}
        </div>
        <div class="invoice-info">
            <div class="invoice-title">INVOICE</div>
            <p><strong>Invoice #:</strong> {{.InvoiceNumber}}</p>
            <p><strong>Invoice Date:</strong> {{.InvoiceDate}}</p>
            <p><strong>Order #:</strong> {{.Order.OrderNumber}}</p>
            <p><strong>Order Date:</strong> {{.Order.CreatedAt.Format "January 2, 2006"}}</p>
            <p><span class="status-badge">{{.Order.Status.Label}}</span></p>
        </div>
    </div>

    <p>
        {{if .Order.CustomerName}}<strong>Customer:</strong> {{.Order.CustomerName}}<br>{{end}}
        {{if .Order.StoreName}}<strong>Sold by:</strong> {{.Order.StoreName}}<br>{{end}}
        {{if .Order.TrackingNumber}}<strong>Tracking:</strong> {{.Order.TrackingNumber}}{{end}}
    </p>

    <table class="items-table">
        <thead>
            <tr>
                <th>Item</th>
                <th class="num">Qty</th>
                <th class="num">Price</th>
                <th class="num">Total</th>
            </tr>
        </thead>
        <tbody>
            {{$currency := .Order.Currency}}
            {{range .Order.Items}}
            <tr>
                <td>
                    <strong>{{.Name}}</strong>
                    {{if .VariantTitle}}<br><small>{{.VariantTitle}}</small>{{end}}
                </td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{money .Price $currency}}</td>
                <td class="num">{{money .Total $currency}}</td>
            </tr>
            {{end}}
            <tr class="total-row">
                <td colspan="3" class="num">Total</td>
                <td class="num">{{money .Order.TotalAmount .Order.Currency}}</td>
            </tr>
        </tbody>
    </table>

    <div class="footer">
        <p>Thank you for your business!</p>
        {{if .Company.Email}}<p>If you have any questions about this invoice, please contact us at {{.Company.Email}}</p>{{end}}
    </div>
</body>
</html>
`
