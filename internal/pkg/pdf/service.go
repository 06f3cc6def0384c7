// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/sale"
	"github.com/your-org/pos-backend/internal/domain/settings"
)

// Service handles PDF generation
type Service struct {
	config *config.Config
	tmpl   *template.Template
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		tmpl: template.Must(template.New("receipt").Funcs(template.FuncMap{
			"upper": strings.ToUpper,
		}).Parse(receiptTemplate)),
	}
}

// ReceiptLine is one printed line of a receipt
type ReceiptLine struct {
	Name      string
	Variant   string
	Quantity  int
	UnitPrice string
	Total     string
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	StoreName     string
	Address       string
	LogoURL       string
	ReceiptNumber string
	Date          string
	Cashier       string
	Lines         []ReceiptLine
	Subtotal      string
	TaxRate       string
	Tax           string
	Total         string
	PaymentMethod string
	Footer        string
	PageWidthMM   int
}

// NewReceiptData lays out a sale for printing with the store's settings
func NewReceiptData(detail *sale.Detail, st *settings.Settings, pageWidthMM int) ReceiptData {
	money := func(d decimal.Decimal) string {
		return formatMoney(d, st.Currency)
	}

	data := ReceiptData{
		StoreName:     st.StoreName,
		Address:       st.Address,
		ReceiptNumber: detail.ReceiptNumber,
		Date:          detail.CreatedAt.Format("2006-01-02 15:04"),
		Subtotal:      money(detail.Subtotal()),
		TaxRate:       st.TaxRate.StringFixed(2),
		Tax:           money(detail.TaxAmount),
		Total:         money(detail.TotalAmount),
		PaymentMethod: strings.ReplaceAll(string(detail.PaymentMethod), "_", " "),
		Footer:        st.ReceiptFooter,
		PageWidthMM:   pageWidthMM,
	}
	if st.LogoURL != nil {
		data.LogoURL = *st.LogoURL
	}
	if detail.Username != nil {
		data.Cashier = *detail.Username
	}

	for _, item := range detail.Items {
		var variant []string
		if item.Size != nil {
			variant = append(variant, *item.Size)
		}
		if item.Color != nil {
			variant = append(variant, *item.Color)
		}
		data.Lines = append(data.Lines, ReceiptLine{
			Name:      item.ProductName,
			Variant:   strings.Join(variant, " / "),
			Quantity:  item.Quantity,
			UnitPrice: money(item.UnitPrice),
			Total:     money(item.TotalPrice),
		})
	}

	return data
}

// RenderReceiptHTML renders the receipt markup
func (s *Service) RenderReceiptHTML(data ReceiptData) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// RenderReceipt renders a sale as receipt HTML at the configured page width
func (s *Service) RenderReceipt(detail *sale.Detail, st *settings.Settings) (string, error) {
	return s.RenderReceiptHTML(NewReceiptData(detail, st, s.config.Receipt.PageWidthMM))
}

// GenerateReceipt renders a sale as a till-roll width PDF
func (s *Service) GenerateReceipt(detail *sale.Detail, st *settings.Settings) (*bytes.Buffer, error) {
	htmlContent, err := s.RenderReceipt(detail, st)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(s.config.Receipt.DPI)
	pdfg.PageWidth.Set(uint(s.config.Receipt.PageWidthMM))
	pdfg.PageHeight.Set(receiptHeightMM(len(detail.Items)))
	pdfg.MarginTop.Set(0)
	pdfg.MarginBottom.Set(0)
	pdfg.MarginLeft.Set(0)
	pdfg.MarginRight.Set(0)
	pdfg.Grayscale.Set(true)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.Encoding.Set("UTF-8")
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// receiptHeightMM sizes the page to the number of lines so the roll is not
// padded with blank paper.
func receiptHeightMM(lines int) uint {
	return uint(110 + 10*lines)
}

// formatMoney prints 12500.5 as "12,500.50 LAK"
func formatMoney(d decimal.Decimal, currency string) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	if currency != "" {
		out += " " + currency
	}
	return out
}

// Receipt HTML template
const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Receipt {{.ReceiptNumber}}</title>
    <style>
        body {
            font-family: 'Courier New', monospace;
            font-size: 12px;
            line-height: 1.2;
            width: {{.PageWidthMM}}mm;
            margin: 0 auto;
            padding: 4mm;
        }
        .center { text-align: center; }
        .bold { font-weight: bold; }
        .small { font-size: 10px; }
        .line { border-top: 1px dashed #000; margin: 5px 0; }
        .logo { max-width: 60px; height: auto; margin: 0 auto 8px; }
        table { width: 100%; border-collapse: collapse; }
        td.amount { text-align: right; white-space: nowrap; }
        tr.total td { font-weight: bold; padding-top: 3px; }
    </style>
</head>
<body>
    <div class="center">
        {{if .LogoURL}}<img src="{{.LogoURL}}" alt="Logo" class="logo" />{{end}}
        <div class="bold" style="font-size: 14px;">{{.StoreName}}</div>
        <div class="small">{{.Address}}</div>
        <div class="line"></div>
        <div class="bold">RECEIPT {{.ReceiptNumber}}</div>
        <div class="small">{{.Date}}{{if .Cashier}} &middot; {{.Cashier}}{{end}}</div>
        <div class="line"></div>
    </div>

    <table>
        {{range .Lines}}
        <tr><td colspan="2">{{.Name}}{{if .Variant}} <span class="small">({{.Variant}})</span>{{end}}</td></tr>
        <tr class="small">
            <td>{{.Quantity}} x {{.UnitPrice}}</td>
            <td class="amount">{{.Total}}</td>
        </tr>
        {{end}}
    </table>

    <div class="line"></div>

    <table>
        <tr><td>Subtotal:</td><td class="amount">{{.Subtotal}}</td></tr>
        <tr><td>Tax ({{.TaxRate}}%):</td><td class="amount">{{.Tax}}</td></tr>
        <tr class="total"><td>TOTAL:</td><td class="amount">{{.Total}}</td></tr>
        <tr><td>Payment:</td><td class="amount">{{upper .PaymentMethod}}</td></tr>
    </table>

    <div class="line"></div>
    {{if .Footer}}<div class="center small" style="margin-top: 8px;">{{.Footer}}</div>{{end}}
</body>
</html>
`
