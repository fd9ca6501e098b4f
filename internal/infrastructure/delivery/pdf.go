// Package delivery renders purchase orders and sends them, and notifications,
// over email and Telegram.
package delivery

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"stockflow/internal/domain/catalogs/supplier"
	"stockflow/internal/domain/procurement"
)

// PDFConfig configures order rendering.
type PDFConfig struct {
	// Company is printed as the sender
	Company string
	// FontDir holds DejaVuSans.ttf and DejaVuSans-Bold.ttf. When the fonts
	// are missing the core Helvetica font is used and non-Latin-1 text degrades.
	FontDir string
}

// PDFRenderer implements procurement.Renderer with fpdf.
type PDFRenderer struct {
	cfg PDFConfig
}

// NewPDFRenderer creates a renderer.
func NewPDFRenderer(cfg PDFConfig) *PDFRenderer {
	if cfg.Company == "" {
		cfg.Company = "StockFlow"
	}
	return &PDFRenderer{cfg: cfg}
}

var _ procurement.Renderer = (*PDFRenderer)(nil)

var tableCols = []struct {
	title string
	width float64
	align string
}{
	{"#", 10, "L"},
	{"Product", 70, "L"},
	{"Qty", 22, "R"},
	{"Unit", 18, "L"},
	{"Price", 30, "R"},
	{"Total", 30, "R"},
}

// RenderOrder lays out the order header, supplier block, item table and total.
func (r *PDFRenderer) RenderOrder(_ context.Context, o *procurement.Order, s *supplier.Supplier) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.AddPage()

	family, tr := r.fonts(pdf)

	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(0, 10, tr("PURCHASE ORDER"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(family, "", 11)
	pdf.CellFormat(100, 6, tr("Number: "+o.PONumber), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Date: "+o.CreatedAt.Format("02.01.2006")), "", 1, "R", false, 0, "")
	pdf.Ln(2)
	pdf.CellFormat(0, 6, tr("From: "+r.cfg.Company), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.CellFormat(0, 6, tr("Supplier: "+s.Name), "", 1, "L", false, 0, "")
	if s.Contact != "" {
		pdf.CellFormat(0, 6, tr("Contact: "+s.Contact), "", 1, "L", false, 0, "")
	}
	if s.Phone != nil && *s.Phone != "" {
		pdf.CellFormat(0, 6, tr("Tel: "+*s.Phone), "", 1, "L", false, 0, "")
	}
	if s.Email != nil && *s.Email != "" {
		pdf.CellFormat(0, 6, tr("Email: "+*s.Email), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont(family, "B", 10)
	for _, c := range tableCols {
		pdf.CellFormat(c.width, 7, tr(c.title), "B", 0, c.align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 10)
	for i, it := range o.Items {
		cells := []string{
			fmt.Sprintf("%d", i+1),
			it.ProductName,
			it.Quantity.String(),
			it.Unit,
			it.UnitPrice.StringFixed(2),
			it.TotalPrice.StringFixed(2),
		}
		for j, c := range tableCols {
			pdf.CellFormat(c.width, 7, tr(cells[j]), "", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Line(18, pdf.GetY(), 198, pdf.GetY())
	pdf.Ln(3)

	pdf.SetFont(family, "B", 12)
	pdf.CellFormat(0, 8, tr("TOTAL: "+o.TotalAmount.StringFixed(2)), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(family, "", 10)
	if o.DeliveryDate != nil {
		pdf.CellFormat(0, 6, tr("Delivery date: "+o.DeliveryDate.Format("02.01.2006")), "", 1, "L", false, 0, "")
	}
	if o.Note != nil && *o.Note != "" {
		pdf.MultiCell(0, 6, tr("Note: "+*o.Note), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render purchase order %s: %w", o.PONumber, err)
	}
	return buf.Bytes(), nil
}

// fonts registers the UTF-8 fonts when available and returns the family
// plus a text translator for it.
func (r *PDFRenderer) fonts(pdf *fpdf.Fpdf) (string, func(string) string) {
	if r.cfg.FontDir != "" {
		regular := filepath.Join(r.cfg.FontDir, "DejaVuSans.ttf")
		bold := filepath.Join(r.cfg.FontDir, "DejaVuSans-Bold.ttf")
		if fileExists(regular) && fileExists(bold) {
			pdf.AddUTF8Font("DejaVu", "", regular)
			pdf.AddUTF8Font("DejaVu", "B", bold)
			return "DejaVu", func(s string) string { return s }
		}
	}
	return "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
