package reports

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/money"
)

const (
	pdfTitle    = "Cafe Management Report"
	pdfMargin   = 20.0
	pdfRowH     = 8.0
	pdfPageW    = 210.0
	pdfRupeeAlt = "Rs. "
)

// ExportPDF пишет отчёт в PDF формата A4 с теми же таблицами, что и CSV.
func ExportPDF(w io.Writer, s Snapshot, kind Kind) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(pdfTitle, true)
	pdf.SetCreationDate(s.GeneratedAt)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, pdfTitle, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, "Generated on: "+s.GeneratedAt.Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	if !s.Range.From.IsZero() || !s.Range.To.IsZero() {
		pdf.CellFormat(0, 8, "Period: "+periodLabel(s.Range), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	for _, sec := range sections(s, kind) {
		writeTable(pdf, sec)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func writeTable(pdf *fpdf.Fpdf, sec section) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, sec.title, "", 1, "L", false, 0, "")

	colW := (pdfPageW - 2*pdfMargin) / float64(len(sec.header))
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for _, h := range sec.header {
		pdf.CellFormat(colW, pdfRowH, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range sec.rows {
		for _, cell := range row {
			pdf.CellFormat(colW, pdfRowH, pdfText(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)
}

// pdfText заменяет знак рупии: встроенные шрифты PDF его не содержат.
func pdfText(s string) string {
	return strings.ReplaceAll(s, money.RupeeSymbol, pdfRupeeAlt)
}

func periodLabel(r Range) string {
	from, to := "open", "open"
	if !r.From.IsZero() {
		from = r.From.Format("02 Jan 2006")
	}
	if !r.To.IsZero() {
		to = r.To.Format("02 Jan 2006")
	}
	return from + " - " + to
}
