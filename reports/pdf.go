package reports

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
)

// BuildMonthlyPDF renders sum as a one-page A4 report. Core PDF fonts have no
// rupee glyph, so amounts are written as "Rs.".
func BuildMonthlyPDF(sum *MonthlySummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("FinZora Monthly Report", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "FinZora Monthly Report")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Report Month: %s", sum.Month))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, fmt.Sprintf("Total Spend: Rs. %.2f", sum.TotalExpenses))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total Income: Rs. %.2f   Net: Rs. %.2f", sum.TotalIncome, sum.Net))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Transactions: %d", sum.Transactions))
	pdf.Ln(10)

	pdf.MultiCell(0, 7, tr("Insight: "+sum.Insight), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Category Breakdown")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(70, 7, "Category")
	pdf.Cell(50, 7, "Amount")
	pdf.Cell(30, 7, "%")
	pdf.Ln(7)

	pdf.SetFont("Helvetica", "", 11)
	for _, b := range sum.CategoryBreakup {
		pdf.Cell(70, 7, tr(b.Category))
		pdf.Cell(50, 7, fmt.Sprintf("Rs. %.2f", b.Total))
		pdf.Cell(30, 7, fmt.Sprintf("%.1f%%", b.Percent))
		pdf.Ln(7)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
