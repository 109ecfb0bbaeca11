package invoice

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"
)

var columnWidths = []float64{78, 14, 26, 18, 24, 30}

// Render writes doc as an A4 PDF.
func Render(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+doc.Number, true)
	pdf.SetCreator(doc.Seller.Name, true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(doc.Seller.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range doc.Seller.Lines {
		pdf.CellFormat(0, 4.5, tr(line), "", 1, "L", false, 0, "")
	}
	if doc.Seller.GSTIN != "" {
		pdf.CellFormat(0, 4.5, "GSTIN: "+doc.Seller.GSTIN, "", 1, "L", false, 0, "")
	}
	if contact := joinNonEmpty(doc.Seller.Email, doc.Seller.Phone); contact != "" {
		pdf.CellFormat(0, 4.5, tr(contact), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Tax Invoice", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, "Invoice no: "+doc.Number, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Date: "+doc.IssuedAt.Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Payment: %s (%s)", doc.PaymentMethod, doc.PaymentStatus), "", 1, "L", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 5, "Bill to", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, tr(doc.Buyer.Name), "", 1, "L", false, 0, "")
	for _, line := range doc.Buyer.Lines {
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	if contact := joinNonEmpty(doc.Buyer.Email, doc.Buyer.Phone); contact != "" {
		pdf.CellFormat(0, 5, tr(contact), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	headers := []string{"Item", "Qty", "Unit price", "GST %", "GST", "Total"}
	for i, h := range headers {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(columnWidths[i], 7, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range doc.Lines {
		cells := []string{
			tr(truncate(pdf, line.Description, columnWidths[0]-2)),
			strconv.Itoa(line.Quantity),
			line.UnitPrice,
			line.GSTPercentage,
			line.GSTAmount,
			line.LineTotal,
		}
		for i, c := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(columnWidths[i], 6.5, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(2)
	labelWidth := columnWidths[0] + columnWidths[1] + columnWidths[2] + columnWidths[3] + columnWidths[4]
	totals := [][2]string{
		{"Subtotal", doc.Subtotal},
		{"GST", doc.GSTTotal},
		{"Shipping", doc.Shipping},
	}
	for _, row := range totals {
		pdf.CellFormat(labelWidth, 6, row[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(columnWidths[5], 6, row[1], "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(labelWidth, 7, "Grand total ("+doc.Currency+")", "T", 0, "R", false, 0, "")
	pdf.CellFormat(columnWidths[5], 7, doc.GrandTotal, "T", 1, "R", false, 0, "")

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 4, "All prices include GST at the rate shown per item.", "", 1, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render invoice: %w", err)
	}
	return nil
}

func truncate(pdf *fpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func joinNonEmpty(values ...string) string {
	out := ""
	for _, v := range values {
		if v == "" {
			continue
		}
		if out != "" {
			out += " | "
		}
		out += v
	}
	return out
}
