package render

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/pkordes/eld-planner/internal/domain"
)

// PDF page geometry in millimetres.
const (
	pdfGridX   = 55.0
	pdfGridY   = 62.0
	pdfGridW   = 192.0
	pdfRowH    = 9.0
	pdfMargin  = 12.0
	pdfTotalsX = pdfGridX + pdfGridW + 3
)

// PDF writes l as a one-page landscape log sheet.
func PDF(w io.Writer, l domain.LogEntry) error {
	pdf := fpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetTitle(title(l), false)
	pdf.SetCreator("eld-planner", false)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(ascii(s)) }

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, text(title(l)), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, kv := range [][2]string{
		{"Driver", l.DriverName},
		{"Carrier", l.CarrierName},
		{"Vehicle", l.VehicleNumbers},
		{"Total miles", fmt.Sprintf("%.1f", l.TotalMiles)},
		{"On duty", fmt.Sprintf("%s to %s (%.2f h)", clock(l.StartTime), clock(l.EndTime), l.TotalHours)},
	} {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(28, 6, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, text(kv[1]), "", 1, "L", false, 0, "")
	}

	drawPDFGrid(pdf, l)

	pdf.SetXY(pdfMargin, pdfGridY+float64(len(rows))*pdfRowH+8)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, "Remarks", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, text(l.Remarks), "", "L", false)
	pdf.Ln(2)

	drawPDFSegments(pdf, l, text)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render.PDF: %w", err)
	}
	return nil
}

func drawPDFGrid(pdf *fpdf.Fpdf, l domain.LogEntry) {
	colW := pdfGridW / 24
	gridH := float64(len(rows)) * pdfRowH

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetDrawColor(120, 120, 120)
	pdf.SetLineWidth(0.2)
	for h := 0; h <= 24; h++ {
		x := pdfGridX + float64(h)*colW
		pdf.Line(x, pdfGridY, x, pdfGridY+gridH)
		pdf.Text(x-1, pdfGridY-1.5, hourLabel(h))
	}

	hours := rowHours(l)
	for i, r := range rows {
		y := pdfGridY + float64(i)*pdfRowH
		pdf.Rect(pdfGridX, y, pdfGridW, pdfRowH, "D")
		pdf.SetFont("Helvetica", "", 8)
		pdf.Text(pdfMargin, y+pdfRowH/2+1, r.label)
		pdf.Text(pdfTotalsX, y+pdfRowH/2+1, fmt.Sprintf("%.2f", hours[i]))
	}

	pdf.SetDrawColor(0, 70, 160)
	pdf.SetLineWidth(0.8)
	x := func(minute float64) float64 { return pdfGridX + minute/minutesPerDay*pdfGridW }
	y := func(row int) float64 { return pdfGridY + (float64(row)+0.5)*pdfRowH }
	trace := spans(l)
	for i, s := range trace {
		pdf.Line(x(s.from), y(s.row), x(s.to), y(s.row))
		if i > 0 && trace[i-1].row != s.row {
			pdf.Line(x(s.from), y(trace[i-1].row), x(s.from), y(s.row))
		}
	}
}

func drawPDFSegments(pdf *fpdf.Fpdf, l domain.LogEntry, text func(string) string) {
	widths := []float64{28, 42, 150, 22}
	headers := []string{"Time", "Status", "Location", "Miles"}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 5, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, s := range l.Segments {
		miles := ""
		if s.Status == domain.Driving {
			miles = fmt.Sprintf("%.1f", s.MilesDriven)
		}
		cells := []string{
			clock(s.Start) + "-" + clock(s.End),
			rows[rowOf(s.Status)].label,
			s.Location,
			miles,
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 5, text(c), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
