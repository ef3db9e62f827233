package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// A4 layout in millimeters, mirroring the report template: 2cm margins,
// 6mm body line step, 4mm step for blank lines.
const (
	pageWidth  = 210.0
	pageHeight = 297.0
	margin     = 20.0
	lineStep   = 6.0
	blankStep  = 4.0
)

// TitleBlock is the cover page content.
type TitleBlock struct {
	Title       string
	Subject     string
	GeneratedAt time.Time
}

// Topic is one report section: a heading plus its body text.
type Topic struct {
	Name string
	Body string
}

// PDFRenderer lays out a report as one cover page followed by one page per
// topic, continuing onto extra pages when a body overflows. It is pure and
// deterministic for identical inputs (the timestamp is caller-supplied).
type PDFRenderer struct{}

// NewPDFRenderer returns a renderer for A4 report documents.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render produces the PDF bytes for the title block and ordered topics.
func (r *PDFRenderer) Render(title TitleBlock, topics []Topic) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(margin, 60)
	pdf.CellFormat(pageWidth-2*margin, 10, title.Title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.SetXY(margin, 80)
	pdf.CellFormat(pageWidth-2*margin, 8, title.Subject, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(margin, 100)
	generated := "Generated " + title.GeneratedAt.Format("02/01/2006 15:04:05")
	pdf.CellFormat(pageWidth-2*margin, 8, generated, "", 1, "C", false, 0, "")

	for _, topic := range topics {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 16)
		pdf.SetXY(margin, margin)
		pdf.CellFormat(pageWidth-2*margin, 10, strings.ToUpper(topic.Name), "", 1, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 11)
		y := margin + 20
		for _, line := range strings.Split(topic.Body, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				y += blankStep
				continue
			}
			for _, wrapped := range pdf.SplitText(line, pageWidth-2*margin) {
				if y > pageHeight-margin {
					pdf.AddPage()
					pdf.SetFont("Helvetica", "", 11)
					y = margin
				}
				pdf.Text(margin, y, wrapped)
				y += lineStep
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
