package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/edustack/school-portal-api/internal/models"
)

// Page geometry for paper rendering. Page breaks are driven by explicit
// arithmetic against contentBottom rather than gofpdf's auto break so that
// section headings never strand at the bottom of a page.
const (
	pageLeft      = 10.0
	pageTop       = 15.0
	contentWidth  = 190.0
	contentBottom = 272.0
	lineHeight    = 6.0
)

// PaperPDFExporter renders a question paper into a printable PDF.
type PaperPDFExporter struct{}

// NewPaperPDFExporter constructs a paper PDF exporter.
func NewPaperPDFExporter() *PaperPDFExporter {
	return &PaperPDFExporter{}
}

// Render lays out the paper with positional numbering: questions are
// numbered sequentially across the whole paper, subparts lettered within
// their question, both derived at render time from array positions.
func (e *PaperPDFExporter) Render(paper models.Paper, schoolName string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageLeft, pageTop, pageLeft)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	e.renderHeader(pdf, paper, schoolName)

	questionNo := 0
	for _, sec := range paper.Sections {
		ensureSpace(pdf, lineHeight*3)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(contentWidth, lineHeight+2, fmt.Sprintf("%s (%d marks)", sec.Name, sec.DeclaredTotalMarks), "", 1, "C", false, 0, "")
		pdf.Ln(1)

		for _, q := range sec.Questions {
			questionNo++
			e.renderQuestion(pdf, q, questionNo)
		}
		pdf.Ln(2)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render paper pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PaperPDFExporter) renderHeader(pdf *gofpdf.Fpdf, paper models.Paper, schoolName string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(contentWidth, 8, schoolName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(contentWidth, 7, fmt.Sprintf("%s - Class %s - %s", paper.Subject, paper.Class, paper.ExamType), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(contentWidth/2, 6, fmt.Sprintf("Time: %s", paper.Duration), "", 0, "L", false, 0, "")
	pdf.CellFormat(contentWidth/2, 6, fmt.Sprintf("Maximum Marks: %d", paper.DeclaredTotalMarks), "", 1, "R", false, 0, "")
	pdf.SetLineWidth(0.3)
	pdf.Line(pageLeft, pdf.GetY()+1, pageLeft+contentWidth, pdf.GetY()+1)
	pdf.Ln(4)
}

func (e *PaperPDFExporter) renderQuestion(pdf *gofpdf.Fpdf, q models.Question, number int) {
	ensureSpace(pdf, lineHeight*2)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(12, lineHeight, fmt.Sprintf("Q%d.", number), "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(contentWidth-12-16, lineHeight, q.Body, "", "L", false)
	marksY := pdf.GetY() - lineHeight
	pdf.SetXY(pageLeft+contentWidth-16, marksY)
	pdf.CellFormat(16, lineHeight, fmt.Sprintf("[%d]", q.Marks), "", 1, "R", false, 0, "")
	pdf.SetX(pageLeft)

	for i, sp := range q.Subparts {
		ensureSpace(pdf, lineHeight)
		pdf.SetX(pageLeft + 12)
		pdf.SetFont("Arial", "", 10)
		label := fmt.Sprintf("(%s)", subpartLetter(i))
		pdf.CellFormat(10, lineHeight, label, "", 0, "L", false, 0, "")
		pdf.MultiCell(contentWidth-12-10-16, lineHeight, fmt.Sprintf("%s (%d marks)", sp.Body, sp.Marks), "", "L", false)
		for j, opt := range sp.Options {
			ensureSpace(pdf, lineHeight)
			pdf.SetX(pageLeft + 26)
			pdf.CellFormat(contentWidth-26, lineHeight, fmt.Sprintf("%s. %s", string(rune('A'+j)), opt), "", 1, "L", false, 0, "")
		}
	}

	for _, pair := range q.Pairs {
		ensureSpace(pdf, lineHeight)
		pdf.SetX(pageLeft + 12)
		pdf.CellFormat((contentWidth-12)/2, lineHeight, pair.Term, "1", 0, "L", false, 0, "")
		pdf.CellFormat((contentWidth-12)/2, lineHeight, pair.Definition, "1", 1, "L", false, 0, "")
	}
	pdf.Ln(1)
}

func ensureSpace(pdf *gofpdf.Fpdf, needed float64) {
	if pdf.GetY()+needed > contentBottom {
		pdf.AddPage()
	}
}

// subpartLetter derives display letters from the array position: a, b, ...,
// aa past 26.
func subpartLetter(index int) string {
	letters := ""
	n := index
	for {
		letters = string(rune('a'+n%26)) + letters
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return letters
}
