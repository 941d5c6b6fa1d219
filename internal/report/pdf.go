package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

// RenderPDF lays out the markdown report as a PDF with a cover page. The
// generated document is run through pdfcpu for validation and optimization;
// if that post-processing fails the unoptimized document is returned
// instead, since a larger PDF beats no PDF.
func RenderPDF(md, target string, now time.Time) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Market Research Report - "+target, true)
	doc.SetAutoPageBreak(true, 20)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	writeCoverPage(doc, tr, target, now)
	writeBody(doc, tr, md)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf generation failed: %w", err)
	}
	return optimize(buf.Bytes()), nil
}

func writeCoverPage(doc *fpdf.Fpdf, tr func(string) string, target string, now time.Time) {
	doc.AddPage()
	doc.Ln(60)
	doc.SetFont("Helvetica", "B", 24)
	doc.SetTextColor(44, 90, 160)
	doc.CellFormat(0, 12, "Market Research Analysis", "", 1, "C", false, 0, "")
	doc.Ln(8)
	doc.SetFont("Helvetica", "", 18)
	doc.SetTextColor(102, 102, 102)
	doc.CellFormat(0, 10, tr(target), "", 1, "C", false, 0, "")
	doc.Ln(12)
	doc.SetFont("Helvetica", "", 11)
	doc.SetTextColor(136, 136, 136)
	doc.CellFormat(0, 8, "Generated on "+now.Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	doc.Ln(24)
	doc.SetTextColor(102, 102, 102)
	doc.CellFormat(0, 8, "Powered by Multi-Agent aiXplain System", "", 1, "C", false, 0, "")
}

// writeBody does a line-oriented pass over the markdown: headers, bullets
// and plain paragraphs. Inline emphasis markers are stripped rather than
// styled.
func writeBody(doc *fpdf.Fpdf, tr func(string) string, md string) {
	doc.AddPage()
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "" || line == "---":
			doc.Ln(4)
		case strings.HasPrefix(line, "### "):
			doc.SetFont("Helvetica", "B", 12)
			doc.SetTextColor(52, 73, 94)
			doc.MultiCell(0, 6, tr(stripInline(line[4:])), "", "L", false)
			doc.Ln(1)
		case strings.HasPrefix(line, "## "):
			doc.SetFont("Helvetica", "B", 14)
			doc.SetTextColor(52, 73, 94)
			doc.MultiCell(0, 7, tr(stripInline(line[3:])), "", "L", false)
			doc.Ln(1)
		case strings.HasPrefix(line, "# "):
			doc.SetFont("Helvetica", "B", 16)
			doc.SetTextColor(44, 90, 160)
			doc.MultiCell(0, 8, tr(stripInline(line[2:])), "", "L", false)
			doc.Ln(2)
		case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* "):
			doc.SetFont("Helvetica", "", 10)
			doc.SetTextColor(51, 51, 51)
			doc.MultiCell(0, 5, tr("• "+stripInline(line[2:])), "", "L", false)
		default:
			doc.SetFont("Helvetica", "", 10)
			doc.SetTextColor(51, 51, 51)
			doc.MultiCell(0, 5, tr(stripInline(line)), "", "L", false)
		}
	}
}

func stripInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	return strings.ReplaceAll(s, "*", "")
}

// optimize validates and compacts the document via pdfcpu. Best-effort.
func optimize(raw []byte) []byte {
	dir, err := os.MkdirTemp("", "marketscout-pdf-")
	if err != nil {
		return raw
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "report.pdf")
	out := filepath.Join(dir, "optimized.pdf")
	if err := os.WriteFile(in, raw, 0o644); err != nil {
		return raw
	}
	if err := pdfapi.OptimizeFile(in, out, nil); err != nil {
		return raw
	}
	optimized, err := os.ReadFile(out)
	if err != nil {
		return raw
	}
	return optimized
}
