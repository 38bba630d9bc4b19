package app

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var (
	pdfLinkRe   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	pdfEmphasis = strings.NewReplacer("**", "", "__", "", "`", "")
)

// writeSimplePDF renders the answer Markdown line by line: headings in bold,
// list items indented, [text](url) as clickable links. Text goes through the
// cp1252 translator since the core fonts are not Unicode.
func writeSimplePDF(markdown string, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		switch {
		case s == "":
			pdf.Ln(4)
			continue
		case s == "---":
			y := pdf.GetY() + 2
			pdf.Line(10, y, 200, y)
			pdf.Ln(5)
			continue
		case strings.HasPrefix(s, "#"):
			i := 0
			for i < len(s) && s[i] == '#' {
				i++
			}
			text := strings.TrimSpace(s[i:])
			if text == "" {
				continue
			}
			size := 15.0
			if i >= 2 {
				size = 12.5
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, 7, tr(pdfEmphasis.Replace(text)), "", "L", false)
			pdf.SetFont("Helvetica", "", 11)
			pdf.Ln(1)
			continue
		case strings.HasPrefix(s, "- ") || strings.HasPrefix(s, "* "):
			s = "\u2022 " + strings.TrimSpace(s[2:])
			pdf.SetX(pdf.GetX() + 4)
		}
		s = pdfEmphasis.Replace(s)

		parts := pdfLinkRe.FindAllStringSubmatchIndex(s, -1)
		if len(parts) == 0 {
			pdf.MultiCell(0, 5, tr(s), "", "L", false)
			continue
		}
		pos := 0
		for _, m := range parts {
			// m: [fullStart, fullEnd, textStart, textEnd, urlStart, urlEnd]
			if m[0] > pos {
				pdf.Write(5, tr(s[pos:m[0]]))
			}
			pdf.WriteLinkString(5, tr(s[m[2]:m[3]]), s[m[4]:m[5]])
			pos = m[1]
		}
		if pos < len(s) {
			pdf.Write(5, tr(s[pos:]))
		}
		pdf.Ln(6)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(outPath)
}
