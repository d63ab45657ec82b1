package letters

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/go-pdf/fpdf"
)

// Title is the heading of every letter.
const Title = "Client Investment Letter"

// Signature is the line printed under the signature rule.
const Signature = "Authorized Signature"

// Renderer writes one letter in a file format.
type Renderer interface {
	// Extension is the file extension including the dot.
	Extension() string
	Render(w io.Writer, l Letter) error
}

const bodyText = `Thank you for your investment in {{.Project}}.

Your note originated on {{.Origin}} for a term of {{.Term}} months. The maturity date is {{.Maturity}}.

Principal Amount: ${{.Principal}}
Interest Rate: {{.Rate}}
Interest Earned as of {{.AsOf}}: ${{.Accrued}}
Total Expected Payout at Maturity: ${{.Total}}

We appreciate your continued support. If you have any questions regarding your investment, please feel free to contact us.

Sincerely,
Your Investment Firm`

var body = template.Must(template.New("body").Parse(bodyText))

type bodyData struct {
	Project   string
	Origin    string
	Term      int
	Maturity  string
	Principal string
	Rate      string
	AsOf      string
	Accrued   string
	Total     string
}

func greeting(l Letter) string {
	return fmt.Sprintf("Dear %s,", l.Note.ClientName())
}

func renderBody(l Letter) (string, error) {
	project := l.Note.ProjectName
	if project == "" {
		project = "our projects"
	}
	var buf bytes.Buffer
	err := body.Execute(&buf, bodyData{
		Project:   project,
		Origin:    FormatDate(l.Note.OriginDate),
		Term:      l.Note.TermMonths,
		Maturity:  FormatDate(l.Note.MaturityDate),
		Principal: FormatAmount(l.Note.Principal),
		Rate:      FormatRate(l.Note.InterestRate),
		AsOf:      FormatDate(l.AsOf),
		Accrued:   FormatAmount(l.Accrued),
		Total:     FormatAmount(l.MaturityValue),
	})
	if err != nil {
		return "", fmt.Errorf("render letter body: %w", err)
	}
	return buf.String(), nil
}

// TextRenderer writes letters as plain text.
type TextRenderer struct{}

func (TextRenderer) Extension() string { return ".txt" }

func (TextRenderer) Render(w io.Writer, l Letter) error {
	text, err := renderBody(l)
	if err != nil {
		return err
	}
	rule := strings.Repeat("-", 40)
	_, err = fmt.Fprintf(w, "%s\n\n%s\n\n%s\n\n%s\n%s\n", Title, greeting(l), text, rule, Signature)
	return err
}

// PDFRenderer writes letters as single-page A4 PDFs.
type PDFRenderer struct {
	// Font is a core PDF font family. Defaults to Arial.
	Font string
	// Created pins the document creation date. Zero means now.
	Created time.Time
}

func (PDFRenderer) Extension() string { return ".pdf" }

func (r PDFRenderer) Render(w io.Writer, l Letter) error {
	text, err := renderBody(l)
	if err != nil {
		return err
	}
	font := r.Font
	if font == "" {
		font = "Arial"
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate so names with accents survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(Title, true)
	if !r.Created.IsZero() {
		pdf.SetCreationDate(r.Created)
	}
	pdf.SetHeaderFunc(func() {
		pdf.SetFont(font, "B", 14)
		pdf.CellFormat(0, 10, Title, "", 1, "C", false, 0, "")
		pdf.Ln(5)
	})
	pdf.AddPage()

	pdf.SetFont(font, "", 12)
	pdf.CellFormat(0, 10, tr(greeting(l)), "", 1, "L", false, 0, "")
	pdf.Ln(5)
	pdf.MultiCell(0, 10, tr(text), "", "L", false)
	pdf.Ln(10)
	pdf.CellFormat(0, 10, strings.Repeat("-", 40), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 10, Signature, "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// RendererFor returns the renderer for a format name ("pdf" or "txt").
func RendererFor(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "pdf":
		return PDFRenderer{}, nil
	case "txt", "text":
		return TextRenderer{}, nil
	}
	return nil, fmt.Errorf("unsupported letter format %q", format)
}
