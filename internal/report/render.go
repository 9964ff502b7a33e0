package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"text/template"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
	sharedErrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

//go:embed templates/*.md.tmpl
var templateFS embed.FS

var markdownTemplates = template.Must(
	template.New("report").Funcs(template.FuncMap{
		"upper":      strings.ToUpper,
		"cell":       markdownCell,
		"formatTime": formatTimestamp,
	}).ParseFS(templateFS, "templates/*.md.tmpl"),
)

// Write renders doc, which must be a Document, PortDocument or
// CollectionDocument, to w in the given format.
func Write(w io.Writer, format Format, doc any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatMarkdown:
		return writeMarkdown(w, doc)
	case FormatText:
		return writeText(w, doc)
	case FormatPDF:
		return writePDF(w, doc)
	}
	return fmt.Errorf("%w: %q", sharedErrors.ErrUnsupportedFormat, format)
}

func writeMarkdown(w io.Writer, doc any) error {
	var name string
	switch doc.(type) {
	case Document:
		name = "endpoint.md"
	case PortDocument:
		name = "ports.md"
	case CollectionDocument:
		name = "collection.md"
	default:
		return fmt.Errorf("markdown: unsupported document %T", doc)
	}
	if err := markdownTemplates.ExecuteTemplate(w, name, doc); err != nil {
		return fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return nil
}

func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}

func writeText(w io.Writer, doc any) error {
	switch d := doc.(type) {
	case Document:
		return writeEndpointText(w, d)
	case PortDocument:
		return writePortsText(w, d)
	case CollectionDocument:
		fmt.Fprintf(w, "Collection: %s\nEndpoints: %d  Rejected: %d\n", d.Name, len(d.Reports), len(d.Failed))
		for _, f := range d.Failed {
			fmt.Fprintf(w, "  rejected %s %s: %s\n", f.Method, f.URL, f.Error)
		}
		for _, r := range d.Reports {
			fmt.Fprintln(w)
			if err := writeEndpointText(w, r); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("text: unsupported document %T", doc)
}

func writeEndpointText(w io.Writer, d Document) error {
	fmt.Fprintf(w, "%s %s\n", d.Method, d.Target)
	fmt.Fprintf(w, "Security score: %d/100  (critical %d, high %d, medium %d, low %d)\n",
		d.Score, d.Summary.Critical, d.Summary.High, d.Summary.Medium, d.Summary.Low)

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	if len(d.Vulnerabilities) > 0 {
		fmt.Fprintln(tw, "\nSEVERITY\tTYPE\tDESCRIPTION")
		for _, f := range d.Vulnerabilities {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", strings.ToUpper(f.Severity.String()), f.Kind, f.Detail)
		}
	}
	if len(d.TestResults) > 0 {
		fmt.Fprintln(tw, "\nSTATUS\tTEST\tDETAILS")
		for _, r := range d.TestResults {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", strings.ToUpper(string(r.Status)), r.Name, r.Detail)
		}
	}
	return tw.Flush()
}

func writePortsText(w io.Writer, d PortDocument) error {
	fmt.Fprintf(w, "Host: %s  Range: %d-%d  Scanned: %d  Duration: %dms\n",
		d.Host, d.StartPort, d.EndPort, d.TotalScanned, d.DurationMs)
	if d.Canceled {
		fmt.Fprintln(w, "Scan canceled; results are partial.")
	}
	if len(d.OpenPorts) == 0 {
		fmt.Fprintln(w, "No open ports found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PORT\tSERVICE\tNOTE")
	for _, p := range d.OpenPorts {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", p.Port, p.Service, p.Note)
	}
	return tw.Flush()
}

func writePDF(w io.Writer, doc any) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	switch d := doc.(type) {
	case Document:
		pdf.AddPage()
		pdfTitle(pdf, "Endpoint Security Report")
		pdfEndpoint(pdf, tr, d)
	case PortDocument:
		pdf.AddPage()
		pdfTitle(pdf, "Port Scan Report")
		pdfPorts(pdf, tr, d)
	case CollectionDocument:
		pdf.AddPage()
		pdfTitle(pdf, "Collection Report: "+tr(d.Name))
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("Endpoints tested: %d | Rejected: %d", len(d.Reports), len(d.Failed)), "", 1, "", false, 0, "")
		for _, f := range d.Failed {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("Rejected %s %s: %s", f.Method, f.URL, f.Error)), "", "", false)
		}
		for _, r := range d.Reports {
			pdf.AddPage()
			pdfEndpoint(pdf, tr, r)
		}
	default:
		return fmt.Errorf("pdf: unsupported document %T", doc)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func pdfTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(4)
}

func pdfEndpoint(pdf *gofpdf.Fpdf, tr func(string) string, d Document) {
	pdf.SetFont("Arial", "B", 12)
	pdf.MultiCell(0, 7, tr(d.Method+" "+d.Target), "", "", false)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Tested: "+formatTimestamp(d.Timestamp), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Security score: %d/100", d.Score), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Critical: %d | High: %d | Medium: %d | Low: %d",
		d.Summary.Critical, d.Summary.High, d.Summary.Medium, d.Summary.Low), "", 1, "", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Vulnerabilities", "", 1, "", false, 0, "")
	if len(d.Vulnerabilities) == 0 {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 6, "No vulnerabilities found.", "", 1, "", false, 0, "")
	}
	for _, f := range d.Vulnerabilities {
		if pdf.GetY() > 260 {
			pdf.AddPage()
		}
		r, g, b := severityColor(f.Severity)
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(r, g, b)
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s - %s", strings.ToUpper(f.Severity.String()), f.Kind)), "", 1, "", true, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, tr(f.Detail), "", "", false)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, tr("Recommendation: "+f.Remediation), "", "", false)
		pdf.Ln(2)
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Test Results", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, res := range d.TestResults {
		if pdf.GetY() > 270 {
			pdf.AddPage()
		}
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("[%s] %s: %s", strings.ToUpper(string(res.Status)), res.Name, res.Detail)), "", "", false)
	}
}

func pdfPorts(pdf *gofpdf.Fpdf, tr func(string) string, d PortDocument) {
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr("Host: "+d.Host), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Range: %d-%d | Scanned: %d | Duration: %d ms",
		d.StartPort, d.EndPort, d.TotalScanned, d.DurationMs), "", 1, "", false, 0, "")
	if d.Canceled {
		pdf.CellFormat(0, 6, "Scan canceled; results are partial.", "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(25, 7, "Port", "1", 0, "", true, 0, "")
	pdf.CellFormat(40, 7, "Service", "1", 0, "", true, 0, "")
	pdf.CellFormat(0, 7, "Note", "1", 1, "", true, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, p := range d.OpenPorts {
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", p.Port), "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 6, p.Service, "1", 0, "", false, 0, "")
		pdf.CellFormat(0, 6, tr(p.Note), "1", 1, "", false, 0, "")
	}
	if len(d.OpenPorts) == 0 {
		pdf.CellFormat(0, 6, "No open ports found.", "1", 1, "", false, 0, "")
	}
}

func severityColor(s finding.Severity) (int, int, int) {
	switch s {
	case finding.SeverityCritical:
		return 248, 200, 200
	case finding.SeverityHigh:
		return 252, 224, 196
	case finding.SeverityMedium:
		return 252, 243, 196
	}
	return 220, 232, 248
}
