package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"

	"gigfin/web"
)

// ErrExportFailed wraps every exporter failure. Exports are not retried.
var ErrExportFailed = errors.New("invoice export failed")

// Exporter writes a document in one output format.
type Exporter interface {
	Export(ctx context.Context, doc Document, w io.Writer) error
	ContentType() string
	Ext() string
}

// PDFRenderer converts an HTML page to PDF. *report.Client satisfies it.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

// HTMLExporter renders the printable invoice page.
type HTMLExporter struct {
	tmpl *template.Template
}

func NewHTMLExporter() (*HTMLExporter, error) {
	tmpl, err := template.ParseFS(web.TemplatesFS, "templates/invoice.html")
	if err != nil {
		return nil, fmt.Errorf("parse invoice template: %w", err)
	}
	return &HTMLExporter{tmpl: tmpl}, nil
}

func (e *HTMLExporter) ContentType() string { return "text/html; charset=utf-8" }
func (e *HTMLExporter) Ext() string         { return "html" }

func (e *HTMLExporter) Export(ctx context.Context, doc Document, w io.Writer) error {
	var buf bytes.Buffer
	if err := e.render(&buf, doc); err != nil {
		return err
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}

func (e *HTMLExporter) render(w io.Writer, doc Document) error {
	if err := e.tmpl.ExecuteTemplate(w, "invoice.html", struct {
		Document
		S Sections
	}{doc, doc.Sections()}); err != nil {
		return fmt.Errorf("%w: render html: %w", ErrExportFailed, err)
	}
	return nil
}

// PDFExporter renders the HTML page and hands it to a PDF renderer.
type PDFExporter struct {
	html     *HTMLExporter
	renderer PDFRenderer
}

func NewPDFExporter(html *HTMLExporter, renderer PDFRenderer) *PDFExporter {
	return &PDFExporter{html: html, renderer: renderer}
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }
func (e *PDFExporter) Ext() string         { return "pdf" }

func (e *PDFExporter) Export(ctx context.Context, doc Document, w io.Writer) error {
	var page bytes.Buffer
	if err := e.html.render(&page, doc); err != nil {
		return err
	}
	pdf, err := e.renderer.RenderHTML(ctx, page.Bytes())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	if _, err := w.Write(pdf); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}

// ExportFilename is the download name for doc in e's format.
func ExportFilename(e Exporter, doc Document) string {
	return FilenameWithExt(doc.InvoiceNumber, doc.ClientName, e.Ext())
}
