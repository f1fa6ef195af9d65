package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"gigfin/internal/invoice"
	"gigfin/internal/log"
)

var errPDFDisabled = errors.New("PDF export is not configured; use format=html")

// exporterFor resolves ?format=. Without it, PDF is preferred when available.
func (s *Server) exporterFor(format string) (invoice.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "":
		if s.pdf != nil {
			return s.pdf, nil
		}
		return s.html, nil
	case "pdf":
		if s.pdf == nil {
			return nil, errPDFDisabled
		}
		return s.pdf, nil
	case "html":
		return s.html, nil
	default:
		return nil, fmt.Errorf("%w: format must be pdf or html, got %q", errInvalidInput, format)
	}
}

// invoiceFile is an exported invoice ready to be sent as an attachment.
type invoiceFile struct {
	body        []byte
	contentType string
	filename    string
}

// exportInvoice composes the invoice in the request body and exports it in
// the format named by ?format=.
func (s *Server) exportInvoice(r *http.Request) (invoiceFile, error) {
	ctx := r.Context()
	exporter, err := s.exporterFor(r.URL.Query().Get("format"))
	if err != nil {
		return invoiceFile{}, err
	}
	fields, err := ParseInvoiceFields(NewRequestBodyParser(r))
	if err != nil {
		return invoiceFile{}, err
	}
	doc, err := s.composer.Compose(fields, s.now())
	if err != nil {
		return invoiceFile{}, err
	}

	exportCtx, cancel := context.WithTimeout(ctx, s.cfg.ExportTimeout)
	defer cancel()
	var buf bytes.Buffer
	err = exporter.Export(exportCtx, doc, &buf)
	s.metrics.invoiceExported(exporter.Ext(), err)
	if err != nil {
		s.events.LogError(ctx, "Invoice export failed", err, log.OpExport, log.NewFields().
			WithComponent(log.ComponentInvoice))
		return invoiceFile{}, err
	}

	filename := invoice.ExportFilename(exporter, doc)
	log.FromContext(ctx).InfoContext(ctx, "Invoice exported",
		log.FieldInvoiceNumber, doc.InvoiceNumber,
		log.FieldFormat, exporter.Ext(),
		"filename", filename)
	return invoiceFile{body: buf.Bytes(), contentType: exporter.ContentType(), filename: filename}, nil
}

func (s *Server) handleInvoice(w http.ResponseWriter, r *http.Request) {
	f, err := s.exportInvoice(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	f.write(w)
}

// handleFormInvoice serves the dashboard invoice form. Failures return to
// the dashboard with a message instead of a JSON error body.
func (s *Server) handleFormInvoice(w http.ResponseWriter, r *http.Request) {
	f, err := s.exportInvoice(r)
	if err != nil {
		target := "/?" + url.Values{"invoice_error": {invoiceErrorMessage(err)}}.Encode() + "#invoice"
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	f.write(w)
}

func (f invoiceFile) write(w http.ResponseWriter) {
	NewResponse().
		Body(f.body, f.contentType).
		Attachment(f.filename).
		Write(w)
}

func invoiceErrorMessage(err error) string {
	var verr *invoice.ValidationError
	if errors.As(err, &verr) {
		return "Please fill in all required fields: " + strings.Join(verr.Missing, ", ")
	}
	if errors.Is(err, errPDFDisabled) {
		return err.Error()
	}
	if ErrorFor(err).statusCode >= http.StatusInternalServerError {
		return "Invoice export failed. Please try again."
	}
	return err.Error()
}
