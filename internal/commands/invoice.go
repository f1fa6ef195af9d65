package commands

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"gigfin/internal/cli"
	"gigfin/internal/invoice"
	"gigfin/internal/log"
	"gigfin/internal/report"
)

type invoiceCmd struct {
	app     *App
	fields  invoice.Fields
	format  string
	outDir  string
	outFile string

	// renderer overrides the Gotenberg client, for tests.
	renderer invoice.PDFRenderer
}

func (*invoiceCmd) Name() string     { return "invoice" }
func (*invoiceCmd) Synopsis() string { return "compose an invoice and export it as PDF or HTML" }
func (*invoiceCmd) Usage() string {
	return `gigfin invoice -client <name> -service <description> -a <amount> -issuer <name> [-n <number>] [-d <YYYY-MM-DD>] [-format pdf|html] [-o <file> | -dir <dir>]

  Writes Invoice_<number>_<client>.<ext> to -dir unless -o names the file.
  PDF export needs GOTENBERG_URL; without it the default format is html.
`
}

func (c *invoiceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fields.InvoiceNumber, "n", "", "Invoice number. Defaults to "+invoice.DefaultNumber+".")
	f.StringVar(&c.fields.ClientName, "client", "", "Client name.")
	f.StringVar(&c.fields.ServiceDescription, "service", "", "Service description.")
	f.StringVar(&c.fields.Amount, "a", "", "Amount.")
	f.StringVar(&c.fields.IssuerName, "issuer", "", "Your name.")
	f.StringVar(&c.fields.Date, "d", "", "Invoice date (YYYY-MM-DD). Defaults to today.")
	f.StringVar(&c.format, "format", "", "Export format: pdf or html.")
	f.StringVar(&c.outDir, "dir", ".", "Directory for the derived file name.")
	f.StringVar(&c.outFile, "o", "", "Output file. Overrides -dir.")
}

func (c *invoiceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format := strings.ToLower(strings.TrimSpace(c.format))
	if format != "" && format != "pdf" && format != "html" {
		return c.app.usageError("-format must be pdf or html, got %q", c.format)
	}

	return c.app.run(ctx, func(ctx context.Context, env *cli.Env) error {
		doc, err := invoice.NewComposer(env.Config.Currency).Compose(c.fields, c.app.Now())
		if err != nil {
			return err
		}
		exporter, err := c.exporter(env, format)
		if err != nil {
			return err
		}

		exportCtx, cancel := context.WithTimeout(ctx, env.Config.ExportTimeout)
		defer cancel()
		var buf bytes.Buffer
		if err := exporter.Export(exportCtx, doc, &buf); err != nil {
			return err
		}

		path := c.outFile
		if path == "" {
			path = filepath.Join(c.outDir, invoice.ExportFilename(exporter, doc))
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write invoice: %w", err)
		}
		env.Logger.WithComponent(log.ComponentCLI).Info("Invoice exported",
			log.FieldInvoiceNumber, doc.InvoiceNumber,
			log.FieldFormat, exporter.Ext(),
			"path", path)
		fmt.Fprintln(c.app.Out, path)
		return nil
	})
}

func (c *invoiceCmd) exporter(env *cli.Env, format string) (invoice.Exporter, error) {
	html, err := invoice.NewHTMLExporter()
	if err != nil {
		return nil, err
	}
	renderer := c.renderer
	if renderer == nil && env.Config.PDFEnabled() {
		renderer = report.NewClient(env.Config.GotenbergURL, report.WithTimeout(env.Config.ExportTimeout))
	}
	switch {
	case format == "html", format == "" && renderer == nil:
		return html, nil
	case renderer == nil:
		return nil, fmt.Errorf("PDF export needs GOTENBERG_URL; use -format html")
	default:
		return invoice.NewPDFExporter(html, renderer), nil
	}
}
