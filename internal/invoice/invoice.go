// Package invoice turns user-supplied invoice fields into a validated
// document and exports it as HTML or PDF.
package invoice

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"gigfin/internal/core"
)

// DefaultNumber is used when no invoice number is given.
const DefaultNumber = "INV-000"

// LongDate is how the invoice prints its date.
const LongDate = "January 2, 2006"

// Fields is the raw form input. Amount and Date are kept as text so a bad
// value is reported the same way as a missing one.
type Fields struct {
	InvoiceNumber      string `json:"invoiceNumber"`
	ClientName         string `json:"clientName" validate:"required"`
	ServiceDescription string `json:"serviceDescription" validate:"required"`
	Amount             string `json:"amount" validate:"required,amount"`
	IssuerName         string `json:"issuerName" validate:"required"`
	Date               string `json:"date" validate:"omitempty,isodate"`
}

// ValidationError lists the fields that are missing or unusable, in form order.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid invoice fields: " + strings.Join(e.Missing, ", ")
}

// Document is a composed invoice. It is never persisted.
type Document struct {
	InvoiceNumber      string          `json:"invoiceNumber"`
	Date               core.Date       `json:"date"`
	ClientName         string          `json:"clientName"`
	ServiceDescription string          `json:"serviceDescription"`
	Amount             decimal.Decimal `json:"amount"`
	IssuerName         string          `json:"issuerName"`
	Currency           string          `json:"currency"`
}

// Composer validates fields and builds documents in one currency.
type Composer struct {
	currency string
	validate *validator.Validate
}

// NewComposer returns a composer that prints totals in currency. An empty
// code falls back to core.DefaultCurrency.
func NewComposer(currency string) *Composer {
	if currency == "" {
		currency = core.DefaultCurrency
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		d, err := core.ParseAmount(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := core.ParseDate(fl.Field().String())
		return err == nil
	})
	return &Composer{currency: currency, validate: v}
}

var defaultComposer = NewComposer(core.DefaultCurrency)

// Compose uses the default currency.
func Compose(f Fields, now time.Time) (Document, error) {
	return defaultComposer.Compose(f, now)
}

// Compose validates f and builds the document. A blank number becomes
// DefaultNumber and a blank date becomes now's calendar date.
func (c *Composer) Compose(f Fields, now time.Time) (Document, error) {
	f = f.trimmed()
	if err := c.validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Document{}, err
		}
		missing := make([]string, 0, len(verrs))
		for _, fieldErr := range verrs {
			missing = append(missing, fieldErr.Field())
		}
		return Document{}, &ValidationError{Missing: missing}
	}

	amount, _ := core.ParseAmount(f.Amount)
	date := core.DateOf(now)
	if f.Date != "" {
		date, _ = core.ParseDate(f.Date)
	}
	number := f.InvoiceNumber
	if number == "" {
		number = DefaultNumber
	}

	return Document{
		InvoiceNumber:      number,
		Date:               date,
		ClientName:         f.ClientName,
		ServiceDescription: f.ServiceDescription,
		Amount:             amount,
		IssuerName:         f.IssuerName,
		Currency:           c.currency,
	}, nil
}

func (f Fields) trimmed() Fields {
	return Fields{
		InvoiceNumber:      strings.TrimSpace(f.InvoiceNumber),
		ClientName:         strings.TrimSpace(f.ClientName),
		ServiceDescription: strings.TrimSpace(f.ServiceDescription),
		Amount:             strings.TrimSpace(f.Amount),
		IssuerName:         strings.TrimSpace(f.IssuerName),
		Date:               strings.TrimSpace(f.Date),
	}
}

// Filename builds Invoice_<number>_<client>.pdf with every character
// outside [A-Za-z0-9] replaced by an underscore.
func Filename(invoiceNumber, clientName string) string {
	return FilenameWithExt(invoiceNumber, clientName, "pdf")
}

func FilenameWithExt(invoiceNumber, clientName, ext string) string {
	return fmt.Sprintf("Invoice_%s_%s.%s", sanitize(invoiceNumber), sanitize(clientName), ext)
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Filename is the download name for the PDF export.
func (d Document) Filename() string {
	return Filename(d.InvoiceNumber, d.ClientName)
}

// FormattedDate renders the date in long form, e.g. January 15, 2024.
func (d Document) FormattedDate() string {
	return d.Date.Format(LongDate)
}

// FormattedTotal renders the amount in the document's currency.
func (d Document) FormattedTotal() string {
	return core.FormatAmount(d.Amount, d.Currency)
}

// Field is a labelled value in one section of the printed invoice.
type Field struct {
	Label string
	Value string
}

// Sections is the printed layout, top to bottom.
type Sections struct {
	Title    string
	Number   string
	From     Field
	BillTo   Field
	Date     Field
	LineItem Field
	Total    Field
	Footer   []string
}

func (d Document) Sections() Sections {
	return Sections{
		Title:    "INVOICE",
		Number:   "#" + d.InvoiceNumber,
		From:     Field{Label: "FROM:", Value: d.IssuerName},
		BillTo:   Field{Label: "BILL TO:", Value: d.ClientName},
		Date:     Field{Label: "DATE:", Value: d.FormattedDate()},
		LineItem: Field{Label: "SERVICE DESCRIPTION", Value: d.ServiceDescription},
		Total:    Field{Label: "TOTAL DUE", Value: d.FormattedTotal()},
		Footer: []string{
			"Thank you for your business!",
			"This is a manually generated invoice.",
		},
	}
}
