package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders amounts for display. Output is locale-aware and must not
// be parsed back or used in calculations.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
	scale   int
}

// NewFormatter builds a Formatter for a BCP 47 locale (e.g. "es-ES") and an
// ISO 4217 currency code (e.g. "EUR").
func NewFormatter(locale, currencyCode string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parsing locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("parsing currency %q: %w", currencyCode, err)
	}
	scale, _ := currency.Standard.Rounding(unit)

	return &Formatter{
		printer: message.NewPrinter(tag),
		unit:    unit,
		scale:   scale,
	}, nil
}

// Format returns the amount rounded to the currency's minor unit, with
// locale grouping and decimal separators, followed by the ISO code.
func (f *Formatter) Format(amount decimal.Decimal) string {
	v, _ := amount.Round(int32(f.scale)).Float64()
	return f.printer.Sprint(number.Decimal(v, number.Scale(f.scale))) + " " + f.unit.String()
}
