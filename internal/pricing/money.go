package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/padelhub/storefront/pkg/model"
)

// CurrencyDisplay controls how amounts in one currency are shown. The currency
// code and the display locale are configured independently: picking a
// European locale never relabels a USD amount as EUR.
type CurrencyDisplay struct {
	Symbol string
	Locale language.Tag
}

// Formatter renders money amounts for display.
type Formatter struct {
	displays map[model.Currency]CurrencyDisplay
	fallback language.Tag
}

// DefaultDisplays returns the storefront's stock currency settings.
func DefaultDisplays() map[model.Currency]CurrencyDisplay {
	return map[model.Currency]CurrencyDisplay{
		model.CurrencyARS: {Symbol: "$", Locale: language.MustParse("es-AR")},
		model.CurrencyUSD: {Symbol: "US$", Locale: language.AmericanEnglish},
	}
}

// NewFormatter builds a Formatter. locales maps a currency code to a BCP 47 tag
// and overrides the default locale for that currency.
func NewFormatter(locales map[model.Currency]string) (*Formatter, error) {
	displays := DefaultDisplays()
	for cur, raw := range locales {
		tag, err := language.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("locale for %s: %w", cur, err)
		}
		d, ok := displays[cur]
		if !ok {
			d = CurrencyDisplay{Symbol: string(cur)}
		}
		d.Locale = tag
		displays[cur] = d
	}
	return &Formatter{displays: displays, fallback: language.MustParse("es-AR")}, nil
}

// DefaultFormatter returns a Formatter with the stock settings.
func DefaultFormatter() *Formatter {
	return &Formatter{displays: DefaultDisplays(), fallback: language.MustParse("es-AR")}
}

// Format renders amount rounded to two decimals, e.g. "$ 31.250,00".
func (f *Formatter) Format(amount decimal.Decimal, cur model.Currency) string {
	d := f.display(cur)
	p := message.NewPrinter(d.Locale)
	n := p.Sprintf("%v", number.Decimal(
		amount.Round(2).InexactFloat64(),
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
	if d.Symbol == "" {
		return n
	}
	return d.Symbol + " " + n
}

// FormatPercent renders a percentage in the currency's locale with at most
// two decimals and no trailing zeros, e.g. "12,5%" for ARS or "12.5%" for USD.
func (f *Formatter) FormatPercent(pct decimal.Decimal, cur model.Currency) string {
	p := message.NewPrinter(f.display(cur).Locale)
	return p.Sprintf("%v", number.Decimal(
		pct.Round(2).InexactFloat64(),
		number.MaxFractionDigits(2),
	)) + "%"
}

func (f *Formatter) display(cur model.Currency) CurrencyDisplay {
	if d, ok := f.displays[cur]; ok {
		return d
	}
	return CurrencyDisplay{Symbol: strings.TrimSpace(string(cur)), Locale: f.fallback}
}
