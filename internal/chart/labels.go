package chart

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// LabelFormatter renders data labels with locale-aware grouping.
type LabelFormatter struct {
	printer *message.Printer
}

// NewLabelFormatter builds a formatter for a BCP 47 locale, English when the
// locale cannot be parsed.
func NewLabelFormatter(locale string) LabelFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return LabelFormatter{printer: message.NewPrinter(tag)}
}

// Plain formats v with at most two fraction digits: 1250 -> "1,250".
func (f LabelFormatter) Plain(v float64) string {
	return f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// Signed prefixes positive amounts with "+": 350 -> "+350", -200 -> "-200".
func (f LabelFormatter) Signed(v float64) string {
	if v > 0 {
		return "+" + f.Plain(v)
	}
	return f.Plain(v)
}

// Range labels a waterfall bar: totals show the running total, other bars
// their signed change.
func (f LabelFormatter) Range(r Range) string {
	if r.Total {
		return f.Plain(r.Cumulative)
	}
	return f.Signed(r.Change)
}
