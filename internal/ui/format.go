package ui

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders numbers and messages for one locale.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewFormatter parses locale as a BCP 47 tag. Unknown tags fall back to English.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}
}

// Tag returns the locale.
func (f *Formatter) Tag() language.Tag { return f.tag }

// Number formats n with the locale's grouping separators.
func (f *Formatter) Number(n int) string {
	return f.printer.Sprintf("%d", n)
}

// Sprintf formats with the locale's number rules.
func (f *Formatter) Sprintf(format string, args ...any) string {
	return f.printer.Sprintf(format, args...)
}
