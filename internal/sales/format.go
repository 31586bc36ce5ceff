// ABOUTME: Locale-aware KPI formatting using golang.org/x/text/message
// ABOUTME: Renders euro amounts and counts with the locale's digit grouping

package sales

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// maxLabelRunes bounds product names shown in KPI cards.
const maxLabelRunes = 26

// Formatter formats KPI values for one locale.
type Formatter struct {
	p *message.Printer
}

// NewFormatter returns a Formatter for tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{p: message.NewPrinter(tag)}
}

// Integer formats n with digit grouping.
func (f *Formatter) Integer(n int) string {
	return f.p.Sprintf("%d", n)
}

// Euros formats v rounded to whole euros.
func (f *Formatter) Euros(v float64) string {
	return f.p.Sprintf("%d €", int64(math.Round(v)))
}

// EurosCents formats v with two decimals.
func (f *Formatter) EurosCents(v float64) string {
	return f.p.Sprintf("%.2f €", v)
}

// Label shortens s to fit a KPI card.
func Label(s string) string {
	r := []rune(s)
	if len(r) <= maxLabelRunes {
		return s
	}
	return string(r[:maxLabelRunes-3]) + "..."
}
