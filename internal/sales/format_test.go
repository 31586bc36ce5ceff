// ABOUTME: Tests for locale-aware KPI formatting
// ABOUTME: Uses English for exact output and French for separator behavior

package sales

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestFormatter_English(t *testing.T) {
	f := NewFormatter(language.English)

	assert.Equal(t, "1,234,567", f.Integer(1234567))
	assert.Equal(t, "3,388 €", f.Euros(3387.97))
	assert.Equal(t, "677.59 €", f.EurosCents(677.594))
}

func TestFormatter_French(t *testing.T) {
	f := NewFormatter(language.French)

	got := f.EurosCents(1234.5)
	assert.True(t, strings.HasSuffix(got, "234,50 €"), "got %q", got)
	assert.NotContains(t, got, ".")
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Laptop", Label("Laptop"))

	long := "Ultra Wide Curved Gaming Monitor 49 inch"
	got := Label(long)
	assert.Equal(t, 26, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))

	exact := strings.Repeat("é", 26)
	assert.Equal(t, exact, Label(exact))
}
