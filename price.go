package pricewatch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const DefaultCurrency = "Lei"

func stripchars(str, chr string) string {
	return strings.Map(func(r rune) rune {
		if !strings.ContainsRune(chr, r) {
			return r
		}
		return -1
	}, str)
}

// currencyPattern matches the currency marker as a whole word when it ends
// in a letter, so "Lei" does not match inside "Leica".
func currencyPattern(currency string) string {
	pattern := regexp.QuoteMeta(currency)
	if r, _ := utf8.DecodeLastRuneInString(currency); unicode.IsLetter(r) {
		pattern += `(?:$|\PL)`
	}
	return pattern
}

// Thousands groups are separated by '.', NBSP or narrow NBSP only, and the
// amount must not continue a longer run of digits.
func priceRegexp(currency string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^0-9.,])([0-9]{1,3}(?:[.\x{00a0}\x{202f}][0-9]{3})+|[0-9]+)((?:,[0-9]+)?)[\s\x{00a0}\x{202f}]*` + currencyPattern(currency))
}

// ParsePrice extracts the amount of a locale formatted price such as
// "1.234,56 Lei". The currency marker is required; text around the
// "<number> <currency>" part is ignored.
func ParsePrice(raw, currency string) (float64, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	if strings.TrimSpace(raw) == "" {
		return 0, NotAPriceError{raw, "empty"}
	}
	if !regexp.MustCompile(`(?i)` + currencyPattern(currency)).MatchString(raw) {
		return 0, NotAPriceError{raw, fmt.Sprintf("missing currency %q", currency)}
	}
	submatch := priceRegexp(currency).FindStringSubmatch(raw)
	if len(submatch) < 3 {
		return 0, NotAPriceError{raw, "no amount before currency"}
	}
	s := stripchars(submatch[1], ".\u00a0\u202f") + strings.Replace(submatch[2], ",", ".", 1)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, NotAPriceError{raw, err.Error()}
	}
	return f, nil
}

// PriceFormatter renders amounts the way the tracked shop does: Romanian
// grouping, two decimals and the currency suffix.
type PriceFormatter struct {
	Currency string
	Tag      language.Tag
}

func NewPriceFormatter(currency string) PriceFormatter {
	if currency == "" {
		currency = DefaultCurrency
	}
	return PriceFormatter{Currency: currency, Tag: language.Romanian}
}

func (formatter PriceFormatter) Format(value float64) string {
	p := message.NewPrinter(formatter.Tag)
	return p.Sprintf("%.2f", value) + " " + formatter.Currency
}

// WithCurrency appends the currency suffix to a bare amount scraped from a page.
func WithCurrency(amount, currency string) string {
	return strings.TrimSpace(amount) + " " + currency
}
