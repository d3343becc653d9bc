package feed

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type PriceFormatter func(currencyCode, price string) string

const (
	PriceStylePlain  = "plain"
	PriceStyleLocale = "locale"
)

// PlainPrice is the "{currency} {price}" label the mobile app shows.
func PlainPrice(currencyCode, price string) string {
	return strings.TrimSpace(currencyCode + " " + price)
}

// PriceFormatterFor picks the formatter for a configured style. locale is only
// used by the locale style.
func PriceFormatterFor(style, locale string) (PriceFormatter, error) {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "", PriceStylePlain:
		return PlainPrice, nil
	case PriceStyleLocale:
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("price locale %q: %w", locale, err)
		}
		return NewPriceFormatter(tag), nil
	default:
		return nil, fmt.Errorf("unknown price style %q", style)
	}
}

// FormatPrice formats price as an amount of the ISO 4217 currencyCode in
// English. Anything it cannot parse is shown as "{currency} {price}".
func FormatPrice(currencyCode, price string) string {
	return NewPriceFormatter(language.English)(currencyCode, price)
}

func NewPriceFormatter(tag language.Tag) PriceFormatter {
	return func(currencyCode, price string) string {
		fallback := PlainPrice(currencyCode, price)

		unit, err := currency.ParseISO(strings.TrimSpace(currencyCode))
		if err != nil {
			return fallback
		}

		amount, err := strconv.ParseFloat(strings.TrimSpace(price), 64)
		if err != nil {
			return fallback
		}

		return message.NewPrinter(tag).Sprint(currency.Symbol(unit.Amount(amount)))
	}
}
