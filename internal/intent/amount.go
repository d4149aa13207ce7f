package intent

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?`)

var currencyWords = []string{
	"ريالات", "ريال", "دولارات", "دولار", "جنيه", "دراهم", "درهم", "دنانير", "دينار", "بيسو",
	"pesos", "peso", "dólares", "dolares", "dólar", "dolar", "euros", "euro", "€", "$", "rs",
}

var currencySymbols = []string{"$", "€"}

// AmountMatch is the result of ExtractAmount.
type AmountMatch struct {
	Value float64
	Found bool
	// Currency is set when a currency word sat next to the number; the
	// span then covers both.
	Currency   bool
	Start, End int
}

// ExtractAmount finds the first standalone number in text. It does not
// modify text; callers decide when to remove the span.
func ExtractAmount(text string) AmountMatch {
	for _, loc := range numberPattern.FindAllStringIndex(text, -1) {
		if partOfNumber(text, loc[0], loc[1]) {
			continue
		}
		value, ok := parseNumber(text[loc[0]:loc[1]])
		if !ok {
			continue
		}
		m := AmountMatch{Value: value, Found: true, Start: loc[0], End: loc[1]}

		rest := text[loc[1]:]
		trimmed := strings.TrimLeft(rest, " ")
		if w := prefixWord(trimmed, currencyWords); w != "" {
			m.Currency = true
			m.End = loc[1] + len(rest) - len(trimmed) + len(w)
		}
		before := strings.TrimRight(text[:loc[0]], " ")
		for _, sym := range currencySymbols {
			if strings.HasSuffix(before, sym) {
				m.Currency = true
				m.Start = len(before) - len(sym)
			}
		}
		return m
	}
	return AmountMatch{}
}

// Strip removes the matched span from text.
func (m AmountMatch) Strip(text string) string {
	if !m.Found {
		return text
	}
	return cut(text, m.Start, m.End)
}

// removeNumber drops the first bare number in text whose value is v.
func removeNumber(text string, v float64) string {
	for _, loc := range numberPattern.FindAllStringIndex(text, -1) {
		if partOfNumber(text, loc[0], loc[1]) {
			continue
		}
		if n, ok := parseNumber(text[loc[0]:loc[1]]); ok && n == v {
			return cut(text, loc[0], loc[1])
		}
	}
	return text
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// ParseAmount pulls the first number out of a free-form reply such as
// "دفعت ٥٠ ريال" or "unos 1,200". It is used to fill an amount slot.
func ParseAmount(reply string) (float64, bool) {
	m := ExtractAmount(Normalize(reply))
	return m.Value, m.Found
}
