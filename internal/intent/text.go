package intent

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var digitReplacer = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٫", ".", "٬", ",", "،", "، ",
)

// Normalize prepares an utterance for matching: NFC composition, lower
// case, ASCII digits and single spaces.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	s = digitReplacer.Replace(s)
	return collapse(s)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// isWordRune treats combining marks (Arabic harakat) as part of a word.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.Is(unicode.Mn, r) || unicode.IsDigit(r)
}

func runeBefore(s string, i int) (rune, int) {
	if i <= 0 {
		return utf8.RuneError, 0
	}
	return utf8.DecodeLastRuneInString(s[:i])
}

func runeAfter(s string, i int) (rune, int) {
	if i >= len(s) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(s[i:])
}

// bounded reports whether s[start:end] is not glued to a neighbouring word.
// regexp's \b only understands ASCII, which is useless for Arabic.
func bounded(s string, start, end int) bool {
	if r, n := runeBefore(s, start); n > 0 && isWordRune(r) {
		return false
	}
	if r, n := runeAfter(s, end); n > 0 && isWordRune(r) {
		return false
	}
	return true
}

// partOfNumber reports whether the digits at s[start:end] continue a
// larger number on either side (2,700 or 3.5).
func partOfNumber(s string, start, end int) bool {
	if r, n := runeBefore(s, start); n > 0 {
		if unicode.IsDigit(r) {
			return true
		}
		if r == ',' || r == '.' {
			if r2, n2 := runeBefore(s, start-n); n2 > 0 && unicode.IsDigit(r2) {
				return true
			}
		}
	}
	if r, n := runeAfter(s, end); n > 0 {
		if unicode.IsDigit(r) {
			return true
		}
		if r == ',' || r == '.' || r == ':' {
			if r2, n2 := runeAfter(s, end+n); n2 > 0 && unicode.IsDigit(r2) {
				return true
			}
		}
	}
	return false
}

// findBounded returns the submatch indexes of the first match of re in s
// that sits on word boundaries, or nil.
func findBounded(re *regexp.Regexp, s string) []int {
	for _, loc := range re.FindAllStringSubmatchIndex(s, -1) {
		if bounded(s, loc[0], loc[1]) {
			return loc
		}
	}
	return nil
}

// cut removes s[start:end] and tidies the whitespace left behind.
func cut(s string, start, end int) string {
	return collapse(s[:start] + " " + s[end:])
}

// prefixWord returns the first of words that s starts with as a whole
// word, or "".
func prefixWord(s string, words []string) string {
	for _, w := range words {
		if !strings.HasPrefix(s, w) {
			continue
		}
		if r, n := runeAfter(s, len(w)); n > 0 && isWordRune(r) {
			continue
		}
		return w
	}
	return ""
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// hasToken reports whether any whitespace token of s equals one of words,
// optionally after peeling a clitic prefix.
func hasToken(s string, words []string) bool {
	for _, tok := range strings.Fields(s) {
		tok = strings.Trim(tok, ".,;:!?؟،")
		for _, w := range words {
			if tok == w {
				return true
			}
			for _, c := range clitics {
				if strings.HasPrefix(tok, c) && strings.TrimPrefix(tok, c) == w {
					return true
				}
			}
		}
	}
	return false
}
