package intent

import (
	"regexp"
	"strings"
	"time"
)

// DateLayout is the calendar date format used throughout.
const DateLayout = "2006-01-02"

var (
	tomorrowPattern = regexp.MustCompile(`غداً|غدا|بكرة|بكرا|mañana`)
	dayAfterPattern = regexp.MustCompile(`بعد (?:غداً|غدا|غد|بكرة|بكرا)|pasado mañana`)
)

// "بعد غدا" is the day after; "por la mañana" is the morning.
var notTomorrowAfter = []string{"بعد", "pasado", "la"}

const (
	arabicNext  = `(?:\s+(?:القادم|القادمة|الجاي|الجاية))?`
	spanishNext = `(?:\s+(?:que viene|próximo|proximo|próxima))?`
)

func arabicDay(names string) *regexp.Regexp {
	return regexp.MustCompile(`(?:يوم\s+)?(?:ال)?(?:` + names + `)` + arabicNext)
}

func spanishDay(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?:el\s+)?(?:(?:próximo|proximo)\s+)?(?:` + name + `)` + spanishNext)
}

type weekdayRule struct {
	day      time.Weekday
	patterns []*regexp.Regexp
}

var weekdays = []weekdayRule{
	{time.Sunday, []*regexp.Regexp{arabicDay(`أحد|احد`), spanishDay(`domingo`)}},
	{time.Monday, []*regexp.Regexp{arabicDay(`اثنين|إثنين|اتنين`), spanishDay(`lunes`)}},
	{time.Tuesday, []*regexp.Regexp{arabicDay(`ثلاثاء|ثلاثا|تلاتاء|تلات`), spanishDay(`martes`)}},
	{time.Wednesday, []*regexp.Regexp{arabicDay(`أربعاء|اربعاء|اربعا`), spanishDay(`miércoles|miercoles`)}},
	{time.Thursday, []*regexp.Regexp{arabicDay(`خميس`), spanishDay(`jueves`)}},
	{time.Friday, []*regexp.Regexp{arabicDay(`جمعة|جمعه`), spanishDay(`viernes`)}},
	{time.Saturday, []*regexp.Regexp{arabicDay(`سبت`), spanishDay(`sábado|sabado`)}},
}

// ExtractDate resolves the first relative date expression in text against
// ref and returns it as YYYY-MM-DD with the expression removed. Rules are
// tried in order: tomorrow, the day after tomorrow, then weekday names,
// which always resolve to the next occurrence strictly after ref.
func ExtractDate(text string, ref time.Time) (string, string) {
	if loc := findTomorrow(text); loc != nil {
		return addDays(ref, 1), cut(text, loc[0], loc[1])
	}
	if loc := findBounded(dayAfterPattern, text); loc != nil {
		return addDays(ref, 2), cut(text, loc[0], loc[1])
	}
	for _, wd := range weekdays {
		for _, re := range wd.patterns {
			if loc := findBounded(re, text); loc != nil {
				return addDays(ref, NextWeekdayOffset(ref.Weekday(), wd.day)), cut(text, loc[0], loc[1])
			}
		}
	}
	return "", text
}

func findTomorrow(text string) []int {
	for _, loc := range tomorrowPattern.FindAllStringIndex(text, -1) {
		if !bounded(text, loc[0], loc[1]) {
			continue
		}
		before := strings.TrimRight(text[:loc[0]], " ")
		if hasSuffixWord(before, notTomorrowAfter) {
			continue
		}
		return loc
	}
	return nil
}

func hasSuffixWord(s string, words []string) bool {
	for _, w := range words {
		if !strings.HasSuffix(s, w) {
			continue
		}
		if r, n := runeBefore(s, len(s)-len(w)); n > 0 && isWordRune(r) {
			continue
		}
		return true
	}
	return false
}

// NextWeekdayOffset is the number of days from today to the next target
// weekday, in 1..7. Today never counts.
func NextWeekdayOffset(today, target time.Weekday) int {
	offset := int(target) - int(today)
	if offset <= 0 {
		offset += 7
	}
	return offset
}

func addDays(ref time.Time, n int) string {
	y, m, d := ref.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, ref.Location()).Format(DateLayout)
}

// Today formats the calendar date of ref.
func Today(ref time.Time) string {
	return addDays(ref, 0)
}
