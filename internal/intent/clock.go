package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var timePattern = regexp.MustCompile(`(?:(الساعة|الساعه|ساعة|a las|a la)\s*)?(\d{1,2})(?::(\d{2}))?`)

// Longest first so "مساء" wins over "م".
var eveningMarkers = []string{"de la tarde", "de la noche", "مساءً", "مساءا", "مساء", "ليلا", "ليلاً", "ظهرا", "ظهراً", "عصرا", "p.m.", "pm", "م"}
var morningMarkers = []string{"de la mañana", "صباحاً", "صباحا", "الصبح", "a.m.", "am", "ص"}

type meridiem int

const (
	noMeridiem meridiem = iota
	morning
	evening
)

// ExtractTime finds the first time expression in text and returns it as
// HH:MM together with the text it was removed from. A bare number only
// counts as a time next to an indicator word, a colon or a morning/evening
// marker; "5 تفاحات" is left alone.
func ExtractTime(text string) (string, string) {
	for _, loc := range timePattern.FindAllStringSubmatchIndex(text, -1) {
		hourStart, hourEnd := loc[4], loc[5]
		numEnd := hourEnd
		if loc[6] >= 0 {
			numEnd = loc[7]
		}
		if partOfNumber(text, hourStart, numEnd) {
			continue
		}
		start := loc[0]
		hasIndicator := loc[2] >= 0
		// "para la 5" holds "a la" inside a word; read it as a bare number.
		if hasIndicator && !bounded(text, loc[2], loc[3]) {
			hasIndicator = false
			start = hourStart
		}
		hasMinutes := loc[6] >= 0

		hour, _ := strconv.Atoi(text[hourStart:hourEnd])
		minute := 0
		if hasMinutes {
			minute, _ = strconv.Atoi(text[loc[6]:loc[7]])
		}

		end := loc[1]
		period, markerEnd := readMeridiem(text, end)
		if period != noMeridiem {
			end = markerEnd
		}
		if !hasIndicator && !hasMinutes && period == noMeridiem {
			continue
		}
		if hour > 23 || minute > 59 {
			continue
		}

		switch {
		case period == evening && hour < 12:
			hour += 12
		case period == morning && hour == 12:
			hour = 0
		}
		return fmt.Sprintf("%02d:%02d", hour, minute), cut(text, start, end)
	}
	return "", text
}

// readMeridiem looks for a marker right after position i.
func readMeridiem(text string, i int) (meridiem, int) {
	rest := text[i:]
	trimmed := strings.TrimLeft(rest, " ")
	offset := i + len(rest) - len(trimmed)
	if w := prefixWord(trimmed, eveningMarkers); w != "" {
		return evening, offset + len(w)
	}
	if w := prefixWord(trimmed, morningMarkers); w != "" {
		return morning, offset + len(w)
	}
	return noMeridiem, i
}
