package intent

import (
	"testing"
	"time"
)

// Wednesday.
var refDate = time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)

func TestExtractDate(t *testing.T) {
	tests := []struct {
		in       string
		wantDate string
		wantRest string
	}{
		{"موعد غدا", "2025-03-13", "موعد"},
		{"موعد بكرة مع احمد", "2025-03-13", "موعد مع احمد"},
		{"موعد بعد غدا", "2025-03-14", "موعد"},
		{"موعد بعد بكرة", "2025-03-14", "موعد"},
		{"cita mañana", "2025-03-13", "cita"},
		{"cita pasado mañana", "2025-03-14", "cita"},
		{"اجتماع يوم الاحد القادم", "2025-03-16", "اجتماع"},
		{"اجتماع الأربعاء", "2025-03-19", "اجتماع"},
		{"reunión el viernes", "2025-03-14", "reunión"},
		{"reunión el miércoles que viene", "2025-03-19", "reunión"},
		{"اشتري واحد حليب", "", "اشتري واحد حليب"},
		{"غداء مع العائلة", "", "غداء مع العائلة"},
		{"correr por la mañana", "", "correr por la mañana"},
	}

	for _, tt := range tests {
		gotDate, gotRest := ExtractDate(tt.in, refDate)
		if gotDate != tt.wantDate {
			t.Errorf("ExtractDate(%q) date = %q, want %q", tt.in, gotDate, tt.wantDate)
		}
		if gotRest != tt.wantRest {
			t.Errorf("ExtractDate(%q) rest = %q, want %q", tt.in, gotRest, tt.wantRest)
		}
	}
}

func TestNextWeekdayOffset(t *testing.T) {
	for today := time.Sunday; today <= time.Saturday; today++ {
		for target := time.Sunday; target <= time.Saturday; target++ {
			got := NextWeekdayOffset(today, target)
			if got < 1 || got > 7 {
				t.Fatalf("NextWeekdayOffset(%v, %v) = %d, want 1..7", today, target, got)
			}
			if time.Weekday((int(today)+got)%7) != target {
				t.Errorf("NextWeekdayOffset(%v, %v) = %d lands on the wrong day", today, target, got)
			}
		}
	}
	if got := NextWeekdayOffset(time.Wednesday, time.Wednesday); got != 7 {
		t.Errorf("same weekday should resolve a week ahead, got %d", got)
	}
}

func TestExtractDateAcrossMonthEnd(t *testing.T) {
	ref := time.Date(2024, 2, 28, 23, 0, 0, 0, time.UTC)
	got, _ := ExtractDate("غدا", ref)
	if got != "2024-02-29" {
		t.Errorf("got %q, want leap day", got)
	}
	got, _ = ExtractDate("بعد غدا", ref)
	if got != "2024-03-01" {
		t.Errorf("got %q, want 2024-03-01", got)
	}
}
