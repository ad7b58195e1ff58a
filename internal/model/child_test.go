package model

import (
	"testing"
	"time"
)

func TestAgeInMonths(t *testing.T) {
	birthdate := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	c := &Child{Birthdate: birthdate}

	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"on birthdate", birthdate, 0},
		{"day before one month", time.Date(2025, 8, 9, 0, 0, 0, 0, time.UTC), 0},
		{"exactly one month", time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC), 1},
		{"eight months", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), 8},
		{"crosses a year", time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), 14},
		{"before birth clamps to zero", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.AgeInMonths(tt.at); got != tt.want {
				t.Fatalf("AgeInMonths(%v) = %d, want %d", tt.at, got, tt.want)
			}
		})
	}
}

func TestLimitTypeValid(t *testing.T) {
	if !LimitMessage.Valid() || !LimitVoice.Valid() {
		t.Fatal("message and voice must be valid daily counters")
	}
	if LimitPhoto.Valid() {
		t.Fatal("photo is a lifetime cap, not a daily counter")
	}
	if LimitType("bogus").Valid() {
		t.Fatal("unknown limit types must be invalid")
	}
}
