package leadimport

import (
	"testing"
	"time"
)

func TestParseContactDate(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"2024-03-05", "2024-03-05", true},
		{" 2024-03-05 ", "2024-03-05", true},
		{"2024/03/05", "2024-03-05", true},
		{"3/5/2024", "2024-03-05", true},
		{"03/05/2024", "2024-03-05", true},
		{"2024-03-05T10:30:00Z", "2024-03-05", true},
		{"2024-03-05 10:30:00", "2024-03-05", true},
		{"Mar 5, 2024", "2024-03-05", true},
		{"March 5, 2024", "2024-03-05", true},
		{"5 Mar 2024", "2024-03-05", true},
		{"20240305", "2024-03-05", true},
		{"", "", false},
		{"yesterday", "", false},
		{"2024-13-45", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseContactDate(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseContactDate(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseContactDate_TwoDigitYear(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1/2/24", "2024-01-02"},
		{"01/02/99", "1999-01-02"},
		{"1.2.05", "2005-01-02"},
	}
	for _, tt := range tests {
		got, ok := ParseContactDate(tt.input)
		if !ok || got != tt.want {
			t.Errorf("ParseContactDate(%q) = (%q, %v), want %q", tt.input, got, ok, tt.want)
		}
	}

	// years beyond the pivot fall back a century
	if time.Now().Year()+TwoDigitYearPivot < 2060 {
		got, ok := ParseContactDate("1/2/60")
		if !ok || got != "1960-01-02" {
			t.Errorf("ParseContactDate(1/2/60) = (%q, %v), want 1960-01-02", got, ok)
		}
	}
}
