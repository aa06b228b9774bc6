package leadimport

import (
	"reflect"
	"strings"
	"testing"
)

func TestTokenizeRow(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"simple", "a,b,c", []string{"a", "b", "c"}},
		{"empty line", "", []string{""}},
		{"trailing comma", "a,b,", []string{"a", "b", ""}},
		{"leading comma", ",a", []string{"", "a"}},
		{"quoted comma", `"Rossi, Mario",x`, []string{"Rossi, Mario", "x"}},
		{"quotes dropped", `"abc",def`, []string{"abc", "def"}},
		{"doubled quote not unescaped", `"say ""hi""",x`, []string{"say hi", "x"}},
		{"unterminated quote runs to end", `a,"b,c`, []string{"a", "b,c"}},
		{"whitespace kept", " a , b ", []string{" a ", " b "}},
		{"quote mid field", `ab"c,d"e`, []string{"abc,de"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenizeRow(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TokenizeRow(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestTokenizeRow_RoundTrip(t *testing.T) {
	// fields without quotes or commas survive a join/split
	rows := [][]string{
		{"abc123", "Mario", "Rossi", "", "Acme Inc."},
		{""},
		{"one"},
		{"a b", "c\td", "ünïcode", "https://linkedin.com/in/x"},
	}

	for _, fields := range rows {
		line := strings.Join(fields, ",")
		got := TokenizeRow(line)
		if !reflect.DeepEqual(got, fields) {
			t.Errorf("TokenizeRow(%q) = %q, want %q", line, got, fields)
		}
	}
}

func TestTokenizeRow_QuotedRoundTrip(t *testing.T) {
	fields := []string{"Rossi, Mario", "x", "a,b,c"}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + f + `"`
	}

	got := TokenizeRow(strings.Join(quoted, ","))
	if !reflect.DeepEqual(got, fields) {
		t.Errorf("got %q, want %q", got, fields)
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("h1,h2\na,b\n\nc,d")
	want := []string{"h1,h2", "a,b", "", "c,d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitLines = %q, want %q", got, want)
	}
}

func TestIsBlankLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"\t", true},
		{",", false},
		{"a", false},
	}
	for _, tt := range tests {
		if got := isBlankLine(tt.line); got != tt.want {
			t.Errorf("isBlankLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
