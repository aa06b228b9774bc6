package leadimport

import "strings"

// TokenizeRow splits one CSV line into fields.
//
// A double quote toggles quoted mode and is dropped from the output; commas
// inside quotes are literal. Doubled quotes are not unescaped and fields are
// not trimmed. An unterminated quote runs to the end of the line. An empty
// line yields a single empty field.
func TokenizeRow(line string) []string {
	var (
		fields   []string
		buf      strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, buf.String())
			buf.Reset()
		default:
			buf.WriteRune(r)
		}
	}

	return append(fields, buf.String())
}

// SplitLines splits file text into lines on '\n'. Carriage returns are kept;
// use ReadText to normalize line endings before splitting.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// isBlankLine reports whether a line holds only whitespace.
func isBlankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}
