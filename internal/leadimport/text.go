package leadimport

// text.go prepares an uploaded export for the pipeline:
//
//   - the UTF-8 BOM written by Excel and other Windows tools is skipped
//   - input larger than the limit fails with ErrFileTooLarge
//   - invalid UTF-8 sequences become U+FFFD
//   - CRLF and lone CR line endings become LF, so no field keeps a trailing '\r'

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewBOMSkippingReader returns a reader that drops a leading UTF-8 BOM.
func NewBOMSkippingReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// ReadText reads an import file into memory. maxBytes <= 0 disables the
// size check.
func ReadText(r io.Reader, maxBytes int64) (string, error) {
	src := NewBOMSkippingReader(r)
	if maxBytes > 0 {
		// one extra byte distinguishes "exactly at the limit" from "over it"
		src = io.LimitReader(src, maxBytes+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("read import file: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxBytes)
	}

	return NormalizeText(data), nil
}

// NormalizeText sanitizes UTF-8 and normalizes line endings to LF.
func NormalizeText(data []byte) string {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	if strings.IndexByte(text, '\r') < 0 {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
