package ingest

// text.go prepares delimited text for the CSV reader:
//
//   - the UTF-8 byte order mark written by Windows tools is dropped
//   - invalid UTF-8 sequences become U+FFFD so one bad byte does not make
//     the whole file unreadable
//
// Use newTextReader to apply both in the right order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// newTextReader strips a leading BOM and sanitizes the rest of r.
func newTextReader(r io.Reader) io.Reader {
	return &utf8Sanitizer{r: skipBOM(r)}
}

// skipBOM returns a reader positioned after the BOM when r starts with one.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

const sanitizeChunk = 32 * 1024

// utf8Sanitizer replaces invalid UTF-8 with the replacement character. A
// multi-byte sequence split across two reads is held back until the rest
// arrives.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte // raw bytes that may start an incomplete rune
	out     []byte // sanitized bytes not yet handed to the caller
	err     error
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		chunk := make([]byte, sanitizeChunk)
		n, err := s.r.Read(chunk)
		raw := append(s.pending, chunk[:n]...)
		s.err = err

		hold := 0
		if err == nil {
			hold = incompleteTail(raw)
		}
		s.out = bytes.ToValidUTF8(raw[:len(raw)-hold], []byte("\uFFFD"))
		s.pending = append([]byte(nil), raw[len(raw)-hold:]...)
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// incompleteTail returns how many trailing bytes of b form the start of a
// rune that is not yet complete.
func incompleteTail(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return 0
		}
		return len(b) - i
	}
	return 0
}
