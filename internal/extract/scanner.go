package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// literalBody captures a string literal's content up to the first unescaped ")".
const literalBody = `((?:[^)\\]|\\(?s:.))*)`

var (
	// /Text ... (captured)
	textMarker = regexp.MustCompile(`/Text[^(]*\(` + literalBody + `\)`)
	// /T as a whole name token, so it does not re-read every /Text run.
	fieldMarker = regexp.MustCompile(`/T(?:[^A-Za-z0-9#(][^(]*)?\(` + literalBody + `\)`)
	// any string literal, with the nearest preceding name token when there is one.
	anyLiteral = regexp.MustCompile(`(/[A-Za-z][^(/]*)?\(` + literalBody + `\)`)

	// \s is ASCII only; vertical tab and Latin-1 NBSP count as whitespace too.
	whitespace = regexp.MustCompile(`[\s\x{0B}\x{A0}]+`)

	unescaper = strings.NewReplacer(
		`\\`, `\`,
		`\n`, "\n",
		`\r`, "",
		`\`, "",
	)
)

// structuralMarkers are the names that flag a literal as PDF structure rather than text.
var structuralMarkers = []string{"/Font", "/XObject", "/Image", "/Page", "/Contents"}

// minFallbackLen is the exclusive lower bound on fallback capture length.
const minFallbackLen = 2

// RawScanner recovers readable text from raw PDF bytes with regular expressions,
// without parsing the object or stream grammar. It keeps no state.
type RawScanner struct{}

// NewRawScanner creates a raw PDF scanner.
func NewRawScanner() *RawScanner {
	return &RawScanner{}
}

// Extract implements Extractor. It never returns an error.
func (s *RawScanner) Extract(data []byte) (string, error) {
	return s.Scan(data), nil
}

// Scan returns the best-effort text of a PDF. Marker passes run first (all /Text
// matches, then all /T matches); when they find nothing, every literal longer than
// two characters that is not structural is used instead. An empty string means
// nothing was found.
func (s *RawScanner) Scan(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	src := latin1(data)

	var b strings.Builder
	for _, m := range textMarker.FindAllStringSubmatch(src, -1) {
		b.WriteString(m[1])
		b.WriteByte(' ')
	}
	for _, m := range fieldMarker.FindAllStringSubmatch(src, -1) {
		b.WriteString(m[1])
		b.WriteByte(' ')
	}

	if strings.TrimSpace(b.String()) == "" {
		b.Reset()
		for _, m := range anyLiteral.FindAllStringSubmatch(src, -1) {
			if keepLiteral(m[1], m[2]) {
				b.WriteString(m[2])
				b.WriteByte(' ')
			}
		}
	}

	return normalize(b.String())
}

func keepLiteral(marker, literal string) bool {
	if utf8.RuneCountInString(literal) <= minFallbackLen {
		return false
	}
	candidate := marker + literal
	for _, sm := range structuralMarkers {
		if strings.Contains(candidate, sm) {
			return false
		}
	}
	return true
}

// normalize resolves PDF string escapes in one left-to-right pass, so "\\n" is a
// backslash followed by "n", not a line break. It then folds whitespace runs to one space.
func normalize(s string) string {
	s = unescaper.Replace(s)
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// latin1 maps every byte to the code point of the same value so that binary
// content can be matched as text.
func latin1(data []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// ISO-8859-1 defines all 256 bytes; this is unreachable in practice.
		r := make([]rune, len(data))
		for i, c := range data {
			r[i] = rune(c)
		}
		return string(r)
	}
	return string(out)
}
