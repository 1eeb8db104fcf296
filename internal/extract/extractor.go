// Package extract turns uploaded resume files into plain text.
//
// PDFs go through an Extractor chosen by configuration: the raw regex scanner,
// the structured ledongthuc/pdf reader, or structured-with-raw-fallback.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Extractor kinds accepted by New.
const (
	KindRaw        = "raw"
	KindStructured = "structured"
	KindAuto       = "auto"
)

// Content types handled by ForMIME.
const (
	MIMEText = "text/plain"
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	ErrNoInput         = errors.New("no file content supplied")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Extractor converts raw PDF bytes to plain text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// New returns the PDF extractor for kind. An empty kind selects the raw scanner.
func New(kind string) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindRaw:
		return NewRawScanner(), nil
	case KindStructured:
		return NewStructuredExtractor(), nil
	case KindAuto:
		return NewFallbackExtractor(NewStructuredExtractor(), NewRawScanner()), nil
	default:
		return nil, fmt.Errorf("unknown pdf extractor %q", kind)
	}
}

// FallbackExtractor tries Primary and uses Secondary when Primary fails or
// produces only whitespace.
type FallbackExtractor struct {
	Primary   Extractor
	Secondary Extractor
}

func NewFallbackExtractor(primary, secondary Extractor) *FallbackExtractor {
	return &FallbackExtractor{Primary: primary, Secondary: secondary}
}

func (f *FallbackExtractor) Extract(data []byte) (string, error) {
	text, err := f.Primary.Extract(data)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	return f.Secondary.Extract(data)
}

// Supported reports whether ForMIME can handle mime.
func Supported(mime string) bool {
	switch mime {
	case MIMEText, MIMEPDF, MIMEDOCX:
		return true
	}
	return false
}

// ForMIME extracts text from data according to its content type, using pdf for PDFs.
func ForMIME(mime string, data []byte, pdf Extractor) (string, error) {
	if len(data) == 0 {
		return "", ErrNoInput
	}
	switch mime {
	case MIMEText:
		return string(data), nil
	case MIMEPDF:
		return pdf.Extract(data)
	case MIMEDOCX:
		return extractDocxText(bytes.NewReader(data))
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
	}
}

// DetectMIME returns the content type of an upload. The declared type wins unless
// it is missing or generic, in which case the bytes are sniffed.
func DetectMIME(declared string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return MIMEPDF
	}
	sniffed := http.DetectContentType(data)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	return sniffed
}
