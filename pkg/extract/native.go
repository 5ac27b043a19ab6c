package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/diegopaiva1/file-search-poc/pkg/log"

	"github.com/ledongthuc/pdf"
)

// Native extracts text in-process, dispatching on the declared MIME type.
// PDF goes through a real parser; the plain-text family is taken verbatim.
type Native struct{}

// NewNative creates a Native extractor.
func NewNative() *Native {
	return &Native{}
}

// Extract dispatches on mimeType. Unrecognized kinds return empty text and
// a nil error: an unsupported format is not a processing failure.
func (e *Native) Extract(ctx context.Context, data []byte, mimeType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch normalizeMimeType(mimeType) {
	case "application/pdf":
		return extractFromPDF(data)
	case "text/plain", "text/csv", "text/markdown", "text/html", "application/json", "application/xml":
		return string(data), nil
	default:
		log.Warnf("unsupported MIME type for native text extraction: %s (file %s)", mimeType, fileName)
		return "", nil
	}
}

// normalizeMimeType strips parameters such as "; charset=utf-8".
func normalizeMimeType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func extractFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}
