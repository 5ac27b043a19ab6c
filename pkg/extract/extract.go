// Package extract provides the text-extraction capability used by the
// processing pipeline. An extractor turns raw document bytes plus their
// declared MIME type into plain text; a kind it does not recognize yields
// empty text, not an error.
package extract

import "context"

// Extractor extracts plain text from document bytes.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType, fileName string) (string, error)
}
