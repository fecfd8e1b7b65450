// Package render turns an aggregated shopping list into a downloadable document.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/foodgram/internal/calculator"
)

// ErrResourceMissing is returned when a rendering dependency (the PDF font) is unavailable.
var ErrResourceMissing = errors.New("rendering resource missing")

// Format selects the document type.
type Format int

const (
	// FormatPlainText renders one CRLF-terminated line per item.
	FormatPlainText Format = iota
	// FormatPagedDocument renders a PDF.
	FormatPagedDocument
)

// ParseFormat maps a file extension ("txt", "pdf") to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "txt", "text":
		return FormatPlainText, nil
	case "pdf":
		return FormatPagedDocument, nil
	default:
		return 0, fmt.Errorf("unknown document format: %q", s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatPlainText:
		return "txt"
	case FormatPagedDocument:
		return "pdf"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ContentType is the MIME type to serve the document with.
func (f Format) ContentType() string {
	if f == FormatPagedDocument {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

// Filename is the suggested attachment name.
func (f Format) Filename() string {
	return "shopping_list." + f.String()
}

// Renderer produces shopping list documents. It is safe for concurrent use.
type Renderer struct {
	font *Font
}

// New creates a Renderer. A nil font disables PDF output: rendering a paged
// document then fails with ErrResourceMissing.
func New(font *Font) *Renderer {
	return &Renderer{font: font}
}

// Render formats items. Identical items always produce identical bytes.
func (r *Renderer) Render(items []calculator.ShoppingItem, format Format) ([]byte, error) {
	switch format {
	case FormatPlainText:
		return []byte(PlainText(items)), nil
	case FormatPagedDocument:
		return r.renderPDF(items)
	default:
		return nil, fmt.Errorf("unsupported format: %v", format)
	}
}

// PlainText renders items as "{name} ({unit}) — {total}" lines terminated by CRLF.
func PlainText(items []calculator.ShoppingItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s (%s) — %d\r\n", item.Name, item.Unit, item.Total)
	}
	return b.String()
}
