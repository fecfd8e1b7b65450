package render

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/mmynk/foodgram/internal/calculator"
)

// Page layout, in points from the top-left corner of an A4 page.
const (
	title        = "Shopping list"
	marginLeft   = 72.0
	titleY       = 72.0
	titleSize    = 20.0
	firstTokenY  = 112.0
	tokenStep    = 20.0
	tokenSize    = 14.0
	marginBottom = 56.0
)

// documentDate is stamped as creation and modification date so output is byte-stable.
var documentDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// defaultFontFamily names the embedded Go Regular font.
const defaultFontFamily = "GoRegular"

// Font is the TrueType typeface embedded in PDF output.
type Font struct {
	Family string
	Data   []byte
}

// DefaultFont returns the embedded Go Regular font, which covers Latin,
// Cyrillic and Greek.
func DefaultFont() (*Font, error) {
	return NewFont(defaultFontFamily, goregular.TTF)
}

// LoadFont reads a TrueType font from disk. Missing, malformed or
// unrenderable files yield an error wrapping ErrResourceMissing.
func LoadFont(family, path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: font %s: %v", ErrResourceMissing, path, err)
	}
	return NewFont(family, data)
}

// NewFont checks that data is a TrueType font fpdf can embed by rendering a
// one-line document with it.
func NewFont(family string, data []byte) (*Font, error) {
	if !isTrueType(data) {
		return nil, fmt.Errorf("%w: font %s is not a TrueType file", ErrResourceMissing, family)
	}
	font := &Font{Family: family, Data: data}
	if err := checkFont(font); err != nil {
		return nil, err
	}
	return font, nil
}

func checkFont(font *Font) (err error) {
	// fpdf's TrueType parser panics on some truncated tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: font %s: %v", ErrResourceMissing, font.Family, r)
		}
	}()

	sample := []calculator.ShoppingItem{{Name: "Flour Мука", Unit: "g", Total: 1}}
	if _, err := New(font).renderPDF(sample); err != nil {
		if errors.Is(err, ErrResourceMissing) {
			return err
		}
		return fmt.Errorf("%w: font %s: %v", ErrResourceMissing, font.Family, err)
	}
	return nil
}

func isTrueType(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	switch string(data[:4]) {
	case "\x00\x01\x00\x00", "true", "OTTO":
		return true
	}
	return false
}

// renderPDF writes the title, then each whitespace-separated token of the
// plain-text list on its own baseline, tokenStep points below the previous
// one. Tokens that would cross the bottom margin continue on a new page.
func (r *Renderer) renderPDF(items []calculator.ShoppingItem) ([]byte, error) {
	if r.font == nil || r.font.Family == "" || len(r.font.Data) == 0 {
		return nil, fmt.Errorf("%w: no font configured for PDF output", ErrResourceMissing)
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCreationDate(documentDate)
	pdf.SetModificationDate(documentDate)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(title, true)

	pdf.AddUTF8FontFromBytes(r.font.Family, "", r.font.Data)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: font %s: %v", ErrResourceMissing, r.font.Family, err)
	}

	_, pageHeight := pdf.GetPageSize()

	pdf.AddPage()
	pdf.SetFont(r.font.Family, "", titleSize)
	pdf.Text(marginLeft, titleY, title)

	pdf.SetFont(r.font.Family, "", tokenSize)
	y := firstTokenY
	for _, token := range strings.Fields(PlainText(items)) {
		if y > pageHeight-marginBottom {
			pdf.AddPage()
			y = firstTokenY
		}
		pdf.Text(marginLeft, y, token)
		y += tokenStep
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
