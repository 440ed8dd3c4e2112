package pdf

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// Page is a single page of the input document paired with its extracted text.
// OriginalIndex is the page's 0-based position in the input file and is never
// reassigned once the page is produced.
type Page struct {
	OriginalIndex int
	Text          string
}

// Extractor extracts text from PDFs using go-fitz (no external tools needed).
type Extractor struct{}

// NewExtractor creates a new go-fitz based extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// PageCount returns the number of pages in a PDF.
func (e *Extractor) PageCount(pdfPath string) (int, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}

// PageText extracts text from a single page (0-based index).
func (e *Extractor) PageText(pdfPath string, idx int) (string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if idx < 0 || idx >= doc.NumPage() {
		return "", fmt.Errorf("page %d out of range (document has %d pages)", idx, doc.NumPage())
	}

	text, err := doc.Text(idx)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", idx, err)
	}
	return text, nil
}

// PageTexts extracts text from every page in original order, opening the
// document once. One entry per input page; extraction errors propagate.
func (e *Extractor) PageTexts(pdfPath string) ([]string, error) {
	log.Debug().Str("pdf", pdfPath).Msg("Extracting per-page text with go-fitz")

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	texts := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		texts = append(texts, text)
	}

	log.Debug().Int("pages", len(texts)).Msg("Extracted text from PDF")
	return texts, nil
}
