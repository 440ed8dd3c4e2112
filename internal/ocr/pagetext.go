package ocr

import "strings"

// PageText reconstructs the text of a single page by resolving each layout
// element's anchors against the document's global text buffer. Paragraph and
// token texts are joined with single spaces.
func PageText(doc *Document, page Page) string {
	var parts []string

	for _, para := range page.Paragraphs {
		if t := anchorText(doc.Text, para.Layout); t != "" {
			parts = append(parts, t)
		}
	}

	// Fall back to tokens if the page has no paragraph layout
	if len(parts) == 0 {
		for _, tok := range page.Tokens {
			if t := anchorText(doc.Text, tok.Layout); t != "" {
				parts = append(parts, t)
			}
		}
	}

	return strings.Join(parts, " ")
}

// anchorText concatenates the text spans referenced by a layout element's
// character-offset anchors. Out-of-range offsets are clamped rather than
// rejected; processors occasionally emit an end index one past the buffer.
func anchorText(fullText string, layout Layout) string {
	var b strings.Builder
	for _, seg := range layout.TextAnchor.TextSegments {
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > len(fullText) {
			end = len(fullText)
		}
		if start >= end {
			continue
		}
		b.WriteString(fullText[start:end])
	}
	return b.String()
}
