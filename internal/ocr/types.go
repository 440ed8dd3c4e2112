package ocr

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Document is the structured OCR result: a global text buffer plus per-page
// layout elements whose anchors reference byte offsets into that buffer.
type Document struct {
	Text  string `json:"text"`
	Pages []Page `json:"pages"`
}

// Page holds the layout elements recognized on one output page. Paragraphs
// are preferred for text reconstruction; tokens are the fallback when the
// processor produced no paragraph layout.
type Page struct {
	PageNumber int         `json:"pageNumber,omitempty"`
	Paragraphs []Paragraph `json:"paragraphs,omitempty"`
	Tokens     []Token     `json:"tokens,omitempty"`
}

type Paragraph struct {
	Layout Layout `json:"layout"`
}

type Token struct {
	Layout Layout `json:"layout"`
}

type Layout struct {
	TextAnchor TextAnchor `json:"textAnchor"`
}

type TextAnchor struct {
	TextSegments []TextSegment `json:"textSegments"`
}

// TextSegment is a half-open [StartIndex, EndIndex) range into Document.Text.
type TextSegment struct {
	StartIndex AnchorIndex `json:"startIndex,omitempty"`
	EndIndex   AnchorIndex `json:"endIndex"`
}

// AnchorIndex is an int64 offset that the wire format may encode either as a
// JSON number or as a quoted decimal string (proto3 int64 JSON mapping).
type AnchorIndex int64

func (a *AnchorIndex) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid text anchor index %q: %w", s, err)
	}
	*a = AnchorIndex(n)
	return nil
}

// ParseShard decodes one batch result shard. Shards may carry the document
// either under a "document" wrapper or at the top level.
func ParseShard(data []byte) (*Document, error) {
	var wrapper struct {
		Document *Document `json:"document"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Document != nil && (wrapper.Document.Text != "" || len(wrapper.Document.Pages) > 0) {
		return wrapper.Document, nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unrecognized OCR result shard: %w", err)
	}
	return &doc, nil
}
