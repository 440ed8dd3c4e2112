package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seg(start, end int64) TextSegment {
	return TextSegment{StartIndex: AnchorIndex(start), EndIndex: AnchorIndex(end)}
}

func layoutFor(segs ...TextSegment) Layout {
	return Layout{TextAnchor: TextAnchor{TextSegments: segs}}
}

func TestPageTextFromParagraphs(t *testing.T) {
	doc := &Document{Text: "Hello world. Second paragraph."}
	page := Page{
		Paragraphs: []Paragraph{
			{Layout: layoutFor(seg(0, 12))},
			{Layout: layoutFor(seg(13, 30))},
		},
	}
	assert.Equal(t, "Hello world. Second paragraph.", PageText(doc, page))
}

func TestPageTextTokenFallback(t *testing.T) {
	doc := &Document{Text: "alpha beta gamma"}
	page := Page{
		Tokens: []Token{
			{Layout: layoutFor(seg(0, 5))},
			{Layout: layoutFor(seg(6, 10))},
			{Layout: layoutFor(seg(11, 16))},
		},
	}
	assert.Equal(t, "alpha beta gamma", PageText(doc, page))
}

func TestPageTextParagraphsPreferredOverTokens(t *testing.T) {
	doc := &Document{Text: "paragraph text / token text"}
	page := Page{
		Paragraphs: []Paragraph{{Layout: layoutFor(seg(0, 14))}},
		Tokens:     []Token{{Layout: layoutFor(seg(17, 27))}},
	}
	assert.Equal(t, "paragraph text", PageText(doc, page))
}

func TestPageTextClampsOutOfRangeAnchors(t *testing.T) {
	doc := &Document{Text: "short"}
	page := Page{
		Paragraphs: []Paragraph{
			{Layout: layoutFor(seg(0, 99))},
			{Layout: layoutFor(seg(-3, 5))},
			{Layout: layoutFor(seg(4, 2))}, // inverted range yields nothing
		},
	}
	assert.Equal(t, "short short", PageText(doc, page))
}

func TestPageTextEmptyPage(t *testing.T) {
	doc := &Document{Text: "anything"}
	assert.Equal(t, "", PageText(doc, Page{}))
}

func TestAnchorIndexDecodesStringsAndNumbers(t *testing.T) {
	doc, err := ParseShard([]byte(`{
		"text": "0123456789",
		"pages": [{
			"pageNumber": 1,
			"paragraphs": [{"layout": {"textAnchor": {"textSegments": [
				{"startIndex": "2", "endIndex": 6},
				{"endIndex": "8"}
			]}}}]
		}]
	}`))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	// segments of one layout concatenate without a separator
	assert.Equal(t, "234501234567", PageText(doc, doc.Pages[0]))
}

func TestParseShardDocumentWrapper(t *testing.T) {
	doc, err := ParseShard([]byte(`{"document": {"text": "wrapped", "pages": [{"pageNumber": 1}]}}`))
	require.NoError(t, err)
	assert.Equal(t, "wrapped", doc.Text)
	assert.Len(t, doc.Pages, 1)
}

func TestParseShardBareDocument(t *testing.T) {
	doc, err := ParseShard([]byte(`{"text": "bare", "pages": []}`))
	require.NoError(t, err)
	assert.Equal(t, "bare", doc.Text)
}

func TestParseShardGarbage(t *testing.T) {
	_, err := ParseShard([]byte(`not json at all`))
	assert.Error(t, err)
}
