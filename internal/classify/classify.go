package classify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Kind is the document classification outcome.
type Kind string

const (
	// Digital documents carry an embedded text layer and are extracted directly.
	Digital Kind = "digital"
	// Scanned documents are raster images and need OCR to obtain text.
	Scanned Kind = "scanned"
)

// DefaultTextThreshold: a sampled page with more trimmed characters than this
// is taken as evidence of a digital document.
const DefaultTextThreshold = 100

// DefaultSamplePages is how many leading pages are probed.
const DefaultSamplePages = 3

// PageProbe captures the result of probing a single page.
type PageProbe struct {
	PageIndex int    `json:"page_index"`
	CharCount int    `json:"char_count"`
	Err       string `json:"err,omitempty"`
}

// Diagnostics provides detailed information about a classification pass.
type Diagnostics struct {
	FilePath     string      `json:"file_path"`
	TotalPages   int         `json:"total_pages"`
	SampledPages int         `json:"sampled_pages"`
	Threshold    int         `json:"threshold"`
	Probes       []PageProbe `json:"probes"`
	Kind         Kind        `json:"kind"`
	DurationMs   int64       `json:"duration_ms"`
}

// Doc abstracts a PDF document for classification probing.
type Doc interface {
	NumPage() int
	PageText(i int) (string, error)
	Close() error
}

// Opener abstracts opening a PDF path into a Doc.
type Opener interface {
	Open(path string) (Doc, error)
}

// Classifier decides whether a document is scanned or digital by sampling
// leading pages for directly extractable text. Pure function of document
// content; classifying the same document twice yields the same result.
type Classifier struct {
	opener        Opener
	samplePages   int
	textThreshold int
}

// New creates a Classifier. Non-positive options fall back to defaults.
func New(opener Opener, samplePages, textThreshold int) *Classifier {
	if samplePages <= 0 {
		samplePages = DefaultSamplePages
	}
	if textThreshold <= 0 {
		textThreshold = DefaultTextThreshold
	}
	return &Classifier{opener: opener, samplePages: samplePages, textThreshold: textThreshold}
}

// Classify inspects up to the first samplePages pages of the document. A
// single page with trimmed text longer than the threshold is sufficient
// evidence of a digital document; otherwise the document is scanned.
func (c *Classifier) Classify(path string) (Kind, *Diagnostics, error) {
	if c.opener == nil {
		return Scanned, nil, errors.New("no PDF opener configured")
	}

	start := time.Now()
	d, err := c.opener.Open(path)
	if err != nil {
		return Scanned, nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer d.Close()

	total := d.NumPage()
	sample := c.samplePages
	if total < sample {
		sample = total
	}

	kind := Scanned
	probes := make([]PageProbe, 0, sample)

	for i := 0; i < sample; i++ {
		probe := PageProbe{PageIndex: i}
		text, terr := d.PageText(i)
		if terr != nil {
			probe.Err = terr.Error()
			probes = append(probes, probe)
			continue
		}
		probe.CharCount = len(strings.TrimSpace(text))
		probes = append(probes, probe)
		if probe.CharCount > c.textThreshold {
			kind = Digital
			break
		}
	}

	diag := &Diagnostics{
		FilePath:     path,
		TotalPages:   total,
		SampledPages: sample,
		Threshold:    c.textThreshold,
		Probes:       probes,
		Kind:         kind,
		DurationMs:   time.Since(start).Milliseconds(),
	}

	log.Info().Str("pdf", path).Str("kind", string(kind)).Int("sampled", sample).Msg("document classified")
	return kind, diag, nil
}
