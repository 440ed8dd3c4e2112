package reorder

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfreorder/internal/classify"
	"github.com/local/pdfreorder/internal/config"
	"github.com/local/pdfreorder/internal/metrics"
	"github.com/local/pdfreorder/internal/pdf"
)

// Classifier decides whether a document is digital or scanned.
type Classifier interface {
	Classify(path string) (classify.Kind, *classify.Diagnostics, error)
}

// TextExtractor reads embedded text from a digital PDF.
type TextExtractor interface {
	PageCount(path string) (int, error)
	PageTexts(path string) ([]string, error)
}

// Orderer determines the target page order for the given content pages. The
// returned slice is always a valid permutation of the pages' original
// indices.
type Orderer interface {
	DetermineOrder(ctx context.Context, pages []pdf.Page) []int
}

// PageAssembler writes a new PDF with pages arranged per the permutation.
type PageAssembler interface {
	Assemble(inPath, outPath string, perm []int) error
}

// Dependencies holds the pipeline collaborators.
type Dependencies struct {
	Classifier Classifier
	Extractor  TextExtractor
	OCR        OCRExtractor
	Orderer    Orderer
	Assembler  PageAssembler
}

// Pipeline runs the full reorder flow: classify, extract page texts, detect
// blanks, determine order, reassemble.
type Pipeline struct {
	deps           Dependencies
	blankThreshold int
}

func NewPipeline(deps Dependencies, cfg config.PipelineConfig) *Pipeline {
	threshold := cfg.BlankTextThreshold
	if threshold <= 0 {
		threshold = DefaultBlankThreshold
	}
	return &Pipeline{deps: deps, blankThreshold: threshold}
}

// Run processes inputPath and writes the reordered document to outputPath.
// Failures are reported in the result rather than returned; a failed run has
// Success=false, PageCount=0 and a non-empty Error.
func (p *Pipeline) Run(ctx context.Context, inputPath, outputPath string) *Result {
	start := time.Now()
	res := &Result{InputPath: inputPath, OutputPath: outputPath}
	defer func() {
		res.ProcessingTime = time.Since(start)
		metrics.ObserveRun(resultLabel(res.Success), doctypeLabel(res.IsScanned), res.ProcessingTime)
	}()

	kind, diag, err := p.deps.Classifier.Classify(inputPath)
	if err != nil {
		return res.fail("classify document: " + err.Error())
	}
	res.IsScanned = kind == classify.Scanned
	log.Info().Str("path", inputPath).Str("type", string(kind)).
		Int("sampled_pages", diag.SampledPages).Msg("Classified document")

	var pages []pdf.Page
	if res.IsScanned {
		pages, err = p.deps.OCR.ExtractPages(ctx, inputPath)
	} else {
		pages, err = p.extractDigital(inputPath)
	}
	if err != nil {
		return res.fail("extract page text: " + err.Error())
	}
	if len(pages) == 0 {
		return res.fail("document has no pages")
	}
	res.PageCount = len(pages)
	res.OriginalOrder = oneBased(identity(len(pages)))

	blanks := DetectBlanks(pages, p.blankThreshold)
	res.BlankPages = oneBased(blanks)
	if len(blanks) > 0 {
		metrics.AddBlankPages(len(blanks))
		log.Info().Ints("pages", res.BlankPages).Msg("Detected blank pages")
	}

	// blanks take part in the ordering request; the inferred order is then
	// rewritten so they land in a suffix
	order := p.deps.Orderer.DetermineOrder(ctx, pages)
	perm := MoveBlanksLast(order, blanks)
	res.NewOrder = oneBased(perm)

	if err := p.deps.Assembler.Assemble(inputPath, outputPath, perm); err != nil {
		return res.fail("assemble output: " + err.Error())
	}

	res.Success = true
	log.Info().Str("output", outputPath).Int("pages", res.PageCount).
		Bool("reordered", res.Reordered()).Dur("elapsed", time.Since(start)).
		Msg("Reorder run complete")
	return res
}

func (p *Pipeline) extractDigital(path string) ([]pdf.Page, error) {
	texts, err := p.deps.Extractor.PageTexts(path)
	if err != nil {
		return nil, err
	}
	pages := make([]pdf.Page, 0, len(texts))
	for i, t := range texts {
		pages = append(pages, pdf.Page{OriginalIndex: i, Text: t})
	}
	return pages, nil
}

func (r *Result) fail(msg string) *Result {
	r.Success = false
	r.PageCount = 0
	r.OriginalOrder = nil
	r.NewOrder = nil
	r.Error = msg
	log.Error().Str("path", r.InputPath).Str("error", msg).Msg("Reorder run failed")
	return r
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func doctypeLabel(scanned bool) string {
	if scanned {
		return "scanned"
	}
	return "digital"
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func oneBased(idx []int) []int {
	out := make([]int, len(idx))
	for i, v := range idx {
		out[i] = v + 1
	}
	return out
}
