package reorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfreorder/internal/config"
	"github.com/local/pdfreorder/internal/metrics"
	"github.com/local/pdfreorder/internal/ocr"
	"github.com/local/pdfreorder/internal/pdf"
)

// OCRExtractor recovers per-page text from a scanned PDF.
type OCRExtractor interface {
	ExtractPages(ctx context.Context, path string) ([]pdf.Page, error)
}

// OCRService is the document OCR processor. Small documents go through the
// synchronous endpoint; larger ones through batch processing against staged
// objects.
type OCRService interface {
	Process(ctx context.Context, pdfBytes []byte) (*ocr.Document, error)
	BatchProcess(ctx context.Context, inputURI, outputURI string) (string, error)
	WaitOperation(ctx context.Context, name string, timeout time.Duration) error
}

// ObjectStore stages batch OCR inputs and outputs.
type ObjectStore interface {
	Bucket() string
	UploadFile(ctx context.Context, key string, data []byte, contentType string) error
	DownloadFile(ctx context.Context, key string) ([]byte, error)
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// PageCounter reports the number of pages in a PDF.
type PageCounter interface {
	PageCount(path string) (int, error)
}

// DocAIExtractor extracts scanned-page text via the OCR processor, choosing
// sync or batch mode by page count.
type DocAIExtractor struct {
	ocr          OCRService
	store        ObjectStore
	counter      PageCounter
	batchLimit   int
	batchTimeout time.Duration
}

func NewDocAIExtractor(svc OCRService, store ObjectStore, counter PageCounter, cfg config.OCRConfig) *DocAIExtractor {
	limit := cfg.BatchPageLimit
	if limit <= 0 {
		limit = 15
	}
	timeout := cfg.BatchTimeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &DocAIExtractor{ocr: svc, store: store, counter: counter, batchLimit: limit, batchTimeout: timeout}
}

// ExtractPages returns one entry per page, indexed by original position.
func (d *DocAIExtractor) ExtractPages(ctx context.Context, path string) ([]pdf.Page, error) {
	count, err := d.counter.PageCount(path)
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}

	if count <= d.batchLimit {
		return d.extractSync(ctx, path)
	}
	return d.extractBatch(ctx, path, count)
}

func (d *DocAIExtractor) extractSync(ctx context.Context, path string) ([]pdf.Page, error) {
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := d.ocr.Process(ctx, data)
	if err != nil {
		metrics.ObserveOCR("sync", "error", time.Since(start))
		return nil, fmt.Errorf("ocr process: %w", err)
	}
	metrics.ObserveOCR("sync", "success", time.Since(start))

	pages := make([]pdf.Page, 0, len(doc.Pages))
	for i, pg := range doc.Pages {
		pages = append(pages, pdf.Page{OriginalIndex: i, Text: ocr.PageText(doc, pg)})
	}
	log.Info().Int("pages", len(pages)).Dur("elapsed", time.Since(start)).Msg("Sync OCR complete")
	return pages, nil
}

// extractBatch stages the document under a per-run prefix, runs batch OCR
// and merges the output shards. Shards are consumed in lexical key order so
// the global page counter stays monotonic across shards.
func (d *DocAIExtractor) extractBatch(ctx context.Context, path string, count int) ([]pdf.Page, error) {
	start := time.Now()
	batchID := uuid.NewString()
	inputKey := fmt.Sprintf("input/%s/%s", batchID, filepath.Base(path))
	outputPrefix := fmt.Sprintf("output/%s/", batchID)

	defer func() {
		// best-effort cleanup of staging data
		for _, prefix := range []string{"input/" + batchID + "/", outputPrefix} {
			if err := d.store.DeletePrefix(context.Background(), prefix); err != nil {
				log.Warn().Err(err).Str("prefix", prefix).Msg("Failed to clean up batch staging data")
			}
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := d.store.UploadFile(ctx, inputKey, data, "application/pdf"); err != nil {
		return nil, fmt.Errorf("stage input: %w", err)
	}

	bucket := d.store.Bucket()
	inputURI := fmt.Sprintf("s3://%s/%s", bucket, inputKey)
	outputURI := fmt.Sprintf("s3://%s/%s", bucket, outputPrefix)
	log.Info().Str("batch_id", batchID).Int("pages", count).Str("input", inputURI).Msg("Starting batch OCR")

	opName, err := d.ocr.BatchProcess(ctx, inputURI, outputURI)
	if err != nil {
		metrics.ObserveOCR("batch", "error", time.Since(start))
		return nil, fmt.Errorf("start batch ocr: %w", err)
	}
	if err := d.ocr.WaitOperation(ctx, opName, d.batchTimeout); err != nil {
		metrics.ObserveOCR("batch", "error", time.Since(start))
		return nil, fmt.Errorf("wait for batch ocr: %w", err)
	}

	keys, err := d.store.ListKeys(ctx, outputPrefix)
	if err != nil {
		return nil, fmt.Errorf("list batch output: %w", err)
	}

	var pages []pdf.Page
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		raw, err := d.store.DownloadFile(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("download shard %s: %w", key, err)
		}
		doc, err := ocr.ParseShard(raw)
		if err != nil {
			return nil, fmt.Errorf("parse shard %s: %w", key, err)
		}
		for _, pg := range doc.Pages {
			pages = append(pages, pdf.Page{OriginalIndex: len(pages), Text: ocr.PageText(doc, pg)})
		}
	}
	if len(pages) == 0 {
		metrics.ObserveOCR("batch", "error", time.Since(start))
		return nil, fmt.Errorf("batch ocr produced no output shards")
	}

	metrics.ObserveOCR("batch", "success", time.Since(start))
	log.Info().Str("batch_id", batchID).Int("pages", len(pages)).
		Dur("elapsed", time.Since(start)).Msg("Batch OCR complete")
	return pages, nil
}
