package ocr

import (
    "bytes"
    "context"
    "encoding/base64"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "os"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/pdfreorder/internal/config"
)

// ErrRateLimited signals HTTP 429 from the OCR processor.
var ErrRateLimited = errors.New("rate_limited")

// Client talks to a Document AI style OCR processor over its REST surface.
// It supports synchronous processing of small documents and asynchronous
// batch jobs that read and write a shared object-storage bucket.
type Client struct {
    http         *http.Client
    endpoint     string
    projectID    string
    location     string
    processorID  string
    token        string
    pollInterval time.Duration
}

// NewClient creates an OCR client from config. The access token comes from
// DOCAI_ACCESS_TOKEN.
func NewClient(cfg config.OCRConfig) *Client {
    poll := cfg.PollInterval
    if poll <= 0 { poll = 5 * time.Second }
    return &Client{
        http:         &http.Client{},
        endpoint:     cfg.Endpoint,
        projectID:    cfg.ProjectID,
        location:     cfg.Location,
        processorID:  cfg.ProcessorID,
        token:        os.Getenv("DOCAI_ACCESS_TOKEN"),
        pollInterval: poll,
    }
}

func (c *Client) processorPath() string {
    return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.projectID, c.location, c.processorID)
}

func (c *Client) do(ctx context.Context, method, url string, payload, out any) error {
    var body *bytes.Reader
    if payload != nil {
        b, err := json.Marshal(payload)
        if err != nil { return err }
        body = bytes.NewReader(b)
    } else {
        body = bytes.NewReader(nil)
    }
    req, err := http.NewRequestWithContext(ctx, method, url, body)
    if err != nil { return err }
    if c.token != "" { req.Header.Set("Authorization", "Bearer "+c.token) }
    req.Header.Set("Content-Type", "application/json")

    resp, err := c.http.Do(req)
    if err != nil { return err }
    defer resp.Body.Close()

    if resp.StatusCode == 429 { return ErrRateLimited }
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return fmt.Errorf("ocr processor status %d", resp.StatusCode)
    }
    if out == nil { return nil }
    return json.NewDecoder(resp.Body).Decode(out)
}

// Process runs synchronous OCR over raw PDF bytes and returns the structured
// document.
func (c *Client) Process(ctx context.Context, pdfBytes []byte) (*Document, error) {
    payload := map[string]any{
        "rawDocument": map[string]string{
            "content":  base64.StdEncoding.EncodeToString(pdfBytes),
            "mimeType": "application/pdf",
        },
    }
    url := fmt.Sprintf("%s/v1/%s:process", c.endpoint, c.processorPath())

    var r struct {
        Document *Document `json:"document"`
    }
    if err := c.do(ctx, http.MethodPost, url, payload, &r); err != nil {
        return nil, fmt.Errorf("ocr process failed: %w", err)
    }
    if r.Document == nil {
        return nil, errors.New("ocr process returned no document")
    }
    log.Debug().Int("pages", len(r.Document.Pages)).Int("chars", len(r.Document.Text)).Msg("sync OCR completed")
    return r.Document, nil
}

// BatchProcess submits an asynchronous OCR job over the staged input object
// and returns the operation name to await.
func (c *Client) BatchProcess(ctx context.Context, inputURI, outputURI string) (string, error) {
    payload := map[string]any{
        "inputDocuments": map[string]any{
            "documents": []map[string]string{
                {"uri": inputURI, "mimeType": "application/pdf"},
            },
        },
        "documentOutputConfig": map[string]any{
            "outputUri": outputURI,
        },
    }
    url := fmt.Sprintf("%s/v1/%s:batchProcess", c.endpoint, c.processorPath())

    var r struct {
        Name string `json:"name"`
    }
    if err := c.do(ctx, http.MethodPost, url, payload, &r); err != nil {
        return "", fmt.Errorf("ocr batch submit failed: %w", err)
    }
    if r.Name == "" {
        return "", errors.New("ocr batch submit returned no operation name")
    }
    log.Info().Str("operation", r.Name).Str("input", inputURI).Msg("batch OCR operation started")
    return r.Name, nil
}

// WaitOperation polls the batch operation until it completes or the timeout
// elapses. The operation's own error surfaces as a Go error.
func (c *Client) WaitOperation(ctx context.Context, name string, timeout time.Duration) error {
    ctx, cancel := context.WithTimeout(ctx, timeout)
    defer cancel()

    url := fmt.Sprintf("%s/v1/%s", c.endpoint, name)
    for {
        var r struct {
            Done  bool `json:"done"`
            Error *struct {
                Code    int    `json:"code"`
                Message string `json:"message"`
            } `json:"error"`
        }
        if err := c.do(ctx, http.MethodGet, url, nil, &r); err != nil {
            if ctx.Err() != nil {
                return fmt.Errorf("ocr batch operation %s timed out: %w", name, ctx.Err())
            }
            return fmt.Errorf("ocr operation poll failed: %w", err)
        }
        if r.Done {
            if r.Error != nil {
                return fmt.Errorf("ocr batch operation failed: %s (code %d)", r.Error.Message, r.Error.Code)
            }
            return nil
        }

        select {
        case <-ctx.Done():
            return fmt.Errorf("ocr batch operation %s timed out: %w", name, ctx.Err())
        case <-time.After(c.pollInterval):
        }
    }
}
