package statuscheck

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    awscfg "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/service/s3"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
    Ping(ctx context.Context) error
}

// Checker aggregates health checks for the external dependencies of the
// reorder service.
type Checker struct {
    redis          RedisPinger
    s3Bucket       string
    httpClient     *http.Client
    ocrEndpoint    string
    geminiKey      string
    geminiEndpoint string
}

// Options configures the Checker.
type Options struct {
    Redis          RedisPinger
    S3Bucket       string
    HTTPClient     *http.Client
    OCREndpoint    string
    GeminiKey      string
    GeminiEndpoint string
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary bundles all subsystem statuses for the health endpoint.
type Summary struct {
    Redis  Status `json:"redis"`
    S3     Status `json:"s3"`
    OCR    Status `json:"ocr"`
    Oracle Status `json:"oracle"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
    client := opts.HTTPClient
    if client == nil {
        client = &http.Client{Timeout: 5 * time.Second}
    }
    return &Checker{
        redis:          opts.Redis,
        s3Bucket:       opts.S3Bucket,
        httpClient:     client,
        ocrEndpoint:    strings.TrimRight(opts.OCREndpoint, "/"),
        geminiKey:      strings.TrimSpace(opts.GeminiKey),
        geminiEndpoint: strings.TrimRight(opts.GeminiEndpoint, "/"),
    }
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
    return Summary{
        Redis:  c.checkRedis(ctx),
        S3:     c.checkS3(ctx),
        OCR:    c.checkOCR(ctx),
        Oracle: c.checkOracle(ctx),
    }
}

func (c *Checker) checkRedis(ctx context.Context) Status {
    if c.redis == nil {
        return Status{OK: false, Message: "client unavailable"}
    }
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := c.redis.Ping(ctx); err != nil {
        return Status{OK: false, Message: err.Error()}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
    if c.s3Bucket == "" {
        return Status{OK: false, Message: "Bucket not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    cfg, err := awscfg.LoadDefaultConfig(ctx)
    if err != nil {
        return Status{OK: false, Message: err.Error()}
    }
    cli := s3.NewFromConfig(cfg)
    _, err = cli.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &c.s3Bucket})
    if err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkOCR(ctx context.Context) Status {
    if c.ocrEndpoint == "" {
        return Status{OK: false, Message: "Endpoint not configured"}
    }
    req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.ocrEndpoint, nil)
    resp, err := c.httpClient.Do(req)
    if err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    defer resp.Body.Close()
    // any HTTP answer means the processor endpoint is reachable
    return Status{OK: true, Message: "Reachable"}
}

func (c *Checker) checkOracle(ctx context.Context) Status {
    if c.geminiKey == "" {
        return Status{OK: false, Message: "API key missing"}
    }
    req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.geminiEndpoint+"/v1beta/models", nil)
    req.Header.Set("x-goog-api-key", c.geminiKey)
    resp, err := c.httpClient.Do(req)
    if err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    defer resp.Body.Close()
    if resp.StatusCode >= 400 {
        return Status{OK: false, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
    }
    return Status{OK: true, Message: "Available"}
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return msg[:120]
    }
    return msg
}
