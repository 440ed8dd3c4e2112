package oracle

import (
    "context"
    "errors"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/pdfreorder/internal/metrics"
    "github.com/local/pdfreorder/internal/pdf"
)

// Sampling configures the completion call. Low temperature and nucleus
// sampling favor deterministic output.
type Sampling struct {
    Temperature float64
    TopP        float64
    TopK        int
}

// Completer is the text-completion backend behind the ordering oracle.
// Implementations are opaque, non-deterministic services; their output is an
// untrusted suggestion that must be fully validated before use.
type Completer interface {
    Name() string
    Complete(ctx context.Context, prompt string, s Sampling) (string, error)
}

var ErrRateLimited = errors.New("rate_limited")

// Options configures the ordering client.
type Options struct {
    Attempts   int
    RetryDelay time.Duration
    Sampling   Sampling
}

// Client asks a Completer for the correct page order, validates the answer
// and retries on garbage. It never fails a run: exhausting the retry budget
// degrades to the identity permutation.
type Client struct {
    completer Completer
    attempts  int
    delay     time.Duration
    sampling  Sampling
}

// New creates an ordering client. Non-positive attempts default to 3.
func New(completer Completer, opts Options) *Client {
    if opts.Attempts <= 0 { opts.Attempts = 3 }
    if opts.RetryDelay <= 0 { opts.RetryDelay = 2 * time.Second }
    return &Client{completer: completer, attempts: opts.Attempts, delay: opts.RetryDelay, sampling: opts.Sampling}
}

// DetermineOrder returns the inferred target order as 0-based original page
// indices. The result is always a valid permutation of [0, len(pages)).
func (c *Client) DetermineOrder(ctx context.Context, pages []pdf.Page) []int {
    n := len(pages)
    if n <= 1 {
        return Identity(n)
    }

    prompt := buildOrderingPrompt(pages)

    for attempt := 1; attempt <= c.attempts; attempt++ {
        text, err := c.completer.Complete(ctx, prompt, c.sampling)
        if err != nil {
            metrics.IncOracleAttempt("transport_error")
            log.Warn().Err(err).Int("attempt", attempt).Str("backend", c.completer.Name()).Msg("ordering oracle call failed")
        } else {
            order, perr := ParseOrder(text, n)
            switch {
            case perr != nil:
                metrics.IncOracleAttempt("invalid")
                log.Warn().Err(perr).Int("attempt", attempt).Msg("ordering oracle returned unparseable order")
            case isIdentity(order):
                // treated as a signal the oracle did not actually reorder
                metrics.IncOracleAttempt("identity")
                log.Warn().Int("attempt", attempt).Msg("ordering oracle returned original order, retrying")
            default:
                metrics.IncOracleAttempt("ok")
                log.Info().Ints("order", order).Int("attempt", attempt).Msg("ordering oracle determined page order")
                return order
            }
        }

        if attempt < c.attempts {
            select {
            case <-ctx.Done():
                metrics.IncOracleFallback()
                log.Warn().Msg("ordering aborted by context, using original order")
                return Identity(n)
            case <-time.After(c.delay):
            }
        }
    }

    metrics.IncOracleFallback()
    log.Warn().Int("attempts", c.attempts).Msg("all ordering attempts exhausted, using original order")
    return Identity(n)
}

// Identity returns the identity permutation [0, 1, ..., n-1].
func Identity(n int) []int {
    out := make([]int, n)
    for i := range out {
        out[i] = i
    }
    return out
}

func isIdentity(order []int) bool {
    for i, v := range order {
        if v != i {
            return false
        }
    }
    return true
}
