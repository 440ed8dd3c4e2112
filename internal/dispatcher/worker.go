package dispatcher

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/pdfreorder/internal/metrics"
    "github.com/local/pdfreorder/internal/reorder"
    "github.com/local/pdfreorder/internal/store"
)

// Queue is the job source for the worker pool.
type Queue interface {
    Dequeue(ctx context.Context, consumer string, timeout time.Duration) ([]byte, error)
    Depth(ctx context.Context) (int64, error)
}

// StatusStore records per-run progress.
type StatusStore interface {
    Set(ctx context.Context, runID string, st store.Status) error
}

// Runner executes one reorder run.
type Runner interface {
    Run(ctx context.Context, inputPath, outputPath string) *reorder.Result
}

// Job is the queued payload for an async reorder run.
type Job struct {
    RunID      string `json:"run_id"`
    InputPath  string `json:"input_path"`
    OutputPath string `json:"output_path"`
}

type Config struct {
    Concurrency int
    RunTimeout  time.Duration
}

// Worker consumes reorder jobs from the queue and runs the pipeline.
type Worker struct {
    cfg    Config
    q      Queue
    status StatusStore
    runner Runner
    stop   chan struct{}
}

func New(cfg Config, q Queue, status StatusStore, runner Runner) *Worker {
    if cfg.Concurrency <= 0 { cfg.Concurrency = 2 }
    if cfg.RunTimeout <= 0 { cfg.RunTimeout = 15 * time.Minute }
    return &Worker{cfg: cfg, q: q, status: status, runner: runner, stop: make(chan struct{})}
}

func (w *Worker) Start() {
    for i := 0; i < w.cfg.Concurrency; i++ {
        go w.loop(i)
    }
}

func (w *Worker) Stop(ctx context.Context) error {
    close(w.stop)
    return nil
}

func (w *Worker) loop(id int) {
    consumer := consumerName(id)
    log.Info().Int("worker", id).Msg("reorder worker started")
    for {
        select {
        case <-w.stop:
            log.Info().Int("worker", id).Msg("reorder worker stopped")
            return
        default:
        }

        data, err := w.q.Dequeue(context.Background(), consumer, 2*time.Second)
        if err != nil {
            log.Error().Err(err).Msg("queue dequeue error")
            time.Sleep(500 * time.Millisecond)
            continue
        }
        if data == nil {
            if depth, err := w.q.Depth(context.Background()); err == nil {
                metrics.SetQueueDepth(depth)
            }
            continue
        }

        var job Job
        if err := json.Unmarshal(data, &job); err != nil || job.RunID == "" {
            log.Warn().Err(err).Msg("discarding malformed job payload")
            continue
        }
        w.process(id, job)
    }
}

func (w *Worker) process(id int, job Job) {
    ctx, cancel := context.WithTimeout(context.Background(), w.cfg.RunTimeout)
    defer cancel()

    now := time.Now()
    _ = w.status.Set(ctx, job.RunID, store.Status{
        Status:   store.StatusProcessing,
        Progress: 10,
        Message:  "processing",
        Start:    &now,
    })

    res := w.runner.Run(ctx, job.InputPath, job.OutputPath)

    end := time.Now()
    st := store.Status{Start: &now, End: &end}
    if res.Success {
        st.Status = store.StatusCompleted
        st.Progress = 100
        st.Message = "completed"
        st.Metadata = map[string]interface{}{
            "page_count":      res.PageCount,
            "document_type":   docType(res.IsScanned),
            "new_order":       res.NewOrder,
            "output_path":     res.OutputPath,
            "processing_time": res.ProcessingTime.Seconds(),
        }
    } else {
        st.Status = store.StatusFailed
        st.Message = res.Error
    }
    if err := w.status.Set(context.Background(), job.RunID, st); err != nil {
        log.Error().Err(err).Str("run_id", job.RunID).Msg("failed to persist run status")
    }

    log.Info().Int("worker", id).Str("run_id", job.RunID).Bool("success", res.Success).
        Dur("elapsed", res.ProcessingTime).Msg("async reorder job finished")
}

func docType(scanned bool) string {
    if scanned { return "scanned" }
    return "digital"
}

func consumerName(id int) string {
    return fmt.Sprintf("worker-%d", id)
}
