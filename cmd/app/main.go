package main

import (
    "context"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "path/filepath"
    "strings"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/rs/zerolog/log"

    "github.com/local/pdfreorder/internal/classify"
    cfgpkg "github.com/local/pdfreorder/internal/config"
    "github.com/local/pdfreorder/internal/dispatcher"
    logpkg "github.com/local/pdfreorder/internal/logger"
    "github.com/local/pdfreorder/internal/metrics"
    "github.com/local/pdfreorder/internal/ocr"
    "github.com/local/pdfreorder/internal/oracle"
    "github.com/local/pdfreorder/internal/pdf"
    "github.com/local/pdfreorder/internal/queue"
    "github.com/local/pdfreorder/internal/reorder"
    "github.com/local/pdfreorder/internal/server"
    "github.com/local/pdfreorder/internal/statuscheck"
    "github.com/local/pdfreorder/internal/storage"
    "github.com/local/pdfreorder/internal/store"
)

func main() {
    _ = godotenv.Load()
    cfg := cfgpkg.FromEnv()

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level: cfg.Logging.Level,
        Pretty: cfg.Logging.Pretty,
        File: cfg.Logging.File,
        MaxSizeMB: cfg.Logging.MaxSizeMB,
        MaxBackups: cfg.Logging.MaxBackups,
        MaxAgeDays: cfg.Logging.MaxAgeDays,
        Compress: cfg.Logging.Compress,
        SendToAxiom: cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey: cfg.Axiom.APIKey,
        AxiomOrgID: cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush: cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()

    if err := cfg.Validate(); err != nil {
        fmt.Fprintln(os.Stderr, "Configuration error:", err)
        os.Exit(1)
    }

    args := os.Args[1:]
    if len(args) > 0 && args[0] == "--api" {
        runServer(cfg)
        return
    }
    runCLI(cfg, args)
}

func buildPipeline(ctx context.Context, cfg cfgpkg.Config) (*reorder.Pipeline, error) {
    extractor := pdf.NewExtractor()

    s3cli, err := storage.NewS3Client(ctx, cfg.Storage.Bucket)
    if err != nil {
        return nil, fmt.Errorf("init s3 client: %w", err)
    }

    ocrClient := ocr.NewClient(cfg.OCR)
    geminiClient := oracle.NewGeminiClient(cfg.Oracle)
    orderer := oracle.New(geminiClient, oracle.Options{
        Attempts:   cfg.Oracle.Attempts,
        RetryDelay: cfg.Oracle.RetryDelay,
        Sampling: oracle.Sampling{
            Temperature: cfg.Oracle.Temperature,
            TopP:        cfg.Oracle.TopP,
            TopK:        cfg.Oracle.TopK,
        },
    })

    deps := reorder.Dependencies{
        Classifier: classify.New(classify.FitzOpener{}, cfg.Pipeline.ClassifySamplePages, cfg.Pipeline.ClassifyTextThreshold),
        Extractor:  extractor,
        OCR:        reorder.NewDocAIExtractor(ocrClient, s3cli, extractor, cfg.OCR),
        Orderer:    orderer,
        Assembler:  pdf.NewAssembler(),
    }
    return reorder.NewPipeline(deps, cfg.Pipeline), nil
}

func runCLI(cfg cfgpkg.Config, args []string) {
    if len(args) < 1 {
        fmt.Fprintln(os.Stderr, "Usage: pdfreorder <input.pdf> [output.pdf]")
        fmt.Fprintln(os.Stderr, "       pdfreorder --api")
        os.Exit(1)
    }
    inputPath := args[0]
    outputPath := ""
    if len(args) > 1 {
        outputPath = args[1]
    } else {
        ext := filepath.Ext(inputPath)
        outputPath = strings.TrimSuffix(inputPath, ext) + "_reordered.pdf"
    }

    if _, err := os.Stat(inputPath); err != nil {
        fmt.Fprintln(os.Stderr, "Error: input file not found:", inputPath)
        os.Exit(1)
    }

    ctx := context.Background()
    pipeline, err := buildPipeline(ctx, cfg)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to build pipeline")
    }

    res := pipeline.Run(ctx, inputPath, outputPath)

    banner := strings.Repeat("=", 80)
    fmt.Println(banner)
    if res.Success {
        fmt.Println("PROCESSING COMPLETE")
        fmt.Println(banner)
        fmt.Printf("Input:           %s\n", res.InputPath)
        fmt.Printf("Output:          %s\n", res.OutputPath)
        fmt.Printf("Pages:           %d\n", res.PageCount)
        fmt.Printf("Document type:   %s\n", docTypeName(res.IsScanned))
        fmt.Printf("Original order:  %v\n", res.OriginalOrder)
        fmt.Printf("New order:       %v\n", res.NewOrder)
        if len(res.BlankPages) > 0 {
            fmt.Printf("Blank pages:     %v\n", res.BlankPages)
        }
        fmt.Printf("Processing time: %.2fs\n", res.ProcessingTime.Seconds())
        fmt.Println(banner)
        return
    }
    fmt.Println("PROCESSING FAILED")
    fmt.Println(banner)
    fmt.Printf("Input: %s\n", res.InputPath)
    fmt.Printf("Error: %s\n", res.Error)
    fmt.Println(banner)
    os.Exit(1)
}

func runServer(cfg cfgpkg.Config) {
    metrics.Init()

    ctx := context.Background()
    pipeline, err := buildPipeline(ctx, cfg)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to build pipeline")
    }

    // Queue
    rq, err := queue.NewRedisQueue(cfg.Queue.RedisURL, cfg.Queue.Stream, cfg.Queue.Group)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to connect to redis")
    }
    defer rq.Close()

    // Status store
    rs, err := store.NewRedisStatus(cfg.Queue.RedisURL)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to init redis status store")
    }
    defer rs.Close()

    checker := statuscheck.New(statuscheck.Options{
        Redis:          rs,
        S3Bucket:       cfg.Storage.Bucket,
        OCREndpoint:    cfg.OCR.Endpoint,
        GeminiKey:      cfg.Oracle.APIKey,
        GeminiEndpoint: cfg.Oracle.Endpoint,
    })

    srvDeps := server.Dependencies{
        Runner:  pipeline,
        Queue:   rq,
        Status:  rs,
        Checker: checker,
    }
    mux := http.NewServeMux()
    server.New(srvDeps, cfg.Pipeline.TempDir).RegisterRoutes(mux)
    mux.Handle("/metrics", metrics.Handler())

    // Worker pool for async jobs
    disp := dispatcher.New(dispatcher.Config{Concurrency: cfg.Queue.Workers}, rq, rs, pipeline)
    disp.Start()
    defer disp.Stop(context.Background())

    srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux}

    go func(){
        log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
    fmt.Println("shutdown complete")
}

func docTypeName(scanned bool) string {
    if scanned { return "scanned" }
    return "digital"
}
