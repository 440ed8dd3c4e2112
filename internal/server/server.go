package server

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "os"
    "path/filepath"
    "strconv"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/local/pdfreorder/internal/dispatcher"
    "github.com/local/pdfreorder/internal/filetype"
    "github.com/local/pdfreorder/internal/reorder"
    "github.com/local/pdfreorder/internal/statuscheck"
    "github.com/local/pdfreorder/internal/store"
)

const maxUploadBytes = 64 << 20

// Runner executes a reorder run synchronously.
type Runner interface {
    Run(ctx context.Context, inputPath, outputPath string) *reorder.Result
}

// Queue accepts async reorder jobs.
type Queue interface {
    Enqueue(ctx context.Context, payload []byte) error
}

// StatusStore reads and writes per-run status records.
type StatusStore interface {
    Set(ctx context.Context, runID string, st store.Status) error
    Get(ctx context.Context, runID string) (store.Status, bool, error)
}

type Dependencies struct {
    Runner  Runner
    Queue   Queue
    Status  StatusStore
    Checker *statuscheck.Checker
}

// Server exposes the reorder pipeline over HTTP.
type Server struct {
    deps    Dependencies
    tempDir string
}

func New(deps Dependencies, tempDir string) *Server {
    if tempDir == "" { tempDir = os.TempDir() }
    return &Server{deps: deps, tempDir: tempDir}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/", s.handleRoot)
    mux.HandleFunc("/health", s.handleHealth)
    mux.HandleFunc("/reorder", s.handleReorder)
    mux.HandleFunc("/reorder/async", s.handleReorderAsync)
    mux.HandleFunc("/status/", s.handleStatus)
    mux.HandleFunc("/download/", s.handleDownload)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/" {
        http.NotFound(w, r); return
    }
    writeJSON(w, http.StatusOK, map[string]any{
        "service": "pdfreorder",
        "status":  "healthy",
    })
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
    resp := map[string]any{"status": "healthy"}
    if s.deps.Checker != nil {
        resp["dependencies"] = s.deps.Checker.Summary(r.Context())
    }
    writeJSON(w, http.StatusOK, resp)
}

// handleReorder runs the pipeline synchronously and streams the reordered
// PDF back, with run details in response headers.
func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed); return
    }

    inputPath, cleanup, err := s.saveUpload(r)
    if err != nil {
        http.Error(w, err.Error(), http.StatusBadRequest); return
    }
    defer cleanup()

    outputPath := inputPath + "_reordered.pdf"
    defer os.Remove(outputPath)

    res := s.deps.Runner.Run(r.Context(), inputPath, outputPath)
    if !res.Success {
        writeJSON(w, http.StatusInternalServerError, map[string]any{
            "success": false,
            "error":   res.Error,
        })
        return
    }

    data, err := os.ReadFile(outputPath)
    if err != nil {
        http.Error(w, "failed to read output document", http.StatusInternalServerError); return
    }

    w.Header().Set("Content-Type", "application/pdf")
    w.Header().Set("X-Page-Count", strconv.Itoa(res.PageCount))
    w.Header().Set("X-Processing-Time", fmt.Sprintf("%.2f", res.ProcessingTime.Seconds()))
    w.Header().Set("X-Document-Type", docType(res.IsScanned))
    w.Header().Set("X-Original-Order", joinInts(res.OriginalOrder))
    w.Header().Set("X-New-Order", joinInts(res.NewOrder))
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(data)
}

// handleReorderAsync stores the upload, queues a job and returns the run id
// immediately.
func (s *Server) handleReorderAsync(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed); return
    }
    if s.deps.Queue == nil || s.deps.Status == nil {
        http.Error(w, "async processing not enabled", http.StatusServiceUnavailable); return
    }

    inputPath, _, err := s.saveUpload(r)
    if err != nil {
        http.Error(w, err.Error(), http.StatusBadRequest); return
    }
    // the worker owns the staged files from here on

    runID := uuid.NewString()
    outputPath := inputPath + "_reordered.pdf"
    payload, _ := json.Marshal(dispatcher.Job{RunID: runID, InputPath: inputPath, OutputPath: outputPath})

    now := time.Now()
    _ = s.deps.Status.Set(r.Context(), runID, store.Status{
        Status:   store.StatusQueued,
        Message:  "queued",
        Start:    &now,
        Metadata: map[string]interface{}{"input_path": inputPath},
    })
    if err := s.deps.Queue.Enqueue(r.Context(), payload); err != nil {
        log.Error().Err(err).Str("run_id", runID).Msg("failed to enqueue reorder job")
        http.Error(w, "failed to enqueue job", http.StatusInternalServerError); return
    }

    log.Info().Str("run_id", runID).Str("input", inputPath).Msg("queued async reorder job")
    writeJSON(w, http.StatusAccepted, map[string]any{
        "run_id":     runID,
        "status":     store.StatusQueued,
        "status_url": "/status/" + runID,
    })
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
    if s.deps.Status == nil {
        http.Error(w, "async processing not enabled", http.StatusServiceUnavailable); return
    }
    runID := strings.TrimPrefix(r.URL.Path, "/status/")
    if runID == "" {
        http.Error(w, "missing run id", http.StatusBadRequest); return
    }
    st, ok, err := s.deps.Status.Get(r.Context(), runID)
    if err != nil {
        http.Error(w, "status lookup failed", http.StatusInternalServerError); return
    }
    if !ok {
        http.Error(w, "unknown run id", http.StatusNotFound); return
    }
    resp := map[string]any{
        "run_id":   runID,
        "status":   st.Status,
        "progress": st.Progress,
        "message":  st.Message,
    }
    if st.Metadata != nil { resp["metadata"] = st.Metadata }
    if st.Status == store.StatusCompleted {
        resp["download_url"] = "/download/" + runID
    }
    writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
    if s.deps.Status == nil {
        http.Error(w, "async processing not enabled", http.StatusServiceUnavailable); return
    }
    runID := strings.TrimPrefix(r.URL.Path, "/download/")
    if runID == "" {
        http.Error(w, "missing run id", http.StatusBadRequest); return
    }
    st, ok, err := s.deps.Status.Get(r.Context(), runID)
    if err != nil {
        http.Error(w, "status lookup failed", http.StatusInternalServerError); return
    }
    if !ok {
        http.Error(w, "unknown run id", http.StatusNotFound); return
    }
    if st.Status != store.StatusCompleted {
        http.Error(w, "run not completed", http.StatusConflict); return
    }
    outputPath, _ := st.Metadata["output_path"].(string)
    if outputPath == "" {
        http.Error(w, "result no longer available", http.StatusGone); return
    }
    f, err := os.Open(outputPath)
    if err != nil {
        http.Error(w, "result no longer available", http.StatusGone); return
    }
    defer f.Close()

    w.Header().Set("Content-Type", "application/pdf")
    w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(outputPath)))
    _, _ = io.Copy(w, f)
}

// saveUpload writes the multipart "file" part to the temp dir and verifies
// by magic bytes that it is a PDF.
func (s *Server) saveUpload(r *http.Request) (string, func(), error) {
    if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
        return "", nil, fmt.Errorf("invalid multipart form: %w", err)
    }
    file, header, err := r.FormFile("file")
    if err != nil {
        return "", nil, fmt.Errorf("missing file field")
    }
    defer file.Close()

    data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
    if err != nil {
        return "", nil, fmt.Errorf("read upload: %w", err)
    }
    if info := filetype.DetectBytes(data); !info.IsPDF() {
        return "", nil, fmt.Errorf("unsupported file type %s, expected application/pdf", info.MIMEType)
    }

    if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
        return "", nil, fmt.Errorf("prepare temp dir: %w", err)
    }
    name := uuid.NewString() + "_" + sanitizeName(header.Filename)
    path := filepath.Join(s.tempDir, name)
    if err := os.WriteFile(path, data, 0o644); err != nil {
        return "", nil, fmt.Errorf("store upload: %w", err)
    }
    return path, func() { _ = os.Remove(path) }, nil
}

func sanitizeName(name string) string {
    name = filepath.Base(name)
    if name == "" || name == "." || name == "/" { return "upload.pdf" }
    return name
}

func docType(scanned bool) string {
    if scanned { return "scanned" }
    return "digital"
}

func joinInts(vals []int) string {
    parts := make([]string, len(vals))
    for i, v := range vals {
        parts[i] = strconv.Itoa(v)
    }
    return strings.Join(parts, ",")
}

func writeJSON(w http.ResponseWriter, code int, body any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(code)
    _ = json.NewEncoder(w).Encode(body)
}
