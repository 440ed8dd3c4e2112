package config

import (
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level      string
    Pretty     bool
    File       string
    MaxSizeMB  int
    MaxBackups int
    MaxAgeDays int
    Compress   bool
}

// AxiomConfig holds Axiom log forwarding configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// OCRConfig defines the Document AI style OCR processor connection.
type OCRConfig struct {
    Endpoint     string
    ProjectID    string
    Location     string
    ProcessorID  string
    BatchPageLimit int           // pages above this go through the batch path
    BatchTimeout   time.Duration // max wait for a batch operation
    PollInterval   time.Duration
}

// OracleConfig defines the page-ordering oracle (text completion) backend.
type OracleConfig struct {
    APIKey      string
    Model       string
    Endpoint    string
    Temperature float64
    TopP        float64
    TopK        int
    Attempts    int
    RetryDelay  time.Duration
}

// PipelineConfig holds reorder pipeline tuning knobs.
type PipelineConfig struct {
    BlankTextThreshold    int // trimmed chars below this => blank page
    ClassifyTextThreshold int // trimmed chars above this => digital document
    ClassifySamplePages   int
    TempDir               string
}

// StorageConfig defines the S3 staging bucket for batch OCR.
type StorageConfig struct {
    Bucket string
}

// QueueConfig defines async job queue connectivity and names.
type QueueConfig struct {
    RedisURL     string
    Stream       string
    Group        string
    PollInterval time.Duration
    Workers      int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
    Port string
}

// Config is the top-level configuration.
type Config struct {
    Logging  LoggingConfig
    Axiom    AxiomConfig
    OCR      OCRConfig
    Oracle   OracleConfig
    Pipeline PipelineConfig
    Storage  StorageConfig
    Queue    QueueConfig
    Server   ServerConfig
}

// FromEnv loads configuration from environment with sensible defaults.
// Call Validate before using the OCR/oracle sections.
func FromEnv() Config {
    cfg := Config{}

    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/pdfreorder.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_pdfreorder",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    location := getEnv("GOOGLE_LOCATION", "")
    cfg.OCR = OCRConfig{
        Endpoint:       getEnv("DOCAI_ENDPOINT", defaultOCREndpoint(location)),
        ProjectID:      getEnv("GOOGLE_PROJECT_ID", ""),
        Location:       location,
        ProcessorID:    getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
        BatchPageLimit: parseInt(getEnv("OCR_BATCH_PAGE_LIMIT", "15"), 15),
        BatchTimeout:   parseDuration(getEnv("OCR_BATCH_TIMEOUT", "300s"), 300*time.Second),
        PollInterval:   parseDuration(getEnv("OCR_POLL_INTERVAL", "5s"), 5*time.Second),
    }

    cfg.Oracle = OracleConfig{
        APIKey:      getEnv("GEMINI_API_KEY", ""),
        Model:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
        Endpoint:    getEnv("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com"),
        Temperature: parseFloat(getEnv("ORACLE_TEMPERATURE", "0.1"), 0.1),
        TopP:        parseFloat(getEnv("ORACLE_TOP_P", "0.8"), 0.8),
        TopK:        parseInt(getEnv("ORACLE_TOP_K", "40"), 40),
        Attempts:    parseInt(getEnv("RETRY_ATTEMPTS", "3"), 3),
        RetryDelay:  parseDuration(getEnv("ORACLE_RETRY_DELAY", "2s"), 2*time.Second),
    }

    cfg.Pipeline = PipelineConfig{
        BlankTextThreshold:    parseInt(getEnv("BLANK_TEXT_THRESHOLD", "50"), 50),
        ClassifyTextThreshold: parseInt(getEnv("CLASSIFY_TEXT_THRESHOLD", "100"), 100),
        ClassifySamplePages:   parseInt(getEnv("CLASSIFY_SAMPLE_PAGES", "3"), 3),
        TempDir:               getEnv("TEMP_DIR", "./tmp"),
    }

    bucket := getEnv("BUCKET_NAME", "")
    if bucket == "" && cfg.OCR.ProjectID != "" {
        bucket = cfg.OCR.ProjectID + "-docai-temp"
    }
    cfg.Storage = StorageConfig{Bucket: bucket}

    cfg.Queue = QueueConfig{
        RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
        Stream:       getEnv("QUEUE_STREAM", "jobs:reorder"),
        Group:        getEnv("QUEUE_GROUP", "workers:reorder"),
        PollInterval: parseDuration(getEnv("QUEUE_POLL_INTERVAL", "100ms"), 100*time.Millisecond),
        Workers:      parseInt(getEnv("WORKER_CONCURRENCY", "2"), 2),
    }

    cfg.Server = ServerConfig{Port: getEnv("PORT", "8080")}

    return cfg
}

// Validate reports missing required settings. Fatal at startup, never recovered.
func (c Config) Validate() error {
    var missing []string
    if c.OCR.ProjectID == "" { missing = append(missing, "GOOGLE_PROJECT_ID") }
    if c.OCR.Location == "" { missing = append(missing, "GOOGLE_LOCATION") }
    if c.OCR.ProcessorID == "" { missing = append(missing, "DOCUMENT_AI_PROCESSOR_ID") }
    if c.Oracle.APIKey == "" { missing = append(missing, "GEMINI_API_KEY") }
    if len(missing) > 0 {
        return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
    }
    return nil
}

func defaultOCREndpoint(location string) string {
    if location == "" { return "" }
    return fmt.Sprintf("https://%s-documentai.googleapis.com", location)
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseFloat(s string, def float64) float64 {
    if s == "" { return def }
    if f, err := strconv.ParseFloat(s, 64); err == nil { return f }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
