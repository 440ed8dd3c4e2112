package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
    t.Setenv("GOOGLE_PROJECT_ID", "proj-123")
    t.Setenv("GOOGLE_LOCATION", "eu")
    t.Setenv("DOCUMENT_AI_PROCESSOR_ID", "proc-456")
    t.Setenv("GEMINI_API_KEY", "key-789")
}

func TestFromEnvDefaults(t *testing.T) {
    setRequired(t)
    cfg := FromEnv()

    assert.Equal(t, "gemini-2.5-flash", cfg.Oracle.Model)
    assert.Equal(t, 0.1, cfg.Oracle.Temperature)
    assert.Equal(t, 0.8, cfg.Oracle.TopP)
    assert.Equal(t, 40, cfg.Oracle.TopK)
    assert.Equal(t, 3, cfg.Oracle.Attempts)
    assert.Equal(t, 2*time.Second, cfg.Oracle.RetryDelay)

    assert.Equal(t, 15, cfg.OCR.BatchPageLimit)
    assert.Equal(t, 300*time.Second, cfg.OCR.BatchTimeout)
    assert.Equal(t, "https://eu-documentai.googleapis.com", cfg.OCR.Endpoint)

    assert.Equal(t, 50, cfg.Pipeline.BlankTextThreshold)
    assert.Equal(t, 100, cfg.Pipeline.ClassifyTextThreshold)
    assert.Equal(t, 3, cfg.Pipeline.ClassifySamplePages)
    assert.Equal(t, "./tmp", cfg.Pipeline.TempDir)

    // bucket derived from project when unset
    assert.Equal(t, "proj-123-docai-temp", cfg.Storage.Bucket)

    assert.Equal(t, "8080", cfg.Server.Port)
    assert.Equal(t, "jobs:reorder", cfg.Queue.Stream)
}

func TestFromEnvOverrides(t *testing.T) {
    setRequired(t)
    t.Setenv("BUCKET_NAME", "custom-bucket")
    t.Setenv("GEMINI_MODEL", "gemini-2.0-pro")
    t.Setenv("RETRY_ATTEMPTS", "5")
    t.Setenv("OCR_BATCH_PAGE_LIMIT", "25")
    t.Setenv("TEMP_DIR", "/var/tmp/reorder")

    cfg := FromEnv()
    assert.Equal(t, "custom-bucket", cfg.Storage.Bucket)
    assert.Equal(t, "gemini-2.0-pro", cfg.Oracle.Model)
    assert.Equal(t, 5, cfg.Oracle.Attempts)
    assert.Equal(t, 25, cfg.OCR.BatchPageLimit)
    assert.Equal(t, "/var/tmp/reorder", cfg.Pipeline.TempDir)
}

func TestValidateMissingVars(t *testing.T) {
    t.Setenv("GOOGLE_PROJECT_ID", "")
    t.Setenv("GOOGLE_LOCATION", "")
    t.Setenv("DOCUMENT_AI_PROCESSOR_ID", "")
    t.Setenv("GEMINI_API_KEY", "")

    err := FromEnv().Validate()
    require.Error(t, err)
    assert.Contains(t, err.Error(), "GOOGLE_PROJECT_ID")
    assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestValidateComplete(t *testing.T) {
    setRequired(t)
    assert.NoError(t, FromEnv().Validate())
}

func TestParseHelpers(t *testing.T) {
    assert.Equal(t, 7, parseInt("7", 3))
    assert.Equal(t, 3, parseInt("junk", 3))
    assert.Equal(t, 0.5, parseFloat("0.5", 0.1))
    assert.True(t, parseBool("TRUE"))
    assert.True(t, parseBool("1"))
    assert.False(t, parseBool("off"))
    assert.Equal(t, 5*time.Second, parseDuration("5s", time.Second))
    assert.Equal(t, time.Second, parseDuration("bogus", time.Second))
}
