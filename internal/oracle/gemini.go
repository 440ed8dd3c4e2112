package oracle

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "time"

    "github.com/local/pdfreorder/internal/config"
)

// GeminiClient talks to the Gemini generateContent REST API.
type GeminiClient struct {
    http     *http.Client
    apiKey   string
    model    string
    endpoint string
}

func NewGeminiClient(cfg config.OracleConfig) *GeminiClient {
    return &GeminiClient{
        http:     &http.Client{Timeout: 120 * time.Second},
        apiKey:   cfg.APIKey,
        model:    cfg.Model,
        endpoint: cfg.Endpoint,
    }
}

func (g *GeminiClient) Name() string { return "gemini:" + g.model }

type geminiRequest struct {
    Contents         []geminiContent  `json:"contents"`
    GenerationConfig geminiGenConfig  `json:"generationConfig"`
}

type geminiContent struct {
    Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
    Text string `json:"text"`
}

type geminiGenConfig struct {
    Temperature float64 `json:"temperature"`
    TopP        float64 `json:"topP"`
    TopK        int     `json:"topK"`
}

type geminiResponse struct {
    Candidates []struct {
        Content struct {
            Parts []struct {
                Text string `json:"text"`
            } `json:"parts"`
        } `json:"content"`
    } `json:"candidates"`
    Error *struct {
        Code    int    `json:"code"`
        Message string `json:"message"`
    } `json:"error"`
}

// Complete sends the prompt and returns the first candidate's text.
func (g *GeminiClient) Complete(ctx context.Context, prompt string, s Sampling) (string, error) {
    reqBody := geminiRequest{
        Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
        GenerationConfig: geminiGenConfig{Temperature: s.Temperature, TopP: s.TopP, TopK: s.TopK},
    }
    payload, err := json.Marshal(reqBody)
    if err != nil { return "", err }

    url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.endpoint, g.model)
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
    if err != nil { return "", err }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("x-goog-api-key", g.apiKey)

    resp, err := g.http.Do(req)
    if err != nil { return "", err }
    defer resp.Body.Close()

    body, err := io.ReadAll(resp.Body)
    if err != nil { return "", err }

    if resp.StatusCode == http.StatusTooManyRequests {
        return "", ErrRateLimited
    }
    if resp.StatusCode != http.StatusOK {
        return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, truncate(string(body), 300))
    }

    var out geminiResponse
    if err := json.Unmarshal(body, &out); err != nil {
        return "", fmt.Errorf("gemini: decode response: %w", err)
    }
    if out.Error != nil {
        return "", fmt.Errorf("gemini: api error %d: %s", out.Error.Code, out.Error.Message)
    }
    if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
        return "", fmt.Errorf("gemini: empty response")
    }
    return out.Candidates[0].Content.Parts[0].Text, nil
}

func truncate(s string, n int) string {
    if len(s) <= n { return s }
    return s[:n] + "..."
}
