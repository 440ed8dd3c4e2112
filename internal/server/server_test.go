package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfreorder/internal/dispatcher"
	"github.com/local/pdfreorder/internal/reorder"
	"github.com/local/pdfreorder/internal/store"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type fakeRunner struct {
	result *reorder.Result
	output []byte
	lastIn string
}

func (f *fakeRunner) Run(ctx context.Context, inputPath, outputPath string) *reorder.Result {
	f.lastIn = inputPath
	res := *f.result
	res.InputPath = inputPath
	res.OutputPath = outputPath
	if res.Success {
		if err := os.WriteFile(outputPath, f.output, 0o644); err != nil {
			res.Success = false
			res.Error = err.Error()
		}
	}
	return &res
}

type memQueue struct {
	mu   sync.Mutex
	jobs [][]byte
	err  error
}

func (q *memQueue) Enqueue(ctx context.Context, payload []byte) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, payload)
	return nil
}

type memStatus struct {
	mu   sync.Mutex
	runs map[string]store.Status
}

func newMemStatus() *memStatus { return &memStatus{runs: map[string]store.Status{}} }

func (m *memStatus) Set(ctx context.Context, runID string, st store.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runID] = st
	return nil
}

func (m *memStatus) Get(ctx context.Context, runID string) (store.Status, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.runs[runID]
	return st, ok, nil
}

func newTestServer(t *testing.T, deps Dependencies) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	New(deps, t.TempDir()).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func uploadRequest(t *testing.T, url string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "shuffled.pdf")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestRootEndpoint(t *testing.T) {
	srv := newTestServer(t, Dependencies{})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReorderSyncSuccess(t *testing.T) {
	runner := &fakeRunner{
		result: &reorder.Result{
			Success:        true,
			PageCount:      3,
			OriginalOrder:  []int{1, 2, 3},
			NewOrder:       []int{2, 1, 3},
			IsScanned:      false,
			ProcessingTime: 1500 * time.Millisecond,
		},
		output: pdfBytes,
	}
	srv := newTestServer(t, Dependencies{Runner: runner})

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL+"/reorder", pdfBytes))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, "3", resp.Header.Get("X-Page-Count"))
	assert.Equal(t, "digital", resp.Header.Get("X-Document-Type"))
	assert.Equal(t, "1,2,3", resp.Header.Get("X-Original-Order"))
	assert.Equal(t, "2,1,3", resp.Header.Get("X-New-Order"))
	assert.Equal(t, "1.50", resp.Header.Get("X-Processing-Time"))
}

func TestReorderSyncPipelineFailure(t *testing.T) {
	runner := &fakeRunner{result: &reorder.Result{Success: false, Error: "extract page text: broken"}}
	srv := newTestServer(t, Dependencies{Runner: runner})

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL+"/reorder", pdfBytes))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "broken")
}

func TestReorderRejectsNonPDF(t *testing.T) {
	runner := &fakeRunner{result: &reorder.Result{Success: true}}
	srv := newTestServer(t, Dependencies{Runner: runner})

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL+"/reorder", []byte("just some text")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, runner.lastIn)
}

func TestReorderRejectsMissingFile(t *testing.T) {
	srv := newTestServer(t, Dependencies{Runner: &fakeRunner{result: &reorder.Result{}}})

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("name", "value"))
	require.NoError(t, w.Close())
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/reorder", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReorderMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Dependencies{})

	resp, err := http.Get(srv.URL + "/reorder")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestReorderAsyncQueuesJob(t *testing.T) {
	q := &memQueue{}
	st := newMemStatus()
	srv := newTestServer(t, Dependencies{Queue: q, Status: st})

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL+"/reorder/async", pdfBytes))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	runID, _ := body["run_id"].(string)
	require.NotEmpty(t, runID)
	assert.Equal(t, "/status/"+runID, body["status_url"])

	require.Len(t, q.jobs, 1)
	var job dispatcher.Job
	require.NoError(t, json.Unmarshal(q.jobs[0], &job))
	assert.Equal(t, runID, job.RunID)
	assert.NotEmpty(t, job.InputPath)
	assert.NotEmpty(t, job.OutputPath)

	queued, ok, err := st.Get(context.Background(), runID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, store.StatusQueued, queued.Status)
}

func TestStatusEndpoint(t *testing.T) {
	st := newMemStatus()
	require.NoError(t, st.Set(context.Background(), "run-1", store.Status{
		Status:   store.StatusCompleted,
		Progress: 100,
		Message:  "completed",
		Metadata: map[string]interface{}{"page_count": 5},
	}))
	srv := newTestServer(t, Dependencies{Status: st})

	resp, err := http.Get(srv.URL + "/status/run-1")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, store.StatusCompleted, body["status"])
	assert.Equal(t, "/download/run-1", body["download_url"])
}

func TestStatusUnknownRun(t *testing.T) {
	srv := newTestServer(t, Dependencies{Status: newMemStatus()})

	resp, err := http.Get(srv.URL + "/status/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDownloadCompletedRun(t *testing.T) {
	outPath := t.TempDir() + "/result.pdf"
	require.NoError(t, os.WriteFile(outPath, pdfBytes, 0o644))

	st := newMemStatus()
	require.NoError(t, st.Set(context.Background(), "run-2", store.Status{
		Status:   store.StatusCompleted,
		Metadata: map[string]interface{}{"output_path": outPath},
	}))
	srv := newTestServer(t, Dependencies{Status: st})

	resp, err := http.Get(srv.URL + "/download/run-2")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
}

func TestDownloadIncompleteRun(t *testing.T) {
	st := newMemStatus()
	require.NoError(t, st.Set(context.Background(), "run-3", store.Status{Status: store.StatusProcessing}))
	srv := newTestServer(t, Dependencies{Status: st})

	resp, err := http.Get(srv.URL + "/download/run-3")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
