// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-notes/internal/httputil"
	"github.com/pdiddy/pdf-notes/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const succeededBody = `{
  "status": "succeeded",
  "analyzeResult": {
    "apiVersion": "2023-07-31",
    "modelId": "prebuilt-layout",
    "pages": [
      {"pageNumber": 1, "lines": [{"content": "INTRODUCTION"}, {"content": "Body text."}]},
      {"pageNumber": 2, "lines": []}
    ],
    "paragraphs": [
      {"role": "title", "content": "INTRODUCTION"},
      {"content": "Body text."}
    ],
    "tables": [
      {"rowCount": 2, "columnCount": 2, "cells": [
        {"rowIndex": 0, "columnIndex": 0, "content": "A"},
        {"rowIndex": 0, "columnIndex": 1, "content": "B"},
        {"rowIndex": 1, "columnIndex": 0, "content": "1"},
        {"rowIndex": 1, "columnIndex": 1, "content": "2"}
      ]}
    ]
  }
}`

// fakeService is a scripted document-analysis endpoint. Poll responses are
// served in order; the last one repeats.
type fakeService struct {
	t            *testing.T
	submitStatus int
	submitBody   string
	polls        []string
	pollCount    int32

	mu        sync.Mutex
	submitted []byte
}

func (f *fakeService) body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.submitted)
}

func (f *fakeService) handler(baseURL *string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /formrecognizer/documentModels/{model}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "prebuilt-layout:analyze", r.PathValue("model"))
		assert.Equal(f.t, DefaultAPIVersion, r.URL.Query().Get("api-version"))
		assert.Equal(f.t, "test-key", r.Header.Get(headerKey))
		assert.Equal(f.t, "application/pdf", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.submitted = data
		f.mu.Unlock()

		if f.submitStatus != 0 && f.submitStatus != http.StatusAccepted {
			w.WriteHeader(f.submitStatus)
			io.WriteString(w, f.submitBody)
			return
		}
		w.Header().Set(headerOperation, *baseURL+"/operations/op-1")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET /operations/op-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "test-key", r.Header.Get(headerKey))
		n := int(atomic.AddInt32(&f.pollCount, 1)) - 1
		if n >= len(f.polls) {
			n = len(f.polls) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, f.polls[n])
	})
	return mux
}

func newTestClient(t *testing.T, svc *fakeService, tweak func(*types.AnalysisConfig)) *Client {
	t.Helper()
	svc.t = t
	var baseURL string
	ts := httptest.NewServer(svc.handler(&baseURL))
	t.Cleanup(ts.Close)
	baseURL = ts.URL

	cfg := types.AnalysisConfig{
		Endpoint:     ts.URL + "/",
		APIKey:       "test-key",
		PollInterval: time.Millisecond,
		PollTimeout:  2 * time.Second,
	}
	if tweak != nil {
		tweak(&cfg)
	}
	c, err := New(cfg, nil)
	require.NoError(t, err)
	return c
}

func writeTestPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7 fake"), 0o644))
	return path
}

func TestAnalyze_Succeeds(t *testing.T) {
	svc := &fakeService{
		polls: []string{
			`{"status": "notStarted"}`,
			`{"status": "running"}`,
			succeededBody,
		},
	}
	c := newTestClient(t, svc, nil)

	result, err := c.Analyze(context.Background(), writeTestPDF(t))
	require.NoError(t, err)

	assert.Equal(t, "%PDF-1.7 fake", svc.body())
	assert.Equal(t, int32(3), atomic.LoadInt32(&svc.pollCount))
	assert.Equal(t, 2, result.PageCount())
	assert.Equal(t, "INTRODUCTION", result.Pages[0].Lines[0].Content)
	require.True(t, result.HasParagraphs())
	assert.Equal(t, types.RoleTitle, result.Paragraphs[0].Role)
	assert.Equal(t, types.RolePlain, result.Paragraphs[1].Role)
	require.True(t, result.HasTables())
	assert.Equal(t, 2, result.Tables[0].ColumnCount)
	assert.Equal(t, types.Cell{RowIndex: 1, ColumnIndex: 1, Content: "2"}, result.Tables[0].Cells[3])
}

func TestAnalyze_OperationFailed(t *testing.T) {
	svc := &fakeService{
		polls: []string{`{"status": "failed", "error": {"code": "InvalidContent", "message": "The file is corrupted."}}`},
	}
	c := newTestClient(t, svc, nil)

	_, err := c.Analyze(context.Background(), writeTestPDF(t))
	require.ErrorIs(t, err, ErrAnalysisFailed)
	assert.Contains(t, err.Error(), "InvalidContent")
}

func TestAnalyze_SubmitRejected(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{
			name:     "error envelope",
			status:   http.StatusUnauthorized,
			body:     `{"error": {"code": "401", "message": "Access denied due to invalid subscription key."}}`,
			wantCode: "401",
			wantMsg:  "Access denied due to invalid subscription key.",
		},
		{
			name:    "plain body",
			status:  http.StatusBadRequest,
			body:    "bad request",
			wantMsg: "bad request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{submitStatus: tt.status, submitBody: tt.body, polls: []string{succeededBody}}
			c := newTestClient(t, svc, nil)

			_, err := c.Analyze(context.Background(), writeTestPDF(t))
			var se *ServiceError
			require.True(t, errors.As(err, &se), "want *ServiceError, got %v", err)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.wantCode, se.Code)
			assert.Equal(t, tt.wantMsg, se.Message)
			assert.Equal(t, int32(0), atomic.LoadInt32(&svc.pollCount))
		})
	}
}

func TestAnalyze_PollTimeout(t *testing.T) {
	svc := &fakeService{polls: []string{`{"status": "running"}`}}
	c := newTestClient(t, svc, func(cfg *types.AnalysisConfig) {
		cfg.PollTimeout = 30 * time.Millisecond
	})

	_, err := c.Analyze(context.Background(), writeTestPDF(t))
	assert.ErrorIs(t, err, ErrPollTimeout)
}

func TestAnalyze_ContextCancelled(t *testing.T) {
	svc := &fakeService{polls: []string{`{"status": "running"}`}}
	c := newTestClient(t, svc, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.Analyze(ctx, writeTestPDF(t))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPollTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnalyze_RetriesThrottledSubmit(t *testing.T) {
	svc := &fakeService{polls: []string{succeededBody}}
	var throttled int32
	c := newTestClient(t, svc, nil)

	inner := c.http.Transport
	if inner == nil {
		inner = http.DefaultTransport
	}
	c.http.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.Method == http.MethodPost && atomic.AddInt32(&throttled, 1) == 1 {
			return &http.Response{
				StatusCode: http.StatusTooManyRequests,
				Header:     http.Header{"Retry-After": []string{"0"}},
				Body:       io.NopCloser(strings.NewReader("")),
				Request:    r,
			}, nil
		}
		return inner.RoundTrip(r)
	})

	result, err := c.Analyze(context.Background(), writeTestPDF(t))
	require.NoError(t, err)
	assert.Equal(t, 2, result.PageCount())
	assert.Equal(t, int32(2), atomic.LoadInt32(&throttled))
	assert.Equal(t, "%PDF-1.7 fake", svc.body())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestAnalyze_MissingFile(t *testing.T) {
	c := newTestClient(t, &fakeService{polls: []string{succeededBody}}, nil)
	_, err := c.Analyze(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.AnalysisConfig
		wantErr error
	}{
		{"missing endpoint", types.AnalysisConfig{APIKey: "k"}, ErrMissingCredentials},
		{"missing key", types.AnalysisConfig{Endpoint: "https://x.cognitiveservices.azure.com"}, ErrMissingCredentials},
		{"whitespace key", types.AnalysisConfig{Endpoint: "https://x.cognitiveservices.azure.com", APIKey: "  "}, ErrMissingCredentials},
		{"no scheme", types.AnalysisConfig{Endpoint: "x.cognitiveservices.azure.com", APIKey: "k"}, ErrInvalidEndpoint},
		{"bad scheme", types.AnalysisConfig{Endpoint: "ftp://x.example.com", APIKey: "k"}, ErrInvalidEndpoint},
		{"valid", types.AnalysisConfig{Endpoint: "https://x.cognitiveservices.azure.com/", APIKey: "k"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultModel, c.cfg.Model)
			assert.Equal(t, DefaultPollTimeout, c.cfg.PollTimeout)
			assert.Equal(t,
				"https://x.cognitiveservices.azure.com/formrecognizer/documentModels/prebuilt-layout:analyze?api-version=2023-07-31",
				c.analyzeURL())
		})
	}
}
