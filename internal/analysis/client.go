// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis is a client for the Azure AI Document Intelligence REST
// API. It submits a PDF to a layout model and polls the resulting operation
// until the structured result is ready.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pdiddy/pdf-notes/internal/httputil"
	"github.com/pdiddy/pdf-notes/pkg/types"
)

const (
	DefaultModel        = "prebuilt-layout"
	DefaultAPIVersion   = "2023-07-31"
	DefaultPollInterval = 1 * time.Second
	DefaultPollTimeout  = 5 * time.Minute
	DefaultTimeout      = 60 * time.Second
	DefaultUserAgent    = "pdf-notes/0.1"

	headerKey       = "Ocp-Apim-Subscription-Key"
	headerOperation = "Operation-Location"
)

var (
	// ErrMissingCredentials means the endpoint or API key is not configured.
	ErrMissingCredentials = errors.New("analysis: endpoint and API key are required")

	// ErrInvalidEndpoint means the endpoint is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("analysis: endpoint must be an absolute http(s) URL")

	// ErrAnalysisFailed means the service accepted the document but the
	// operation finished in the failed state.
	ErrAnalysisFailed = errors.New("analysis: operation failed")

	// ErrPollTimeout means the operation did not finish within PollTimeout.
	ErrPollTimeout = errors.New("analysis: timed out waiting for result")
)

// ServiceError is a non-success HTTP response from the service.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServiceError) Error() string {
	switch {
	case e.Code == "" && e.Message == "":
		return fmt.Sprintf("analysis service returned HTTP %d", e.StatusCode)
	case e.Code == "":
		return fmt.Sprintf("analysis service returned HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("analysis service returned HTTP %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// Client calls the document-analysis service. It is safe for sequential use.
type Client struct {
	cfg  types.AnalysisConfig
	http *http.Client
	log  *slog.Logger
}

// New validates cfg, applies defaults, and returns a client. A nil logger
// discards log output.
func New(cfg types.AnalysisConfig, log *slog.Logger) (*Client, error) {
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, ErrMissingCredentials
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, cfg.Endpoint)
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.With("component", "analysis"),
	}, nil
}

// Analyze reads the PDF at pdfPath, submits it, and blocks until the
// service returns the layout result, the operation fails, PollTimeout
// elapses, or ctx is cancelled.
func (c *Client) Analyze(ctx context.Context, pdfPath string) (*types.AnalysisResult, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("reading PDF %s: %w", pdfPath, err)
	}

	opURL, err := c.submit(ctx, data)
	if err != nil {
		return nil, err
	}
	c.log.Debug("document submitted", "file", pdfPath, "bytes", len(data))

	return c.poll(ctx, opURL)
}

// analyzeURL builds the submit URL for the configured model and version.
func (c *Client) analyzeURL() string {
	q := url.Values{}
	q.Set("api-version", c.cfg.APIVersion)
	return fmt.Sprintf("%s/formrecognizer/documentModels/%s:analyze?%s",
		c.cfg.Endpoint, url.PathEscape(c.cfg.Model), q.Encode())
}

// submit posts the document and returns the operation URL to poll.
func (c *Client) submit(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.analyzeURL(), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("building analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries, c.log)
	if err != nil {
		return "", fmt.Errorf("submitting document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return "", readServiceError(resp)
	}
	io.Copy(io.Discard, resp.Body)

	opURL := resp.Header.Get(headerOperation)
	if opURL == "" {
		return "", fmt.Errorf("analysis service response missing %s header", headerOperation)
	}
	return opURL, nil
}

// operation is the body of an analyze-operation status response.
type operation struct {
	Status        string                `json:"status"`
	Error         *serviceErrorBody     `json:"error,omitempty"`
	AnalyzeResult *types.AnalysisResult `json:"analyzeResult,omitempty"`
}

type serviceErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// poll fetches the operation status every PollInterval until it settles.
func (c *Client) poll(ctx context.Context, opURL string) (*types.AnalysisResult, error) {
	pollCtx, cancel := context.WithTimeout(ctx, c.cfg.PollTimeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w after %v", ErrPollTimeout, c.cfg.PollTimeout)
		case <-time.After(c.cfg.PollInterval):
		}

		op, err := c.getOperation(pollCtx, opURL)
		if err != nil {
			if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %v", ErrPollTimeout, c.cfg.PollTimeout)
			}
			return nil, err
		}

		switch strings.ToLower(op.Status) {
		case "succeeded":
			if op.AnalyzeResult == nil {
				return nil, fmt.Errorf("analysis succeeded without a result")
			}
			return op.AnalyzeResult, nil
		case "failed", "canceled":
			if op.Error != nil {
				return nil, fmt.Errorf("%w: %s: %s", ErrAnalysisFailed, op.Error.Code, op.Error.Message)
			}
			return nil, fmt.Errorf("%w: status %s", ErrAnalysisFailed, op.Status)
		default:
			c.log.Debug("operation pending", "status", op.Status, "attempt", attempt)
		}
	}
}

func (c *Client) getOperation(ctx context.Context, opURL string) (*operation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building poll request: %w", err)
	}
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries, c.log)
	if err != nil {
		return nil, fmt.Errorf("polling operation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readServiceError(resp)
	}

	var op operation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("decoding operation status: %w", err)
	}
	return &op, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set(headerKey, c.cfg.APIKey)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
}

// readServiceError converts a non-success response into a *ServiceError,
// using the service's error envelope when the body carries one.
func readServiceError(resp *http.Response) error {
	se := &ServiceError{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var envelope struct {
		Error serviceErrorBody `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Code != "" {
		se.Code = envelope.Error.Code
		se.Message = envelope.Error.Message
	} else if msg := strings.TrimSpace(string(body)); msg != "" {
		se.Message = msg
	}
	return se
}
