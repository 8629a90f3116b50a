package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"encoding/json"
)

// Config configures the remote analysis client.
type Config struct {
	// Endpoint is the service base URL, e.g. https://host. Empty disables
	// remote analysis entirely.
	Endpoint string `yaml:"endpoint"`
	// APIKey authenticates requests.
	APIKey string `yaml:"api_key"`
	// Model is the analysis model identifier (default: prebuilt-layout).
	Model string `yaml:"model"`
	// APIVersion pins the service API version (default: 2024-11-30).
	APIVersion string `yaml:"api_version"`
	// PollInterval between operation-status checks (default: 2s).
	PollInterval time.Duration `yaml:"poll_interval"`
	// MaxPolls bounds the polling loop (default: 150, i.e. 5 minutes at the
	// default interval).
	MaxPolls int `yaml:"max_polls"`
	// HTTPTimeout applies per request, not to the whole operation (default: 60s).
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = "prebuilt-layout"
	}
	if c.APIVersion == "" {
		c.APIVersion = "2024-11-30"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.MaxPolls <= 0 {
		c.MaxPolls = 150
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client talks to the remote document-analysis service.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a Client. Returns nil if no endpoint is configured, which
// callers treat as "remote analysis unavailable".
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		return nil
	}
	cfg.defaults()
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.HTTPTimeout},
		logger: cfg.Logger,
	}
}

// RequestError records one rejected submission attempt.
type RequestError struct {
	Strategy string
	Status   int
	Body     string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("analysis request rejected (strategy %s, status %d): %s",
		e.Strategy, e.Status, truncate(e.Body, 300))
}

// OperationError records a submission that was accepted but reached the
// "failed" terminal state.
type OperationError struct {
	Strategy string
	Code     string
	Message  string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("analysis operation failed (strategy %s): %s: %s",
		e.Strategy, e.Code, e.Message)
}

// analyzeURL builds the model-scoped analyze endpoint.
func (c *Client) analyzeURL() string {
	return fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?%s",
		c.cfg.Endpoint, c.cfg.Model, url.Values{
			"api-version":         {c.cfg.APIVersion},
			"outputContentFormat": {"markdown"},
			"output":              {"figures"},
		}.Encode())
}

// Submit posts the document under one strategy and returns the operation URL
// from the Operation-Location header on 202. Any other status is a
// *RequestError.
func (c *Client) Submit(ctx context.Context, data []byte, filename string, s Strategy) (string, error) {
	var body io.Reader
	contentType := s.ContentType

	if s.Multipart {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			return "", fmt.Errorf("multipart form: %w", err)
		}
		if _, err := fw.Write(data); err != nil {
			return "", fmt.Errorf("multipart write: %w", err)
		}
		if err := w.Close(); err != nil {
			return "", fmt.Errorf("multipart close: %w", err)
		}
		body = &buf
		contentType = w.FormDataContentType()
	} else {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.analyzeURL(), body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit (strategy %s): %w", s.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &RequestError{Strategy: s.Name, Status: resp.StatusCode, Body: string(respBody)}
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", fmt.Errorf("submit accepted but no Operation-Location header (strategy %s)", s.Name)
	}
	return opURL, nil
}

// Poll drives the operation to a terminal state. The loop is bounded by
// MaxPolls and by ctx; every non-terminal status keeps polling.
func (c *Client) Poll(ctx context.Context, opURL, strategy string) (*Result, error) {
	for attempt := 0; attempt < c.cfg.MaxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("analysis polling canceled: %w", ctx.Err())
		case <-time.After(c.cfg.PollInterval):
		}

		status, err := c.fetchStatus(ctx, opURL)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case "succeeded":
			if status.AnalyzeResult == nil {
				return nil, fmt.Errorf("operation succeeded but carried no result")
			}
			return status.AnalyzeResult.normalize(), nil
		case "failed":
			oe := &OperationError{Strategy: strategy}
			if status.Error != nil {
				oe.Code = status.Error.Code
				oe.Message = status.Error.Message
			}
			return nil, oe
		default:
			// running, notStarted: keep polling.
			c.logger.Debug("analysis operation pending", "status", status.Status, "attempt", attempt+1)
		}
	}
	return nil, fmt.Errorf("analysis operation still pending after %d polls", c.cfg.MaxPolls)
}

func (c *Client) fetchStatus(ctx context.Context, opURL string) (*operationStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create poll request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("poll status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var status operationStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode operation status: %w", err)
	}
	return &status, nil
}
