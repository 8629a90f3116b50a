// Package vision captions images through an OpenAI-compatible chat
// completions endpoint. The model is treated as a black box: any failure
// maps to an error the caller converts into an empty caption.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	systemPrompt = "You are an AI assistant that describes images concisely and accurately. " +
		"Focus on the key visual elements, text content, charts, diagrams, and any data shown."
	userPrompt = "Please describe this image in detail. What do you see?"

	maxCaptionTokens  = 300
	captionTemperature = 0.1
)

// Config configures the captioning client.
type Config struct {
	// Endpoint is the full chat-completions URL. Empty disables captioning.
	Endpoint string `yaml:"endpoint"`
	// APIKey authenticates requests.
	APIKey string `yaml:"api_key"`
	// Model to request (default: gpt-4o).
	Model string `yaml:"model"`
	// Timeout per request (default: 120s).
	Timeout time.Duration `yaml:"timeout"`
}

func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = "gpt-4o"
	}
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
}

// Client calls the vision-capable model.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Client, or nil when no endpoint is configured.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		return nil
	}
	cfg.defaults()
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// Caption describes one image. imageData must be an encoded raster image;
// contentType its MIME type (image/png after normalization).
func (c *Client) Caption(ctx context.Context, imageData []byte, contentType string) (string, error) {
	dataURI := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(imageData))

	reqBody := map[string]interface{}{
		"model":       c.cfg.Model,
		"max_tokens":  maxCaptionTokens,
		"temperature": captionTemperature,
		"messages": []map[string]interface{}{
			{"role": "system", "content": systemPrompt},
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": userPrompt},
					{"type": "image_url", "image_url": map[string]interface{}{"url": dataURI}},
				},
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal caption request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create caption request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call vision model: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read caption response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision model error (status %d): %s", resp.StatusCode, respBody)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal caption response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("vision response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
