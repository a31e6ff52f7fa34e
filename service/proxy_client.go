package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ProxyCaller sends an assembled prompt to the chat proxy
type ProxyCaller interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChatRequest is the body accepted by the chat proxy endpoint
type ChatRequest struct {
	Prompt string `json:"prompt"`
}

// ChatResponse is the body returned by the chat proxy endpoint
type ChatResponse struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// ProxyHTTPClient calls a remote chat proxy endpoint
type ProxyHTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewProxyHTTPClient creates a client for the proxy at endpoint
func NewProxyHTTPClient(endpoint string, timeout time.Duration) *ProxyHTTPClient {
	return &ProxyHTTPClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Complete posts prompt to the proxy. Non-200 answers come back as *ProxyError.
func (c *ProxyHTTPClient) Complete(ctx context.Context, prompt string) (string, error) {
	jsonData, err := json.Marshal(ChatRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp ChatResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", &ProxyError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
		}
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := apiResp.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", &ProxyError{StatusCode: resp.StatusCode, Message: msg}
	}
	return apiResp.Text, nil
}
