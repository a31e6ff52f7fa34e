package service

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingCredentials   = errors.New("Server config: Missing GEMINI_API_KEY")
	ErrAllCredentialsFailed = errors.New("All API keys failed")
	ErrRateLimited          = errors.New("Too many requests")
	ErrEmptyPrompt          = errors.New("prompt is required")
	ErrEmptyResponse        = errors.New("API returned empty content")
)

// ProxyError is a non-200 answer of the chat proxy endpoint
type ProxyError struct {
	StatusCode int
	Message    string
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("proxy error: %d - %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrRateLimited) match a 429 from the proxy
func (e *ProxyError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}
