package service

import (
	"context"
	"os"
	"strings"
	"time"

	"trafficsafe-backend/repository"
)

// UnknownClientAddress keys requests whose origin cannot be determined
const UnknownClientAddress = "unknown"

// Generator performs one generative call authenticated by apiKey
type Generator interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}

// CredentialSource returns the provider credentials to try, in order
type CredentialSource func() []string

// EnvCredentials reads a comma-separated credential list from the
// environment each time it is called
func EnvCredentials(name string) CredentialSource {
	return func() []string {
		return ParseCredentials(os.Getenv(name))
	}
}

// StaticCredentials always returns the same credentials
func StaticCredentials(creds ...string) CredentialSource {
	return func() []string {
		return creds
	}
}

// ChatProxyService is the server-side boundary to the generative API:
// it rate-limits callers by address and rotates through credentials
type ChatProxyService struct {
	ledger      *repository.RateLimitLedger
	generator   Generator
	credentials CredentialSource
	now         func() time.Time
}

// ChatProxyServiceOption is a functional option for ChatProxyService
type ChatProxyServiceOption func(*ChatProxyService)

// ProxyWithLedger sets the rate-limit ledger
func ProxyWithLedger(ledger *repository.RateLimitLedger) ChatProxyServiceOption {
	return func(s *ChatProxyService) {
		s.ledger = ledger
	}
}

// ProxyWithGenerator sets the generator used for each credential attempt
func ProxyWithGenerator(g Generator) ChatProxyServiceOption {
	return func(s *ChatProxyService) {
		s.generator = g
	}
}

// ProxyWithCredentials sets where credentials are read from
func ProxyWithCredentials(src CredentialSource) ChatProxyServiceOption {
	return func(s *ChatProxyService) {
		s.credentials = src
	}
}

// ProxyWithClock overrides the clock used for rate limiting
func ProxyWithClock(now func() time.Time) ChatProxyServiceOption {
	return func(s *ChatProxyService) {
		s.now = now
	}
}

// NewChatProxyService creates a proxy service. Without a ledger the
// standard 10 requests per 60 seconds limit is used.
func NewChatProxyService(opts ...ChatProxyServiceOption) *ChatProxyService {
	s := &ChatProxyService{
		credentials: EnvCredentials("GEMINI_API_KEY"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ledger == nil {
		s.ledger = repository.NewRateLimitLedger(10, time.Minute, 0)
	}
	if s.generator == nil {
		s.generator = NewGeminiGenerator(DefaultModel)
	}
	return s
}

// Admit applies the sliding-window limit for address and records the
// request when it is allowed
func (s *ChatProxyService) Admit(address string) error {
	if address == "" {
		address = UnknownClientAddress
	}
	if !s.ledger.CheckAndRecord(address, s.now()) {
		return ErrRateLimited
	}
	return nil
}

// Generate runs prompt against each configured credential until one succeeds
func (s *ChatProxyService) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	return TryInOrder(ctx, s.credentials(), func(ctx context.Context, key string) (string, error) {
		return s.generator.Generate(ctx, key, prompt)
	})
}

// Complete admits the caller and generates an answer for prompt
func (s *ChatProxyService) Complete(ctx context.Context, address, prompt string) (string, error) {
	if err := s.Admit(address); err != nil {
		return "", err
	}
	return s.Generate(ctx, prompt)
}

// PruneLedger drops rate-limit entries with no recent activity
func (s *ChatProxyService) PruneLedger() int {
	return s.ledger.Prune(s.now())
}

type clientAddressKey struct{}

// WithClientAddress stores the caller's network address in ctx
func WithClientAddress(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, clientAddressKey{}, address)
}

// ClientAddress returns the caller's network address stored in ctx
func ClientAddress(ctx context.Context) string {
	if v, ok := ctx.Value(clientAddressKey{}).(string); ok && v != "" {
		return v
	}
	return UnknownClientAddress
}

// LocalProxy reaches the proxy service in-process, keyed by the client
// address carried in the context
type LocalProxy struct {
	svc *ChatProxyService
}

// NewLocalProxy wraps svc as a ProxyCaller
func NewLocalProxy(svc *ChatProxyService) *LocalProxy {
	return &LocalProxy{svc: svc}
}

// Complete implements ProxyCaller
func (p *LocalProxy) Complete(ctx context.Context, prompt string) (string, error) {
	return p.svc.Complete(ctx, ClientAddress(ctx), prompt)
}
