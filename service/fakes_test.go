package service

import (
	"context"
	"sync"

	"trafficsafe-backend/models"
)

// fakeProxy implements ProxyCaller for testing.
// When release is set, calls signal entered and block until release is
// closed.
type fakeProxy struct {
	mu        sync.Mutex
	text      string
	err       error
	calls     int
	prompts   []string
	addresses []string
	ctxErrs   []error
	entered   chan struct{}
	release   chan struct{}
}

func (f *fakeProxy) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.addresses = append(f.addresses, ClientAddress(ctx))
	f.mu.Unlock()

	if f.release != nil {
		if f.entered != nil {
			f.entered <- struct{}{}
		}
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeProxy) seenAddresses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.addresses...)
}

func (f *fakeProxy) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeAnswerer implements Answerer for testing.
type fakeAnswerer struct {
	answer  string
	queries []string
	history [][]models.ChatMessage
}

func (f *fakeAnswerer) Ask(_ context.Context, query string, history []models.ChatMessage) string {
	f.queries = append(f.queries, query)
	f.history = append(f.history, history)
	return f.answer
}

// fakeGenerator implements Generator for testing. Keys listed in failing
// return their error; any other key succeeds with "answer from <key>".
type fakeGenerator struct {
	mu      sync.Mutex
	failing map[string]error
	keys    []string
}

func (g *fakeGenerator) Generate(_ context.Context, apiKey, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keys = append(g.keys, apiKey)
	if err, ok := g.failing[apiKey]; ok {
		return "", err
	}
	return "answer from " + apiKey, nil
}

func (g *fakeGenerator) attempted() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}
