package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"trafficsafe-backend/models"
	"trafficsafe-backend/repository"

	"golang.org/x/sync/singleflight"
)

const (
	// MsgSlowDown is shown when the proxy rejected the call for rate limiting
	MsgSlowDown = "⛔ Bạn đang gửi tin nhắn quá nhanh. Vui lòng đợi một chút trước khi thử lại."
	// MsgApology is shown for any other remote failure
	MsgApology = "Xin lỗi, hệ thống đang bận hoặc gặp sự cố kết nối. Vui lòng thử lại sau."
)

// AnswerClient answers free-text questions through the chat proxy, grounding
// legal questions on the corpus and caching answers by lowercased query
type AnswerClient struct {
	corpus atomic.Pointer[LegalCorpusIndex]
	proxy  ProxyCaller
	cache  *repository.QueryCache
	group  singleflight.Group
}

// NewAnswerClient creates an answer client
func NewAnswerClient(corpus *LegalCorpusIndex, proxy ProxyCaller, cache *repository.QueryCache) *AnswerClient {
	if cache == nil {
		cache = repository.NewQueryCache(0)
	}
	c := &AnswerClient{
		proxy: proxy,
		cache: cache,
	}
	c.corpus.Store(corpus)
	return c
}

// SetCorpus swaps the corpus used for grounding and drops cached answers
// that were produced against the previous one
func (c *AnswerClient) SetCorpus(corpus *LegalCorpusIndex) {
	c.corpus.Store(corpus)
	c.cache.Clear()
}

// Ask returns a displayable answer for query. It never fails: remote errors
// are turned into a user-facing message. history holds the latest turns of
// the conversation and may be nil.
func (c *AnswerClient) Ask(ctx context.Context, query string, history []models.ChatMessage) string {
	text, err := c.answer(ctx, query, history)
	if err == nil {
		return text
	}

	log.Printf("Error: remote answer failed: %v", err)
	if errors.Is(err, ErrRateLimited) || strings.Contains(err.Error(), ErrRateLimited.Error()) {
		return MsgSlowDown
	}
	return MsgApology
}

func (c *AnswerClient) answer(ctx context.Context, query string, history []models.ChatMessage) (string, error) {
	key := strings.ToLower(normalizeText(query))
	if cached, ok := c.cache.Get(key); ok && cached != "" {
		return cached, nil
	}

	// Flights are per client address so every caller is charged by the rate
	// limiter. The call runs detached and each caller waits on its own ctx.
	flight := ClientAddress(ctx) + "\x00" + key
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flight, func() (interface{}, error) {
		legal := c.corpus.Load().Query(query)
		prompt, _ := BuildPrompt(query, legal, history)

		text, err := c.proxy.Complete(shared, prompt)
		if err != nil {
			return "", err
		}
		if text == "" {
			return "", ErrEmptyResponse
		}
		c.cache.Put(key, text)
		return text, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return "", res.Err
	}
	return res.Val.(string), nil
}
