package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"trafficsafe-backend/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryInOrder_FirstSuccessShortCircuits(t *testing.T) {
	var attempted []string
	attempt := func(_ context.Context, key string) (string, error) {
		attempted = append(attempted, key)
		if key == "A" {
			return "", errors.New("quota exceeded")
		}
		return "from " + key, nil
	}

	text, err := TryInOrder(context.Background(), []string{"A", "B", "C"}, attempt)

	require.NoError(t, err)
	assert.Equal(t, "from B", text)
	assert.Equal(t, []string{"A", "B"}, attempted)
}

func TestTryInOrder_NoCredentials(t *testing.T) {
	calls := 0
	_, err := TryInOrder(context.Background(), nil, func(context.Context, string) (string, error) {
		calls++
		return "", nil
	})

	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Equal(t, 0, calls)
}

func TestTryInOrder_AllFailReturnsLastError(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	_, err := TryInOrder(context.Background(), []string{"A", "B"}, func(_ context.Context, key string) (string, error) {
		if key == "A" {
			return "", errA
		}
		return "", errB
	})

	assert.ErrorIs(t, err, errB)
}

func TestTryInOrder_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := TryInOrder(ctx, []string{"A"}, func(context.Context, string) (string, error) {
		calls++
		return "x", nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestParseCredentials(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseCredentials(" a, , b ,,"))
	assert.Empty(t, ParseCredentials(""))
	assert.Empty(t, ParseCredentials(" , "))
}

func TestFingerprint_DoesNotLeakKey(t *testing.T) {
	fp := Fingerprint("AIzaSySecretValue1234")

	assert.NotContains(t, fp, "Secret")
	assert.Equal(t, fp, Fingerprint("AIzaSySecretValue1234"))
	assert.NotEqual(t, fp, Fingerprint("AIzaSyOtherValue"))
}

func TestChatProxyService_RotatesCredentials(t *testing.T) {
	gen := &fakeGenerator{failing: map[string]error{"A": errors.New("invalid key")}}
	svc := NewChatProxyService(
		ProxyWithGenerator(gen),
		ProxyWithCredentials(StaticCredentials("A", "B")),
	)

	text, err := svc.Complete(context.Background(), "1.2.3.4", "xin chào")

	require.NoError(t, err)
	assert.Equal(t, "answer from B", text)
	assert.Equal(t, []string{"A", "B"}, gen.attempted())
}

func TestChatProxyService_EmptyCredentialsMakesNoCall(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewChatProxyService(
		ProxyWithGenerator(gen),
		ProxyWithCredentials(StaticCredentials()),
	)

	_, err := svc.Complete(context.Background(), "1.2.3.4", "xin chào")

	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Empty(t, gen.attempted())
}

func TestChatProxyService_EnvCredentialsReadPerRequest(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewChatProxyService(
		ProxyWithGenerator(gen),
		ProxyWithCredentials(EnvCredentials("TEST_PROXY_KEYS")),
	)

	t.Setenv("TEST_PROXY_KEYS", "")
	_, err := svc.Generate(context.Background(), "xin chào")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	t.Setenv("TEST_PROXY_KEYS", " K1 ,K2")
	text, err := svc.Generate(context.Background(), "xin chào")
	require.NoError(t, err)
	assert.Equal(t, "answer from K1", text)
}

func TestChatProxyService_RateLimitWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	gen := &fakeGenerator{}
	svc := NewChatProxyService(
		ProxyWithGenerator(gen),
		ProxyWithCredentials(StaticCredentials("K")),
		ProxyWithLedger(repository.NewRateLimitLedger(10, time.Minute, 0)),
		ProxyWithClock(func() time.Time { return now }),
	)

	for i := 0; i < 10; i++ {
		_, err := svc.Complete(context.Background(), "9.9.9.9", "q")
		require.NoError(t, err, "request %d", i+1)
	}

	_, err := svc.Complete(context.Background(), "9.9.9.9", "q")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Len(t, gen.attempted(), 10, "rejected request must not reach the generator")

	_, err = svc.Complete(context.Background(), "8.8.8.8", "q")
	assert.NoError(t, err)

	now = now.Add(61 * time.Second)
	_, err = svc.Complete(context.Background(), "9.9.9.9", "q")
	assert.NoError(t, err)
}

func TestChatProxyService_EmptyPrompt(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewChatProxyService(ProxyWithGenerator(gen), ProxyWithCredentials(StaticCredentials("K")))

	_, err := svc.Generate(context.Background(), "  ")

	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Empty(t, gen.attempted())
}

func TestLocalProxy_UsesAddressFromContext(t *testing.T) {
	svc := NewChatProxyService(
		ProxyWithGenerator(&fakeGenerator{}),
		ProxyWithCredentials(StaticCredentials("K")),
		ProxyWithLedger(repository.NewRateLimitLedger(1, time.Minute, 0)),
	)
	local := NewLocalProxy(svc)

	ctxA := WithClientAddress(context.Background(), "10.0.0.1")
	ctxB := WithClientAddress(context.Background(), "10.0.0.2")

	_, err := local.Complete(ctxA, "q")
	require.NoError(t, err)
	_, err = local.Complete(ctxA, "q")
	assert.ErrorIs(t, err, ErrRateLimited)
	_, err = local.Complete(ctxB, "q")
	assert.NoError(t, err)
}

func TestClientAddress_DefaultsToUnknown(t *testing.T) {
	assert.Equal(t, UnknownClientAddress, ClientAddress(context.Background()))
	assert.Equal(t, UnknownClientAddress, ClientAddress(WithClientAddress(context.Background(), "")))
}
