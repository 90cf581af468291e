package google

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestFileTokenProvider(t *testing.T) {
	useTempCache(t)

	provider := NewFileTokenProvider()
	assert.False(t, provider.HasTokenForAccount("work"))

	_, err := provider.GetTokenForAccount(context.Background(), "work")
	assert.True(t, errors.Is(err, ErrNoToken))

	require.NoError(t, SaveTokenForAccount("work", &oauth2.Token{AccessToken: "abc"}))
	assert.True(t, provider.HasTokenForAccount("work"))

	token, err := provider.GetTokenForAccount(context.Background(), "work")
	require.NoError(t, err)
	assert.Equal(t, "abc", token.AccessToken)
}

func TestFileTokenProvider_Expired(t *testing.T) {
	useTempCache(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	provider := &FileTokenProvider{now: func() time.Time { return now }}

	require.NoError(t, SaveTokenForAccount("work", &oauth2.Token{AccessToken: "old", Expiry: now.Add(-time.Minute)}))
	_, err := provider.GetTokenForAccount(context.Background(), "work")
	assert.True(t, errors.Is(err, ErrNoToken))

	require.NoError(t, SaveTokenForAccount("work", &oauth2.Token{AccessToken: "fresh", Expiry: now.Add(time.Hour)}))
	token, err := provider.GetTokenForAccount(context.Background(), "work")
	require.NoError(t, err)
	assert.Equal(t, "fresh", token.AccessToken)
}

func TestFileTokenProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileTokenProvider().GetTokenForAccount(ctx, "work")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticTokenProvider(t *testing.T) {
	provider := NewStaticTokenProvider("env-token")
	assert.True(t, provider.HasTokenForAccount("anything"))

	token, err := provider.GetTokenForAccount(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "env-token", token.AccessToken)

	token.AccessToken = "mutated"
	again, err := provider.GetTokenForAccount(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "env-token", again.AccessToken)

	empty := NewStaticTokenProvider("")
	assert.False(t, empty.HasTokenForAccount("x"))
	_, err = empty.GetTokenForAccount(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrNoToken))
}

type countingProvider struct {
	calls atomic.Int32
}

func (p *countingProvider) GetTokenForAccount(context.Context, string) (*oauth2.Token, error) {
	p.calls.Add(1)
	return &oauth2.Token{AccessToken: "counted", Expiry: time.Now().Add(time.Hour)}, nil
}

func (p *countingProvider) HasTokenForAccount(string) bool { return true }

func TestTokenSource_Reuses(t *testing.T) {
	provider := &countingProvider{}
	ts := TokenSource(context.Background(), provider, "work")

	for i := 0; i < 3; i++ {
		token, err := ts.Token()
		require.NoError(t, err)
		assert.Equal(t, "counted", token.AccessToken)
	}
	assert.Equal(t, int32(1), provider.calls.Load())
}
