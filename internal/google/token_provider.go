package google

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// TokenProvider is an interface for providing OAuth tokens for Google APIs
// This abstraction allows different token sources (file-based, environment, etc.)
type TokenProvider interface {
	// GetTokenForAccount retrieves an OAuth token for the specified account
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)

	// HasTokenForAccount checks if a token exists for the specified account
	HasTokenForAccount(account string) bool
}

// FileTokenProvider provides tokens from the per-account token files
type FileTokenProvider struct {
	now func() time.Time
}

// NewFileTokenProvider creates a new file-based token provider
func NewFileTokenProvider() *FileTokenProvider {
	return &FileTokenProvider{now: time.Now}
}

// GetTokenForAccount loads the account's token. Tokens past their expiry are
// reported as missing since they cannot be refreshed here.
func (p *FileTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token, err := LoadTokenForAccount(account)
	if err != nil {
		return nil, err
	}

	if !token.Expiry.IsZero() && !token.Expiry.After(p.now()) {
		return nil, fmt.Errorf("%w for account %s: token expired at %s", ErrNoToken, account, token.Expiry.Format(time.RFC3339))
	}

	return token, nil
}

// HasTokenForAccount checks if a token file exists for the specified account
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	return HasTokenForAccount(account)
}

// StaticTokenProvider hands out one fixed access token for every account.
type StaticTokenProvider struct {
	token *oauth2.Token
}

// NewStaticTokenProvider wraps accessToken, typically taken from the environment.
func NewStaticTokenProvider(accessToken string) *StaticTokenProvider {
	return &StaticTokenProvider{token: &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}}
}

// GetTokenForAccount returns a copy of the static token.
func (p *StaticTokenProvider) GetTokenForAccount(_ context.Context, account string) (*oauth2.Token, error) {
	if p.token.AccessToken == "" {
		return nil, fmt.Errorf("%w for account %s", ErrNoToken, account)
	}
	token := *p.token
	return &token, nil
}

// HasTokenForAccount reports whether the static token is set.
func (p *StaticTokenProvider) HasTokenForAccount(string) bool {
	return p.token.AccessToken != ""
}

// TokenSource adapts provider to an oauth2.TokenSource for account. The
// token is fetched once and reused until it expires.
func TokenSource(ctx context.Context, provider TokenProvider, account string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &providerTokenSource{ctx: ctx, provider: provider, account: account})
}

type providerTokenSource struct {
	ctx      context.Context
	provider TokenProvider
	account  string
}

func (s *providerTokenSource) Token() (*oauth2.Token, error) {
	return s.provider.GetTokenForAccount(s.ctx, s.account)
}
