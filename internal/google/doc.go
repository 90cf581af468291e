// Package google stores and provides already-issued Google OAuth2 tokens.
//
// Tokens are kept per account as JSON files in the user's cache directory
// (for example ~/.cache/todosync/google-work.token). The package never runs
// an authorization flow and never refreshes a token: it only hands out what
// was saved, and reports an expired token as missing.
//
// The TokenProvider interface lets callers swap the file store for a token
// taken from the environment (StaticTokenProvider) or any other source.
package google
