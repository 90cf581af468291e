package tasks

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/teemow/todosync/internal/gtasks"
	"github.com/teemow/todosync/internal/logging"
)

// do issues req and waits for it. With retries enabled, transport failures
// that may succeed on a later attempt are retried with exponential backoff.
func (c *Client) do(ctx context.Context, req gtasks.Request) ([]byte, error) {
	if c.retry <= 0 {
		return c.svc.CallFunctionFinish(c.svc.Call(ctx, req))
	}

	operation := func() ([]byte, error) {
		body, err := c.svc.CallFunctionFinish(c.svc.Call(ctx, req))
		if err != nil && !retryable(req.Method, err) {
			return nil, backoff.Permanent(err)
		}
		return body, err
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 100 * time.Millisecond
	expBackoff.MaxInterval = 5 * time.Second
	expBackoff.Reset()

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxElapsedTime(c.retry),
		backoff.WithNotify(c.logAttempt(req)),
	)
}

// retryable reports whether err may succeed on a later attempt. A 429 is
// always retried since the service rejected the request unprocessed. Network
// failures and 5xx are retried only for idempotent methods: a POST may have
// been committed before the failure and would be applied twice.
// Permission and cancellation failures never are.
func retryable(method string, err error) bool {
	var callErr *gtasks.Error
	if !errors.As(err, &callErr) || callErr.Kind != gtasks.KindTransport {
		return false
	}
	if callErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if !idempotent(method) {
		return false
	}
	return callErr.StatusCode == 0 || callErr.StatusCode >= http.StatusInternalServerError
}

// idempotent includes PATCH: every patch sent by Client sets absolute values.
func idempotent(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return true
	default:
		return false
	}
}

// logAttempt is the backoff notify hook.
func (c *Client) logAttempt(req gtasks.Request) func(error, time.Duration) {
	return func(err error, wait time.Duration) {
		c.logger.Warn("tasks call failed, will retry",
			logging.Method(req.Method),
			logging.Function(req.Function),
			logging.Duration(wait),
			logging.Err(err),
		)
	}
}
