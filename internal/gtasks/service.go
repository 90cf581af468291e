package gtasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/teemow/todosync/internal/instrumentation"
	"github.com/teemow/todosync/internal/logging"
)

// BaseURL is the Google Tasks REST endpoint every function path is appended to.
const BaseURL = "https://www.googleapis.com/tasks/v1/"

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials identify the OAuth client. They never change after New.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Service dispatches authorized calls against the Tasks API.
type Service struct {
	creds Credentials

	// token is replaced, never mutated, so in-flight calls keep the value
	// they were issued with.
	token atomic.Pointer[string]

	baseURL     string
	client      Doer
	tokenSource oauth2.TokenSource
	policy      SuccessPolicy
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithHTTPClient sets the transport used to send requests.
func WithHTTPClient(client Doer) Option {
	return func(s *Service) {
		if client != nil {
			s.client = client
		}
	}
}

// WithBaseURL replaces BaseURL.
func WithBaseURL(base string) Option {
	return func(s *Service) {
		if base == "" {
			return
		}
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		s.baseURL = base
	}
}

// WithTokenSource makes every call take its Authorization header from ts
// instead of the token set with SetAccessToken. ts is asked on the dispatch
// goroutine, so a slow Token never blocks the caller; its errors become the
// call's outcome.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(s *Service) {
		s.tokenSource = ts
	}
}

// WithSuccessPolicy sets which status codes count as success. Default Any2xx.
func WithSuccessPolicy(policy SuccessPolicy) Option {
	return func(s *Service) {
		if policy != nil {
			s.policy = policy
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the recorder for call metrics.
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// New creates a Service for the given OAuth client. The access token starts empty.
func New(clientID, clientSecret string, opts ...Option) *Service {
	s := &Service{
		creds:   Credentials{ClientID: clientID, ClientSecret: clientSecret},
		baseURL: BaseURL,
		client:  &http.Client{},
		policy:  Any2xx,
		logger:  slog.Default(),
	}
	empty := ""
	s.token.Store(&empty)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Credentials returns the client credentials.
func (s *Service) Credentials() Credentials {
	return s.creds
}

// ClientID returns the OAuth client identifier.
func (s *Service) ClientID() string {
	return s.creds.ClientID
}

// ClientSecret returns the OAuth client secret.
func (s *Service) ClientSecret() string {
	return s.creds.ClientSecret
}

// SetAccessToken replaces the bearer token used by calls issued from now on.
func (s *Service) SetAccessToken(token string) {
	s.token.Store(&token)
}

// AccessToken returns the current bearer token.
func (s *Service) AccessToken() string {
	return *s.token.Load()
}

// BaseURL returns the endpoint function paths are resolved against.
func (s *Service) BaseURL() string {
	return s.baseURL
}

// CallFunction issues a call whose body is content. A non-empty content is
// sent as application/json.
func (s *Service) CallFunction(ctx context.Context, method, function, content string) *Call {
	return s.issue(ctx, Request{Method: method, Function: function, Content: content}, nil)
}

// CallFunctionWithParams issues a call with params encoded into the query
// string, in order.
func (s *Service) CallFunctionWithParams(ctx context.Context, method, function string, params []Parameter) *Call {
	return s.issue(ctx, Request{Method: method, Function: function, Params: params}, nil)
}

// CallFunctionAsync issues a content call and invokes cb once it completes.
func (s *Service) CallFunctionAsync(ctx context.Context, method, function, content string, cb Callback) *Call {
	return s.issue(ctx, Request{Method: method, Function: function, Content: content}, cb)
}

// Call issues req and returns immediately. Cancelling ctx before the
// response has been read resolves the call as cancelled.
func (s *Service) Call(ctx context.Context, req Request) *Call {
	return s.issue(ctx, req, nil)
}

// CallFunctionFinish waits for call and returns its outcome: the response
// body on success, an *Error otherwise. The body belongs to the caller.
//
// It panics when the outcome was already extracted or when call was issued
// by a different Service.
func (s *Service) CallFunctionFinish(call *Call) ([]byte, error) {
	if call == nil || call.service != s {
		panic("gtasks: CallFunctionFinish called with a call issued by another service")
	}
	if !call.extracted.CompareAndSwap(false, true) {
		panic("gtasks: CallFunctionFinish called twice for call " + call.id)
	}

	<-call.done
	return call.body, call.err
}

func (s *Service) issue(ctx context.Context, req Request, cb Callback) *Call {
	if ctx == nil {
		ctx = context.Background()
	}

	call := newCall(s, req, cb)

	// The header value is fixed here; later SetAccessToken calls don't reach this call.
	token := s.AccessToken()

	call.state.Store(int32(StateDispatched))
	go s.dispatch(ctx, call, token)

	return call
}

func (s *Service) dispatch(ctx context.Context, call *Call, token string) {
	start := time.Now()
	req := call.req

	ctx, span := instrumentation.StartCallSpan(ctx, req.Method, req.Function, call.id)
	defer span.End()

	// Metrics are recorded even when ctx is the reason the call ended.
	metricsCtx := context.WithoutCancel(ctx)
	s.metrics.CallStarted(metricsCtx, req.Method)

	logger := s.logger.With(
		logging.CallID(call.id),
		logging.Method(req.Method),
		logging.Function(req.Function),
	)
	logger.Debug("dispatching call")

	body, status, err := s.roundTrip(ctx, req, token)
	duration := time.Since(start)
	outcome := outcomeLabel(err)

	s.metrics.RecordCall(metricsCtx, req.Method, req.Function, outcome, duration)
	span.SetAttributes(attribute.String(instrumentation.SpanAttrOutcome, outcome))
	if status != 0 {
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrStatusCode, status))
	}
	if err != nil {
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}

	logger.Debug("call completed",
		logging.Outcome(outcome),
		logging.StatusCode(status),
		logging.Duration(duration),
		logging.Err(err),
	)

	call.complete(body, err)
}

func (s *Service) roundTrip(ctx context.Context, req Request, token string) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, &Error{Kind: KindCancelled, Err: err}
	}

	header, err := s.authorization(token)
	if err != nil {
		return nil, 0, transportError(ctx, err)
	}

	httpReq, err := s.newRequest(ctx, req, header)
	if err != nil {
		return nil, 0, &Error{Kind: KindTransport, Err: err}
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, 0, transportError(ctx, err)
	}
	defer resp.Body.Close()

	if !s.policy(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, statusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, transportError(ctx, fmt.Errorf("failed to read response body: %w", err))
	}

	return body, resp.StatusCode, nil
}

// authorization returns the Authorization header value for one call.
func (s *Service) authorization(token string) (string, error) {
	if s.tokenSource == nil {
		return "Bearer " + token, nil
	}

	tok, err := s.tokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}
	return tok.Type() + " " + tok.AccessToken, nil
}

func (s *Service) newRequest(ctx context.Context, req Request, header string) (*http.Request, error) {
	target := s.baseURL + strings.TrimPrefix(req.Function, "/")

	var body io.Reader
	if req.Content != "" {
		body = strings.NewReader(req.Content)
	} else if len(req.Params) > 0 {
		target += querySeparator(target) + encodeParams(req.Params)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	httpReq.Header.Set("Authorization", header)
	httpReq.Header.Set("Accept", "application/json")
	if req.Content != "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return httpReq, nil
}

// encodeParams keeps insertion order and repeated names, unlike url.Values.Encode.
func encodeParams(params []Parameter) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

func querySeparator(target string) string {
	if strings.Contains(target, "?") {
		return "&"
	}
	return "?"
}

func transportError(ctx context.Context, err error) *Error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &Error{Kind: KindCancelled, Err: ctxErr}
	}
	return &Error{Kind: KindTransport, Err: err}
}

func outcomeLabel(err error) string {
	switch KindOf(err) {
	case 0:
		return instrumentation.OutcomeSuccess
	case KindPermissionDenied:
		return instrumentation.OutcomePermissionDenied
	case KindCancelled:
		return instrumentation.OutcomeCancelled
	default:
		return instrumentation.OutcomeTransport
	}
}
