package gtasks

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is the lifecycle position of a Call.
type State int32

const (
	StateCreated State = iota
	StateDispatched
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateDispatched:
		return "dispatched"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Parameter is a name/value pair sent as a query parameter.
type Parameter struct {
	Name  string
	Value string
}

// NewParameter returns a Parameter.
func NewParameter(name, value string) Parameter {
	return Parameter{Name: name, Value: value}
}

// Request describes one call against the service.
// Content and Params are mutually exclusive: when Content is non-empty the
// parameters are not sent.
type Request struct {
	Method   string
	Function string
	Content  string
	Params   []Parameter
}

// Callback receives a completed call. It runs exactly once, on the
// goroutine that performed the request.
type Callback func(svc *Service, call *Call)

// Call is a pending or completed request. Its outcome is extracted once
// with Service.CallFunctionFinish.
type Call struct {
	id       string
	service  *Service
	req      Request
	callback Callback

	state atomic.Int32
	done  chan struct{}
	once  sync.Once

	body []byte
	err  error

	extracted atomic.Bool
}

func newCall(svc *Service, req Request, cb Callback) *Call {
	// The caller's slice may be reused as soon as the call is issued.
	if len(req.Params) > 0 {
		req.Params = append([]Parameter(nil), req.Params...)
	}

	c := &Call{
		id:       uuid.NewString(),
		service:  svc,
		req:      req,
		callback: cb,
		done:     make(chan struct{}),
	}
	c.state.Store(int32(StateCreated))
	return c
}

// ID returns the identifier used for this call in logs and spans.
func (c *Call) ID() string {
	return c.id
}

// Method returns the HTTP method of the call.
func (c *Call) Method() string {
	return c.req.Method
}

// Function returns the function path of the call.
func (c *Call) Function() string {
	return c.req.Function
}

// State returns the current lifecycle state.
func (c *Call) State() State {
	return State(c.state.Load())
}

// Done is closed once the outcome is available.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

func (c *Call) complete(body []byte, err error) {
	c.once.Do(func() {
		c.body, c.err = body, err
		if IsCancelled(err) {
			c.state.Store(int32(StateCancelled))
		} else {
			c.state.Store(int32(StateCompleted))
		}
		close(c.done)

		if c.callback != nil {
			c.callback(c.service, c)
		}
	})
}
