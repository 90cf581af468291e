package gtasks

import (
	"fmt"
	"net/http"
	"strings"
)

// SuccessPolicy decides which HTTP status codes count as a successful call.
type SuccessPolicy func(statusCode int) bool

// Any2xx accepts every 2xx status. This is the default policy.
func Any2xx(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// Exactly200 accepts only HTTP 200.
func Exactly200(statusCode int) bool {
	return statusCode == http.StatusOK
}

// Policy names accepted by ParseSuccessPolicy.
const (
	PolicyAny2xx     = "2xx"
	PolicyExactly200 = "200"
)

// ParseSuccessPolicy returns the policy registered under name.
// An empty name selects Any2xx.
func ParseSuccessPolicy(name string) (SuccessPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyAny2xx:
		return Any2xx, nil
	case PolicyExactly200:
		return Exactly200, nil
	default:
		return nil, fmt.Errorf("invalid success policy %q, must be one of: %s, %s", name, PolicyAny2xx, PolicyExactly200)
	}
}
