// Package gtasks is a small client for the Google Tasks REST API.
//
// A Service holds the OAuth client credentials and a replaceable bearer
// token. Each call builds one request against BaseURL, sends it on its own
// goroutine and resolves exactly once to either the response body or an
// *Error:
//
//   - a status accepted by the SuccessPolicy (any 2xx by default) yields the body
//   - HTTP 401 yields KindPermissionDenied with the server's reason phrase
//   - any other status, or a network failure, yields KindTransport
//   - a context cancelled before the response is read yields KindCancelled
//
// There are no retries and no timeouts here; callers layer those on top.
//
// # Example Usage
//
//	svc := gtasks.New(clientID, clientSecret)
//	svc.SetAccessToken(token)
//
//	call := svc.CallFunctionWithParams(ctx, http.MethodGet, "users/@me/lists",
//	    []gtasks.Parameter{gtasks.NewParameter("maxResults", "10")})
//
//	body, err := svc.CallFunctionFinish(call)
//	if gtasks.IsPermissionDenied(err) {
//	    // fetch a new token and retry
//	}
//
// Outcomes can also be delivered through a callback:
//
//	svc.CallFunctionAsync(ctx, http.MethodDelete, "users/@me/lists/"+id, "",
//	    func(svc *gtasks.Service, call *gtasks.Call) {
//	        _, err := svc.CallFunctionFinish(call)
//	        ...
//	    })
package gtasks
