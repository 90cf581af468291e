package instrumentation

import "strings"

// FunctionTemplate reduces a Tasks API function path to a low-cardinality
// template by replacing list and task identifiers with {id}.
//
// Example:
//
//	FunctionTemplate("users/@me/lists")                 // "users/@me/lists"
//	FunctionTemplate("users/@me/lists/MTIz")            // "users/@me/lists/{id}"
//	FunctionTemplate("lists/MTIz/tasks/NDU2/move")      // "lists/{id}/tasks/{id}/move"
//	FunctionTemplate("lists/MTIz/tasks?maxResults=10")  // "lists/{id}/tasks"
func FunctionTemplate(function string) string {
	if i := strings.IndexByte(function, '?'); i >= 0 {
		function = function[:i]
	}
	function = strings.Trim(function, "/")
	if function == "" {
		return "unknown"
	}

	segments := strings.Split(function, "/")
	for i := 1; i < len(segments); i++ {
		switch segments[i-1] {
		case "lists", "tasks":
			segments[i] = "{id}"
		}
	}

	return strings.Join(segments, "/")
}
