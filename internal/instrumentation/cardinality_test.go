package instrumentation

import "testing"

func TestFunctionTemplate(t *testing.T) {
	tests := []struct {
		function string
		expected string
	}{
		{"users/@me/lists", "users/@me/lists"},
		{"users/@me/lists/MTIz", "users/@me/lists/{id}"},
		{"lists/MTIz/tasks", "lists/{id}/tasks"},
		{"lists/MTIz/tasks/NDU2", "lists/{id}/tasks/{id}"},
		{"lists/MTIz/tasks/NDU2/move", "lists/{id}/tasks/{id}/move"},
		{"lists/MTIz/clear", "lists/{id}/clear"},
		{"/lists/MTIz/tasks?maxResults=10", "lists/{id}/tasks"},
		{"", "unknown"},
		{"/", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.function, func(t *testing.T) {
			result := FunctionTemplate(tt.function)
			if result != tt.expected {
				t.Errorf("FunctionTemplate(%q) = %q, want %q", tt.function, result, tt.expected)
			}
		})
	}
}
