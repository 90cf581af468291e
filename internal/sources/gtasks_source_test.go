package sources

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/todosync/internal/google"
	"github.com/teemow/todosync/internal/gtasks"
	"github.com/teemow/todosync/internal/tasks"
)

// sequenceProvider hands out tokens in order, then repeats the last one.
type sequenceProvider struct {
	mu     sync.Mutex
	tokens []string
	calls  atomic.Int32
	err    error
}

func (p *sequenceProvider) GetTokenForAccount(context.Context, string) (*oauth2.Token, error) {
	n := int(p.calls.Add(1))
	if p.err != nil {
		return nil, p.err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	i := n - 1
	if i >= len(p.tokens) {
		i = len(p.tokens) - 1
	}
	return &oauth2.Token{AccessToken: p.tokens[i]}, nil
}

func (p *sequenceProvider) HasTokenForAccount(string) bool { return true }

// tasksAPI accepts only requests carrying validToken.
type tasksAPI struct {
	validToken string
	seenAuth   []string
	mu         sync.Mutex
}

func (a *tasksAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.seenAuth = append(a.seenAuth, r.Header.Get("Authorization"))
	a.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+a.validToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.Method + " " + r.URL.EscapedPath() {
	case "GET /tasks/v1/users/@me/lists":
		_, _ = io.WriteString(w, `{"items":[{"id":"l1","title":"Work"},{"id":"l2","title":"Home"}]}`)
	case "GET /tasks/v1/lists/l1/tasks":
		_, _ = io.WriteString(w, `{"items":[{"id":"t1","title":"Write report"}]}`)
	case "GET /tasks/v1/lists/l2/tasks":
		_, _ = io.WriteString(w, `{}`)
	case "POST /tasks/v1/users/@me/lists":
		_, _ = io.WriteString(w, `{"id":"l3","title":"Groceries"}`)
	case "PATCH /tasks/v1/users/@me/lists/l1":
		_, _ = io.WriteString(w, `{"id":"l1","title":"Office"}`)
	case "DELETE /tasks/v1/users/@me/lists/l2":
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func newTestSource(t *testing.T, api http.Handler, provider google.TokenProvider) *GTasksSource {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	svc := gtasks.New("client-id", "client-secret", gtasks.WithBaseURL(server.URL+"/tasks/v1/"))
	return NewGTasksSource("work", tasks.NewClient(svc), provider)
}

func TestGTasksSource_Identity(t *testing.T) {
	src := NewGTasksSource("work", tasks.NewClient(gtasks.New("id", "secret")), google.NewStaticTokenProvider("x"), WithName("Work tasks"))

	assert.Equal(t, "gtasks:work", src.ID())
	assert.Equal(t, "Work tasks", src.Name())
	assert.True(t, src.Online())
	assert.False(t, src.Authenticated())
}

func TestGTasksSource_ListTaskLists(t *testing.T) {
	provider := &sequenceProvider{tokens: []string{"good"}}
	src := newTestSource(t, &tasksAPI{validToken: "good"}, provider)

	lists, err := src.ListTaskLists(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 2)

	assert.Equal(t, "Work", lists[0].Title)
	assert.Equal(t, "gtasks:work", lists[0].SourceID)
	require.Len(t, lists[0].Items, 1)
	assert.Equal(t, "Write report", lists[0].Items[0].Title)
	assert.NotNil(t, lists[1].Items)
	assert.Empty(t, lists[1].Items)

	assert.True(t, src.Authenticated())
}

func TestGTasksSource_AuthenticatesOnce(t *testing.T) {
	provider := &sequenceProvider{tokens: []string{"good"}}
	src := newTestSource(t, &tasksAPI{validToken: "good"}, provider)
	ctx := context.Background()

	_, err := src.CreateTaskList(ctx, "Groceries")
	require.NoError(t, err)
	_, err = src.RenameTaskList(ctx, "l1", "Office")
	require.NoError(t, err)
	require.NoError(t, src.DeleteTaskList(ctx, "l2"))

	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestGTasksSource_Mutations(t *testing.T) {
	src := newTestSource(t, &tasksAPI{validToken: "good"}, &sequenceProvider{tokens: []string{"good"}})
	ctx := context.Background()

	created, err := src.CreateTaskList(ctx, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, TaskList{ID: "l3", Title: "Groceries", SourceID: "gtasks:work", Items: []tasks.Task{}}, *created)

	renamed, err := src.RenameTaskList(ctx, "l1", "Office")
	require.NoError(t, err)
	assert.Equal(t, "Office", renamed.Title)

	err = src.DeleteTaskList(ctx, "missing")
	assert.True(t, errors.Is(err, gtasks.ErrTransport))
}

func TestGTasksSource_ReauthenticatesAfterPermissionDenied(t *testing.T) {
	provider := &sequenceProvider{tokens: []string{"stale", "good"}}
	api := &tasksAPI{validToken: "good"}
	src := newTestSource(t, api, provider)
	ctx := context.Background()

	_, err := src.ListTaskLists(ctx)
	require.Error(t, err)
	assert.True(t, gtasks.IsPermissionDenied(err))
	assert.False(t, src.Authenticated())

	lists, err := src.ListTaskLists(ctx)
	require.NoError(t, err)
	assert.Len(t, lists, 2)
	assert.Equal(t, int32(2), provider.calls.Load())
	assert.True(t, src.Authenticated())
}

func TestGTasksSource_ProviderFailure(t *testing.T) {
	providerErr := errors.New("keyring locked")
	api := &tasksAPI{validToken: "good"}
	src := newTestSource(t, api, &sequenceProvider{err: providerErr})

	_, err := src.ListTaskLists(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, providerErr)
	assert.Empty(t, api.seenAuth)
}
