package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTokens is a scriptable TokenSource. The authorizer is expected
// to delegate all refresh coordination to it, so the fake only counts
// calls and swaps in the next token.
type fakeTokens struct {
	mu           sync.Mutex
	token        string
	hasToken     bool
	staleTokens  map[string]bool
	next         string
	refreshErr   error
	refreshCalls int
}

func (f *fakeTokens) AccessToken() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.hasToken
}

func (f *fakeTokens) Expired(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.staleTokens[token]
}

func (f *fakeTokens) RefreshAccessToken(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	f.token = f.next
	return f.next, nil
}

func (f *fakeTokens) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

// recordedRequest captures what the server actually saw.
type recordedRequest struct {
	path      string
	bearer    string
	requestID string
	body      string
}

func newRecordingServer(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, func() []recordedRequest) {
	t.Helper()

	var mu sync.Mutex
	var seen []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recordedRequest{
			path:      r.URL.Path,
			bearer:    r.Header.Get("Authorization"),
			requestID: r.Header.Get("X-Request-ID"),
			body:      string(body),
		})
		mu.Unlock()
		handle(w, r)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), seen...)
	}
}

func okJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}

func TestPublicRoutesSkipAuthorization(t *testing.T) {
	srv, seen := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		okJSON(w, `{}`)
	})

	// No stored token at all: public reads must still go through.
	tokens := &fakeTokens{}
	client := NewClient(srv.URL, "/api", time.Second, tokens)
	ctx := context.Background()

	for _, path := range []string{"/articles", "/articles/a1", "/comments/article/a1"} {
		require.NoError(t, client.doJSON(ctx, http.MethodGet, path, nil, nil), "GET %s", path)
	}
	require.NoError(t, client.doJSON(ctx, http.MethodPost, "/auth/login", map[string]string{"email": "a"}, nil))

	for _, req := range seen() {
		assert.Empty(t, req.bearer, "%s must not carry a bearer token", req.path)
	}
	assert.Zero(t, tokens.calls())
}

func TestOwnerArticleRoutesAreProtected(t *testing.T) {
	srv, seen := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		okJSON(w, `[]`)
	})

	tokens := &fakeTokens{token: "tok-1", hasToken: true, staleTokens: map[string]bool{}}
	client := NewClient(srv.URL, "/api", time.Second, tokens)

	// /articles/my shares the /articles prefix with the public read
	// surface but belongs to the owner and must carry the token.
	require.NoError(t, client.doJSON(context.Background(), http.MethodGet, "/articles/my/articles", nil, nil))

	reqs := seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer tok-1", reqs[0].bearer)
	assert.NotEmpty(t, reqs[0].requestID)
}

func TestProtectedCallWithoutTokenFailsFast(t *testing.T) {
	srv, seen := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		okJSON(w, `{}`)
	})

	tokens := &fakeTokens{hasToken: false}
	client := NewClient(srv.URL, "/api", time.Second, tokens)

	err := client.doJSON(context.Background(), http.MethodGet, "/notifications", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthenticationMissing)
	assert.Empty(t, seen(), "the request must never reach the server")
	assert.Zero(t, tokens.calls())
}

func TestStaleTokenRefreshedBeforeRequest(t *testing.T) {
	srv, seen := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		okJSON(w, `{}`)
	})

	tokens := &fakeTokens{
		token:       "tok-stale",
		hasToken:    true,
		staleTokens: map[string]bool{"tok-stale": true},
		next:        "tok-fresh",
	}
	client := NewClient(srv.URL, "/api", time.Second, tokens)

	require.NoError(t, client.doJSON(context.Background(), http.MethodGet, "/notifications", nil, nil))

	reqs := seen()
	require.Len(t, reqs, 1, "the stale token must never be spent on a round-trip")
	assert.Equal(t, "Bearer tok-fresh", reqs[0].bearer)
	assert.Equal(t, 1, tokens.calls())
}

func TestUnauthorizedTriggersSingleRefreshAndRetry(t *testing.T) {
	srv, seen := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		okJSON(w, `{"ok":true}`)
	})

	tokens := &fakeTokens{
		token:       "tok-1",
		hasToken:    true,
		staleTokens: map[string]bool{},
		next:        "tok-2",
	}
	client := NewClient(srv.URL, "/api", time.Second, tokens)

	payload := map[string]string{"content": "hello"}
	require.NoError(t, client.doJSON(context.Background(), http.MethodPost, "/comments", payload, nil))

	reqs := seen()
	require.Len(t, reqs, 2, "exactly one retry after the 401")
	assert.Equal(t, "Bearer tok-1", reqs[0].bearer)
	assert.Equal(t, "Bearer tok-2", reqs[1].bearer)
	assert.Equal(t, reqs[0].body, reqs[1].body, "the retry must replay the full body")
	assert.NotEqual(t, reqs[0].requestID, reqs[1].requestID, "the retry is a new request")
	assert.Equal(t, 1, tokens.calls())
}

func TestRefreshFailureSurfacesOriginalUnauthorized(t *testing.T) {
	srv, seen := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"token revoked"}`)
	})

	tokens := &fakeTokens{
		token:       "tok-1",
		hasToken:    true,
		staleTokens: map[string]bool{},
		refreshErr:  errors.New("refresh rejected"),
	}
	client := NewClient(srv.URL, "/api", time.Second, tokens)

	err := client.doJSON(context.Background(), http.MethodGet, "/notifications", nil, nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Equal(t, "token revoked", statusErr.Message)

	assert.Len(t, seen(), 1, "a failed refresh must not trigger a retry")
	assert.Equal(t, 1, tokens.calls())
}

func TestSecondUnauthorizedIsNotRetriedAgain(t *testing.T) {
	srv, seen := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"nope"}`)
	})

	tokens := &fakeTokens{
		token:       "tok-1",
		hasToken:    true,
		staleTokens: map[string]bool{},
		next:        "tok-2",
	}
	client := NewClient(srv.URL, "/api", time.Second, tokens)

	err := client.doJSON(context.Background(), http.MethodGet, "/notifications", nil, nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)

	assert.Len(t, seen(), 2, "one retry only, however many 401s follow")
	assert.Equal(t, 1, tokens.calls())
}
