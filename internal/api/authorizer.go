package api

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/inkflow/inkwell/internal/logger"
)

// TokenSource supplies bearer tokens to the authorizer. Implemented
// by the session manager.
type TokenSource interface {
	// AccessToken returns the stored access token, reporting presence.
	AccessToken() (string, bool)
	// Expired reports whether token is stale by the local clock.
	Expired(token string) bool
	// RefreshAccessToken performs a coordinated refresh and returns
	// the new access token. Concurrent callers share one refresh.
	RefreshAccessToken(ctx context.Context) (string, error)
}

// publicRoutes lists method+path patterns (relative to the API base)
// that never carry a bearer token: the auth endpoints themselves and
// the explicitly public read surface.
var publicRoutes = []struct {
	method  string
	pattern *regexp.Regexp
}{
	{http.MethodPost, regexp.MustCompile(`^/auth/(login|register|refresh)$`)},
	{http.MethodGet, regexp.MustCompile(`^/articles$`)},
	{http.MethodGet, regexp.MustCompile(`^/articles/[^/]+$`)},
	{http.MethodGet, regexp.MustCompile(`^/comments/article/[^/]+$`)},
}

// authTransport intercepts every outgoing API call: it attaches the
// bearer token to protected routes, refreshes proactively when the
// token is stale, and on a 401 runs exactly one coordinated
// refresh-then-retry cycle.
type authTransport struct {
	base    http.RoundTripper
	tokens  TokenSource
	apiBase string // path prefix stripped before classification
}

// isPublic classifies a request against the allow-list. Anything
// under /articles/my is the owner surface and always protected, even
// though it shares the /articles prefix.
func (t *authTransport) isPublic(method, path string) bool {
	rel := strings.TrimPrefix(path, t.apiBase)
	if strings.HasPrefix(rel, "/articles/my") {
		return false
	}
	for _, r := range publicRoutes {
		if r.method == method && r.pattern.MatchString(rel) {
			return true
		}
	}
	return false
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.isPublic(req.Method, req.URL.Path) {
		return t.base.RoundTrip(req)
	}

	token, ok := t.tokens.AccessToken()
	if !ok {
		// Fail fast instead of sending a doomed request.
		return nil, ErrAuthenticationMissing
	}

	// A token already past its expiry would earn a guaranteed 401;
	// refresh before spending the round-trip.
	if t.tokens.Expired(token) {
		refreshed, err := t.tokens.RefreshAccessToken(req.Context())
		if err != nil {
			return nil, err
		}
		token = refreshed
	}

	authed := req.Clone(req.Context())
	authed.Header.Set("Authorization", "Bearer "+token)
	authed.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := t.base.RoundTrip(authed)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// 401 despite a token: refresh once and retry once. Concurrent
	// 401s all land on the same single-flight refresh.
	refreshed, rerr := t.tokens.RefreshAccessToken(req.Context())
	if rerr != nil {
		// Surface the original 401; any session teardown has already
		// happened inside the refresh.
		logger.Debug("refresh after 401 failed", logger.F("error", rerr))
		return resp, nil
	}

	retry, err := rewindRequest(req)
	if err != nil {
		return resp, nil
	}
	resp.Body.Close()

	retry.Header.Set("Authorization", "Bearer "+refreshed)
	retry.Header.Set("X-Request-ID", uuid.NewString())
	return t.base.RoundTrip(retry)
}

// rewindRequest clones req with a replayable body. Requests built by
// this package always carry GetBody, so a retry never replays a
// half-read stream.
func rewindRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	return clone, nil
}
