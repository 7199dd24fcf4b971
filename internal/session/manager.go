package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/inkflow/inkwell/internal/logger"
	"github.com/inkflow/inkwell/internal/model"
	"github.com/inkflow/inkwell/internal/store"
)

// AuthAPI is the REST auth collaborator the manager drives. Declared
// here, implemented by the api package.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*model.Session, error)
	Register(ctx context.Context, username, email, password, role string) (*model.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*model.Session, error)
	Logout(ctx context.Context, accessToken string) error
}

// State is the authentication state machine position.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	RefreshPending
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case RefreshPending:
		return "refresh-pending"
	default:
		return "unknown"
	}
}

// statusCoder matches errors that carry an HTTP status (api.StatusError).
type statusCoder interface {
	StatusCode() int
}

// statusOf extracts an HTTP status from an error chain, if any.
// Errors without a status are transport-level failures.
func statusOf(err error) (int, bool) {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode(), true
	}
	return 0, false
}

// logoutTimeout bounds the best-effort server-side logout call.
const logoutTimeout = 5 * time.Second

// Manager owns the authentication state machine: login, logout,
// single-flight refresh, and the expiry watch. The store is its
// persistence delegate; nothing else writes session keys.
type Manager struct {
	store *store.Store
	auth  AuthAPI

	mu      sync.Mutex
	state   State
	session model.Session

	// refresh coordination: the singleflight group is the shared
	// pending-operation slot, refreshing lets the expiry watch skip
	// ticks while a flight is outstanding.
	refresh    singleflight.Group
	refreshing sync.Mutex // held for trigger bookkeeping only
	inFlight   bool

	watchStop chan struct{}

	onAuthenticated func(s model.Session)
	onTerminated    func()
}

// NewManager creates a manager and restores any persisted session.
func NewManager(st *store.Store, auth AuthAPI) (*Manager, error) {
	m := &Manager{store: st, auth: auth}
	if err := m.restore(); err != nil {
		return nil, err
	}
	return m, nil
}

// OnAuthenticated registers the hook fired after login/register, with
// the new session. Used to bring the realtime channel up.
func (m *Manager) OnAuthenticated(fn func(s model.Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAuthenticated = fn
}

// OnTerminated registers the hook fired after the session is cleared,
// whether by logout or a terminal refresh failure.
func (m *Manager) OnTerminated(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onTerminated = fn
}

// restore loads the persisted session, deriving the refresh token
// expiry from the token itself.
func (m *Manager) restore() error {
	access, _, err := m.store.Get(store.KeyToken)
	if err != nil {
		return err
	}
	refreshTok, _, err := m.store.Get(store.KeyRefreshToken)
	if err != nil {
		return err
	}
	userJSON, _, err := m.store.Get(store.KeyUser)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = model.Session{AccessToken: access, RefreshToken: refreshTok}
	if userJSON != "" {
		var user model.UserProfile
		if err := json.Unmarshal([]byte(userJSON), &user); err == nil {
			m.session.User = &user
		}
	}
	if refreshTok != "" {
		if exp, err := TokenExpiry(refreshTok); err == nil {
			m.session.RefreshTokenExpiresAt = exp.Unix()
		}
	}

	if m.session.Authenticated() {
		m.state = Authenticated
	}
	return nil
}

// Current returns a copy of the session.
func (m *Manager) Current() model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// IsAuthenticated reports whether a session is active.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Authenticated()
}

// State returns the current state machine position.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// AccessToken returns the current access token, reporting presence.
// Implements the api token source.
func (m *Manager) AccessToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.AccessToken, m.session.AccessToken != ""
}

// Expired reports whether token's expiry has passed by the local
// clock. Implements the api token source.
func (m *Manager) Expired(token string) bool {
	return IsTokenExpired(token)
}

// Login authenticates with email and password and persists the
// resulting session atomically.
func (m *Manager) Login(ctx context.Context, email, password string) (*model.Session, error) {
	m.setState(Authenticating)

	sess, err := m.auth.Login(ctx, email, password)
	if err != nil {
		m.setState(Anonymous)
		if code, ok := statusOf(err); ok && (code == 400 || code == 401) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Join(ErrNetwork, err)
	}

	if err := m.install(*sess); err != nil {
		return nil, err
	}
	logger.Info("logged in", logger.F("email", email))
	return sess, nil
}

// Register creates an account and logs it in.
func (m *Manager) Register(ctx context.Context, username, email, password, role string) (*model.Session, error) {
	m.setState(Authenticating)

	sess, err := m.auth.Register(ctx, username, email, password, role)
	if err != nil {
		m.setState(Anonymous)
		if _, ok := statusOf(err); ok {
			return nil, err
		}
		return nil, errors.Join(ErrNetwork, err)
	}

	if err := m.install(*sess); err != nil {
		return nil, err
	}
	logger.Info("registered", logger.F("username", username))
	return sess, nil
}

// install persists and adopts a freshly issued session, then fires
// the authenticated hook.
func (m *Manager) install(sess model.Session) error {
	if sess.RefreshToken != "" {
		if exp, err := TokenExpiry(sess.RefreshToken); err == nil {
			sess.RefreshTokenExpiresAt = exp.Unix()
		}
	}

	userJSON := ""
	if sess.User != nil {
		data, err := json.Marshal(sess.User)
		if err != nil {
			return err
		}
		userJSON = string(data)
	}

	if err := m.store.SetAll(map[string]string{
		store.KeyToken:        sess.AccessToken,
		store.KeyRefreshToken: sess.RefreshToken,
		store.KeyUser:         userJSON,
	}); err != nil {
		return err
	}

	m.mu.Lock()
	m.session = sess
	m.state = Authenticated
	hook := m.onAuthenticated
	m.mu.Unlock()

	if hook != nil {
		hook(sess)
	}
	return nil
}

// Logout clears the local session immediately, then notifies the
// server best-effort. A server failure never rolls back the local
// clear: logout is idempotent and client-authoritative.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	access := m.session.AccessToken
	m.mu.Unlock()

	if err := m.teardown(); err != nil {
		return err
	}

	if access != "" {
		ctx, cancel := context.WithTimeout(ctx, logoutTimeout)
		defer cancel()
		if err := m.auth.Logout(ctx, access); err != nil {
			logger.Warn("server-side logout failed", logger.F("error", err))
		}
	}
	return nil
}

// teardown clears every persisted session key, stops the expiry
// watch, and fires the terminated hook.
func (m *Manager) teardown() error {
	m.StopExpiryWatch()

	if err := m.store.Delete(
		store.KeyToken,
		store.KeyRefreshToken,
		store.KeyUser,
		store.KeyViewedArticles,
	); err != nil {
		return err
	}

	m.mu.Lock()
	m.session = model.Session{}
	m.state = Anonymous
	hook := m.onTerminated
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// Refresh exchanges the stored refresh token for a new token pair.
// At most one refresh is in flight at a time: concurrent callers
// attach to the pending flight and receive its result.
func (m *Manager) Refresh(ctx context.Context) (*model.Session, error) {
	v, err, _ := m.refresh.Do("refresh", func() (interface{}, error) {
		return m.doRefresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Session), nil
}

func (m *Manager) doRefresh(ctx context.Context) (*model.Session, error) {
	m.mu.Lock()
	refreshTok := m.session.RefreshToken
	expiresAt := m.session.RefreshTokenExpiresAt
	if m.state == Authenticated {
		m.state = RefreshPending
	}
	m.mu.Unlock()

	if refreshTok == "" {
		m.teardown()
		return nil, ErrRefreshTokenMissing
	}
	if expiresAt != 0 && time.Now().Unix() >= expiresAt {
		m.teardown()
		return nil, ErrRefreshTokenExpired
	}

	sess, err := m.auth.Refresh(ctx, refreshTok)
	if err != nil {
		if code, ok := statusOf(err); ok && (code == 400 || code == 401 || code == 403) {
			// Explicit rejection from the server, not a blip.
			logger.Warn("refresh rejected, clearing session", logger.F("status", code))
			m.teardown()
			return nil, ErrRefreshRejected
		}
		// Transient failure: keep the session, let a later cycle retry.
		m.mu.Lock()
		if m.state == RefreshPending {
			m.state = Authenticated
		}
		m.mu.Unlock()
		return nil, errors.Join(ErrNetwork, err)
	}

	if err := m.install(*sess); err != nil {
		return nil, err
	}
	logger.Debug("session refreshed")
	return sess, nil
}

// RefreshAccessToken is the authorizer-facing variant of Refresh.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	sess, err := m.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return sess.AccessToken, nil
}
