package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inkflow/inkwell/internal/api"
	"github.com/inkflow/inkwell/internal/config"
	"github.com/inkflow/inkwell/internal/realtime"
	"github.com/inkflow/inkwell/internal/session"
	"github.com/inkflow/inkwell/internal/store"
)

// app wires the core components for one command invocation.
type app struct {
	cfg       *config.Config
	store     *store.Store
	transient *store.Transient
	manager   *session.Manager
	auth      *api.AuthClient
	api       *api.Client
}

// newApp opens the store and builds the session manager plus REST
// collaborators.
func newApp() (*app, error) {
	cfg := loadedConfig
	if cfg == nil {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return nil, err
		}
	}

	st, err := store.OpenDefault(cfg.VaultPassphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	auth := api.NewAuthClient(cfg.ServerURL, cfg.APIBasePath, cfg.HTTPTimeout())

	manager, err := session.NewManager(st, auth)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		store:     st,
		transient: store.NewTransient(),
		manager:   manager,
		auth:      auth,
		api:       api.NewClient(cfg.ServerURL, cfg.APIBasePath, cfg.HTTPTimeout(), manager),
	}, nil
}

// Close releases the store.
func (a *app) Close() {
	a.store.Close()
}

// newChannel builds the realtime channel against the configured
// websocket endpoint.
func (a *app) newChannel() *realtime.Channel {
	endpoint := a.cfg.ServerURL
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = "ws://" + strings.TrimPrefix(endpoint, "http://")
	}
	return realtime.NewChannel(strings.TrimSuffix(endpoint, "/") + a.cfg.RealtimePath)
}

// markViewed records an article in the viewed-articles marker,
// reporting true the first time this client sees it.
func (a *app) markViewed(articleID string) (bool, error) {
	raw, _, err := a.store.Get(store.KeyViewedArticles)
	if err != nil {
		return false, err
	}

	var viewed []string
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &viewed); err != nil {
			viewed = nil
		}
	}

	for _, id := range viewed {
		if id == articleID {
			return false, nil
		}
	}

	viewed = append(viewed, articleID)
	data, err := json.Marshal(viewed)
	if err != nil {
		return false, err
	}
	return true, a.store.Set(store.KeyViewedArticles, string(data))
}

// requireLogin fails with a friendly message when no session exists.
func (a *app) requireLogin() error {
	if !a.manager.IsAuthenticated() {
		return fmt.Errorf("not logged in, run 'inkwell auth login' first")
	}
	return nil
}
