package qtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"qacoverage.app/api-server/core/config"
)

// Tokens nominally live for an hour; refreshing at 50 minutes keeps a
// safety margin so in-flight calls never ride an expiring token.
const tokenLifetime = 50 * time.Minute

const loginTimeout = 30 * time.Second

// SessionManager owns the cached bearer token for the test-management
// system. Callers ask for a token and never see expiry handling.
type SessionManager struct {
	cfg   config.QTestConfig
	http  *http.Client
	clock clockwork.Clock

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewSessionManager(cfg config.QTestConfig, clock clockwork.Clock) *SessionManager {
	return &SessionManager{
		cfg:   cfg,
		http:  &http.Client{},
		clock: clock,
	}
}

func (s *SessionManager) Configured() bool {
	return s.cfg.IsConfigured()
}

// Token returns a valid bearer token, re-authenticating first when the
// cached one is absent or at/past its expiry boundary.
func (s *SessionManager) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.clock.Now().Before(s.expiry) {
		return s.token, nil
	}
	if err := s.login(ctx); err != nil {
		return "", err
	}
	return s.token, nil
}

// Authenticated reports whether a usable token is currently cached.
func (s *SessionManager) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.clock.Now().Before(s.expiry)
}

func (s *SessionManager) login(ctx context.Context) error {
	if !s.Configured() {
		return fmt.Errorf("qtest is not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"username": s.cfg.Username,
		"password": s.cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("encoding login request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, s.cfg.URL+"/api/login", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("logging in to qtest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("qtest login returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading login response: %w", err)
	}

	var loginResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &loginResp); err != nil {
		return fmt.Errorf("decoding login response: %w", err)
	}
	if loginResp.AccessToken == "" {
		return fmt.Errorf("qtest login response missing access token")
	}

	s.token = loginResp.AccessToken
	s.expiry = s.clock.Now().Add(tokenLifetime)
	slog.InfoContext(ctx, "logged in to qtest", "username", s.cfg.Username)
	return nil
}
