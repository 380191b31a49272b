// ABOUTME: OAuth2 authorization-code login and the on-disk token cache
// ABOUTME: Builds authorized HTTP clients that persist refreshed tokens

package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"diversify/config"

	"golang.org/x/oauth2"
)

// Spotify accounts service endpoints
const (
	AuthURL  = "https://accounts.spotify.com/authorize"
	TokenURL = "https://accounts.spotify.com/api/token"
)

// Scopes are the permissions requested at login
var Scopes = []string{"user-library-read", "playlist-modify-private"}

// ErrNotLoggedIn is returned when no cached token exists
var ErrNotLoggedIn = errors.New("not logged in, run [diversify login] to log in")

// ErrNoCredentials is returned when the client ID or secret is missing
var ErrNoCredentials = errors.New("no API credentials set, add client_id and client_secret to the config or set " +
	config.EnvClientID + " and " + config.EnvClientSecret)

// OAuthConfig builds the authorization-code flow configuration
func OAuthConfig(cfg config.SpotifyConfig) (*oauth2.Config, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNoCredentials
	}

	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  AuthURL,
			TokenURL: TokenURL,
		},
	}, nil
}

// ParseCode extracts the authorization code from a pasted redirect URL or a bare code
func ParseCode(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("empty authorization response")
	}

	if !strings.Contains(input, "?") && !strings.Contains(input, "://") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}

	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization denied: %s", e)
	}

	code := q.Get("code")
	if code == "" {
		return "", errors.New("redirect URL carries no code")
	}

	return code, nil
}

// TokenStore persists the OAuth token as JSON
type TokenStore struct {
	path string
}

// NewTokenStore creates a store backed by path
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the cache file location
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the cached token, ErrNotLoggedIn if there is none
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLoggedIn
		}

		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token cache: %w", err)
	}

	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNotLoggedIn
	}

	return &tok, nil
}

// Save writes tok to the cache file, readable by the owner only
func (s *TokenStore) Save(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token cache directory: %w", err)
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}

	return nil
}

// Remove deletes the cached token and reports whether one existed
func (s *TokenStore) Remove() (bool, error) {
	err := os.Remove(s.path)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, fmt.Errorf("failed to remove token cache: %w", err)
}

// Login exchanges an authorization code and caches the resulting token
func (s *TokenStore) Login(ctx context.Context, conf *oauth2.Config, code string) (*oauth2.Token, error) {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	if err := s.Save(tok); err != nil {
		return nil, err
	}

	return tok, nil
}

// HTTPClient returns a client authorized with the cached token.
// Refreshed tokens are written back to the cache.
func (s *TokenStore) HTTPClient(ctx context.Context, conf *oauth2.Config) (*http.Client, error) {
	tok, err := s.Load()
	if err != nil {
		return nil, err
	}

	ts := &persistingSource{
		base:  conf.TokenSource(ctx, tok),
		store: s,
		last:  tok.AccessToken,
	}

	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, ts)), nil
}

// persistingSource saves every newly issued token
type persistingSource struct {
	base  oauth2.TokenSource
	store *TokenStore

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := p.store.Save(tok); err != nil {
			return nil, err
		}
	}

	return tok, nil
}
