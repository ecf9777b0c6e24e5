package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultTokenURL     = "https://api.x.com/2/oauth2/token"
	DefaultAuthorizeURL = "https://twitter.com/i/oauth2/authorize"
)

// DefaultScopes are requested by the bootstrap flow. offline.access is what
// makes the provider hand out a refresh token.
var DefaultScopes = []string{"tweet.read", "tweet.write", "users.read", "offline.access"}

// Credentials identify the confidential client at the token endpoint.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	TokenURL     string
}

// Refresher decides whether the stored token can be reused and exchanges the
// refresh token when it cannot.
type Refresher struct {
	store   *Store
	creds   Credentials
	client  *http.Client
	now     func() time.Time
	verbose bool
	logger  *log.Logger

	// OnRotate is called after a refresh that returned a new refresh token.
	// Persisting it is up to the caller.
	OnRotate func(TokenBundle)

	mu sync.Mutex
}

func NewRefresher(store *Store, creds Credentials, client *http.Client, verbose bool, logger *log.Logger) (*Refresher, error) {
	if store == nil {
		return nil, errors.New("token store is required")
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, errors.New("client_id and client_secret are required")
	}
	if creds.TokenURL == "" {
		creds.TokenURL = DefaultTokenURL
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Refresher{
		store:   store,
		creds:   creds,
		client:  client,
		now:     time.Now,
		verbose: verbose,
		logger:  logger,
	}, nil
}

func (r *Refresher) infof(format string, args ...interface{}) {
	if !r.verbose {
		return
	}
	r.logger.Printf("[INFO] "+format, args...)
}

// State reports whether the stored token is fresh right now.
func (r *Refresher) State() State {
	return r.store.Bundle().StateAt(r.now())
}

// AccessToken returns the stored token while it is fresh and refreshes it otherwise.
// Callers that find the token stale together share one refresh.
func (r *Refresher) AccessToken(ctx context.Context) (string, error) {
	if b := r.store.Bundle(); b.StateAt(r.now()) == Fresh {
		return b.AccessToken, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b := r.store.Bundle(); b.StateAt(r.now()) == Fresh {
		return b.AccessToken, nil
	}
	r.infof("access token stale or missing, refreshing")
	return r.refreshLocked(ctx)
}

// Refresh always exchanges the refresh token. On failure the store is left as it was.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshLocked(ctx)
}

func (r *Refresher) refreshLocked(ctx context.Context) (string, error) {
	current := r.store.Bundle()
	if current.RefreshToken == "" {
		return "", errors.New("no refresh token available")
	}

	src := r.config().TokenSource(r.clientContext(ctx), &oauth2.Token{RefreshToken: current.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", asRefreshError(err)
	}

	next := r.bundleFrom(tok, current.RefreshToken)
	r.store.Replace(next)
	r.infof("token refreshed, expires_at=%s", time.UnixMilli(next.ExpiresAt).UTC().Format(time.RFC3339))

	if next.RefreshToken != current.RefreshToken {
		r.logger.Printf("[WARN] provider rotated the refresh token (starts with %s)", prefix(next.RefreshToken, 10))
		if r.OnRotate != nil {
			r.OnRotate(next)
		}
	}
	return next.AccessToken, nil
}

// ExchangeCode runs the authorization_code grant with the PKCE verifier that
// produced the challenge in AuthorizeURL, and installs the resulting bundle.
func (r *Refresher) ExchangeCode(ctx context.Context, code, verifier string) (TokenBundle, error) {
	if code == "" {
		return TokenBundle{}, errors.New("authorization code is required")
	}
	if verifier == "" {
		return TokenBundle{}, errors.New("pkce verifier is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tok, err := r.config().Exchange(r.clientContext(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return TokenBundle{}, asRefreshError(err)
	}
	next := r.bundleFrom(tok, r.store.Bundle().RefreshToken)
	r.store.Replace(next)
	return next, nil
}

func (r *Refresher) config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     r.creds.ClientID,
		ClientSecret: r.creds.ClientSecret,
		RedirectURL:  r.creds.RedirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL:  r.creds.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

func (r *Refresher) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, r.client)
}

// bundleFrom dates the expiry from r.now so tests can pin the clock.
func (r *Refresher) bundleFrom(tok *oauth2.Token, previousRefresh string) TokenBundle {
	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}
	var expiresAt int64
	if secs, ok := expiresIn(tok); ok {
		expiresAt = r.now().Add(time.Duration(secs) * time.Second).UnixMilli()
	} else if !tok.Expiry.IsZero() {
		expiresAt = tok.Expiry.UnixMilli()
	}
	return TokenBundle{
		AccessToken:  tok.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}
}

func expiresIn(tok *oauth2.Token) (int64, bool) {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// asRefreshError maps any token endpoint failure onto RefreshError. Transport
// and decode failures carry StatusCode 0.
func asRefreshError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &RefreshError{StatusCode: status, Body: string(re.Body), Err: err}
	}
	return &RefreshError{Body: err.Error(), Err: err}
}

// AuthorizeURL builds the URL the account owner opens once to grant access.
// The challenge is the S256 hash of verifier; keep verifier for ExchangeCode.
func AuthorizeURL(authorizeURL, clientID, redirectURI, state, verifier string, scopes []string) (string, error) {
	if authorizeURL == "" {
		authorizeURL = DefaultAuthorizeURL
	}
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	if clientID == "" || verifier == "" {
		return "", errors.New("client_id and pkce verifier are required")
	}
	if _, err := url.Parse(authorizeURL); err != nil {
		return "", err
	}
	cfg := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes:      scopes,
		Endpoint:    oauth2.Endpoint{AuthURL: authorizeURL},
	}
	return cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
