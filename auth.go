package netatmo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultAuthBaseURL is the Netatmo authentication base URL.
	DefaultAuthBaseURL = "https://auth.netatmo.com"

	// DefaultAuthTimeout bounds the login handshake so a stuck attempt
	// fails instead of blocking other callers forever.
	DefaultAuthTimeout = 30 * time.Second

	// userAgent is the agent string the vendor expects from its own app.
	userAgent = "netatmo-home"

	// accessTokenCookie is the session cookie carrying the bearer token.
	accessTokenCookie = "netatmocomaccess_token"

	loginPagePath = "/en-us/access/login"
	csrfPath      = "/access/csrf"
	postloginPath = "/access/postlogin"
	keychainPath  = "/access/keychain"
)

// Credential is the session material produced by a successful login
// handshake: the vendor's session cookies keyed by name. It is opaque
// bearer material with no expiry timestamp; it stays valid until the
// server rejects it. The on-disk record is this mapping serialized as
// flat JSON.
type Credential map[string]string

// AccessToken returns the bearer token extracted from the session
// cookies, or "" when the credential carries none.
func (c Credential) AccessToken() string {
	raw, ok := c[accessTokenCookie]
	if !ok {
		return ""
	}
	token, err := url.QueryUnescape(raw)
	if err != nil {
		return raw
	}
	return token
}

// Valid reports whether the credential carries a usable bearer token.
// Validity is optimistic: the server is the only authority on expiry.
func (c Credential) Valid() bool {
	return c.AccessToken() != ""
}

func (c Credential) clone() Credential {
	if c == nil {
		return nil
	}
	out := make(Credential, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// AuthOption configures an Authenticator.
type AuthOption func(*Authenticator)

// WithAuthBaseURL sets a custom base URL for the authentication endpoints.
func WithAuthBaseURL(url string) AuthOption {
	return func(a *Authenticator) {
		a.baseURL = url
	}
}

// WithAuthHTTPClient sets a custom HTTP client for the login handshake.
// The client's cookie jar is replaced per handshake.
func WithAuthHTTPClient(client *http.Client) AuthOption {
	return func(a *Authenticator) {
		a.httpClient = client
	}
}

// WithAuthTimeout sets the login handshake timeout.
func WithAuthTimeout(timeout time.Duration) AuthOption {
	return func(a *Authenticator) {
		if a.httpClient == nil {
			a.httpClient = &http.Client{}
		}
		a.httpClient.Timeout = timeout
	}
}

// WithAuthLogger configures a structured logger for the authenticator.
func WithAuthLogger(logger *slog.Logger) AuthOption {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// Authenticator maintains the single authoritative session credential for
// a process. It performs the login handshake when no valid credential is
// held, persists the result through its CredentialStore, and serializes
// all credential access so at most one login is in flight at a time.
type Authenticator struct {
	username   string
	password   string
	baseURL    string
	store      CredentialStore
	httpClient *http.Client
	logger     *slog.Logger

	// mu guards cred. Every read, write, and invalidation of the
	// in-memory credential happens inside this critical section; the
	// login handshake and the store load/save run while holding it.
	mu   sync.Mutex
	cred Credential
}

// NewAuthenticator creates an Authenticator for the given account.
// The store is required; use NewMemoryCredentialStore to opt out of
// durable persistence.
func NewAuthenticator(username, password string, store CredentialStore, opts ...AuthOption) (*Authenticator, error) {
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}
	if store == nil {
		return nil, fmt.Errorf("netatmo: credential store is required")
	}

	a := &Authenticator{
		username: username,
		password: password,
		baseURL:  DefaultAuthBaseURL,
		store:    store,
		httpClient: &http.Client{
			Timeout: DefaultAuthTimeout,
		},
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.httpClient.Timeout <= 0 {
		a.httpClient.Timeout = DefaultAuthTimeout
	}

	return a, nil
}

// Credential returns the current session credential, producing one if
// needed: the in-memory copy wins, then a load from the store, then a
// fresh login handshake whose result is persisted. Concurrent callers
// block on the same critical section and observe a single login.
func (a *Authenticator) Credential(ctx context.Context) (Credential, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cred.Valid() {
		return a.cred.clone(), nil
	}

	// A sibling process may have refreshed the record since we
	// invalidated; a disk load short-circuits the relogin.
	if cred, err := a.store.Load(); err != nil {
		a.logWarn(ctx, "credential_load_failed", slog.String("error", err.Error()))
	} else if cred.Valid() {
		a.cred = cred
		return a.cred.clone(), nil
	}

	cred, err := a.login(ctx)
	if err != nil {
		return nil, err
	}
	a.cred = cred

	// Persistence is best-effort: the in-memory credential is already
	// authoritative, so a failed save must not fail the call.
	if err := a.store.Save(cred); err != nil {
		a.logWarn(ctx, "credential_save_failed", slog.String("error", err.Error()))
	}

	return a.cred.clone(), nil
}

// AuthHeaders returns the headers to attach to an authorized API call,
// refreshing the credential first if needed.
func (a *Authenticator) AuthHeaders(ctx context.Context) (http.Header, error) {
	cred, err := a.Credential(ctx)
	if err != nil {
		return nil, err
	}

	headers := make(http.Header)
	headers.Set("Authorization", "Bearer "+cred.AccessToken())
	headers.Set("User-Agent", userAgent)
	return headers, nil
}

// Invalidate drops the in-memory credential, forcing the next Credential
// call to reload from the store or perform a fresh login. The on-disk
// record is left in place: another process may have refreshed it, and
// the next successful login overwrites it anyway.
func (a *Authenticator) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cred = nil
}

// login performs the vendor's cookie-based login handshake:
// fetch the login page for a session cookie, fetch the CSRF token,
// submit the credentials, then complete the keychain step. The session
// cookies accumulated across the flow become the new credential.
// Callers must hold a.mu.
func (a *Authenticator) login(ctx context.Context) (Credential, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, &AuthError{Message: "failed to create cookie jar", Err: err}
	}

	// Redirects are not followed so the Set-Cookie headers on the
	// postlogin 302 are recorded before anything else runs.
	client := &http.Client{
		Transport: a.httpClient.Transport,
		Timeout:   a.httpClient.Timeout,
		Jar:       jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	base, err := url.Parse(a.baseURL)
	if err != nil {
		return nil, &AuthError{Message: "invalid auth base URL", Err: err}
	}

	if _, err := a.handshakeGet(ctx, client, loginPagePath); err != nil {
		return nil, &AuthError{Message: "failed to open login session", Err: err}
	}

	csrfBody, err := a.handshakeGet(ctx, client, csrfPath)
	if err != nil {
		return nil, &AuthError{Message: "failed to fetch CSRF token", Err: err}
	}

	var csrf struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(csrfBody, &csrf); err != nil || csrf.Token == "" {
		return nil, &AuthError{Message: "unexpected CSRF response shape", Err: err}
	}

	form := url.Values{}
	form.Set("email", a.username)
	form.Set("password", a.password)
	form.Set("_token", csrf.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+postloginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &AuthError{Message: "failed to create login request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &AuthError{Message: "login request failed", Err: err}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &AuthError{Message: fmt.Sprintf("login rejected with HTTP %d", resp.StatusCode)}
	}

	if _, err := a.handshakeGet(ctx, client, keychainPath); err != nil {
		return nil, &AuthError{Message: "failed to complete login flow", Err: err}
	}

	cred := make(Credential)
	for _, c := range jar.Cookies(base) {
		cred[c.Name] = c.Value
	}

	if !cred.Valid() {
		// The vendor signals bad credentials by redirecting back to the
		// login page without issuing a session token.
		return nil, &AuthError{Message: "login did not yield a session token (check username and password)"}
	}

	a.logInfo(ctx, "login_succeeded", slog.String("username", a.username))
	return cred, nil
}

// handshakeGet issues one GET step of the login flow and returns the body.
func (a *Authenticator) handshakeGet(ctx context.Context, client *http.Client, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("GET %s returned HTTP %d", path, resp.StatusCode)
	}

	return body, nil
}

func (a *Authenticator) logWarn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if a.logger == nil {
		return
	}
	a.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

func (a *Authenticator) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if a.logger == nil {
		return
	}
	a.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}
