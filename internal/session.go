package internal

import "sync"

// Credentials is a copy of a logged-in account's token state.
type Credentials struct {
	Account      string `yaml:"account" json:"account"`
	AccessToken  string `yaml:"access_token,omitempty" json:"access_token,omitempty"`
	RefreshToken string `yaml:"refresh_token" json:"refresh_token"`
	ClientID     string `yaml:"client_id" json:"client_id"`
	RedirectURI  string `yaml:"redirect_uri" json:"redirect_uri"`
}

// Session holds the current account, if any. It is created by the caller and
// shared with the AuthTransport; only Login, Logout and a successful token
// refresh change it.
//
// The mutex makes field access safe. It does not serialize refreshes: two
// requests rejected at the same time may both refresh, and the last one to
// succeed wins.
type Session struct {
	mu    sync.RWMutex
	creds *Credentials
}

// NewSession returns a logged-out session.
func NewSession() *Session {
	return &Session{}
}

// Login replaces the session with creds.
func (s *Session) Login(creds Credentials) {
	c := creds
	s.mu.Lock()
	s.creds = &c
	s.mu.Unlock()
}

// Logout clears all account state.
func (s *Session) Logout() {
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()
}

// Snapshot returns a copy of the credentials and whether anyone is logged in.
func (s *Session) Snapshot() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return Credentials{}, false
	}
	return *s.creds, true
}

// LoggedIn reports whether an account is present.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds != nil
}

// setToken stores a refreshed token pair. A rotated refresh token replaces
// the stored one; an empty one keeps it. Returns false, leaving the session
// untouched, when the account logged out while the refresh was in flight.
func (s *Session) setToken(accessToken, refreshToken string) (Credentials, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return Credentials{}, false
	}
	s.creds.AccessToken = accessToken
	if refreshToken != "" {
		s.creds.RefreshToken = refreshToken
	}
	return *s.creds, true
}
