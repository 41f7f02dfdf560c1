package client

import "sync"

// Session holds the caller-side token and signed-in state for one client
// instance. UI code subscribes to sign-in transitions instead of reading a
// global flag.
type Session struct {
	mu       sync.Mutex
	token    string
	signedIn bool
	subs     []func(signedIn bool)
}

// NewSession returns a signed-out Session.
func NewSession() *Session {
	return &Session{}
}

// Subscribe registers a callback invoked whenever the signed-in state flips.
// Callbacks run synchronously on the goroutine that changed the state.
func (s *Session) Subscribe(fn func(signedIn bool)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// SetToken stores a token and marks the session signed in. An empty token
// signs the session out.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	signedIn := token != ""
	changed := signedIn != s.signedIn
	s.signedIn = signedIn
	subs := append([]func(bool){}, s.subs...)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range subs {
		fn(signedIn)
	}
}

// Clear discards the held token and marks the session signed out.
func (s *Session) Clear() {
	s.SetToken("")
}

// Token returns the currently held token, or empty when signed out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SignedIn reports whether a token is currently held.
func (s *Session) SignedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signedIn
}
