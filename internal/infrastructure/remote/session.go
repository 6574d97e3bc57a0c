package remote

import "sync"

// CredentialStore holds the device token and the currently signed-in cashier.
// The token is fixed at enrollment; the acting user changes with each PIN
// login and is attached to remote calls as X-USER-ID.
type CredentialStore struct {
	mu     sync.RWMutex
	token  string
	userID string
}

// NewCredentialStore creates a store seeded with the enrollment token.
func NewCredentialStore(deviceToken string) *CredentialStore {
	return &CredentialStore{token: deviceToken}
}

// SetUser records the acting cashier after a successful login.
func (s *CredentialStore) SetUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

// ClearUser drops the acting cashier on logout or session expiry. The device
// token survives; background sync keeps running without a signed-in user.
func (s *CredentialStore) ClearUser() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
}

// Creds returns the current credentials snapshot.
func (s *CredentialStore) Creds() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Credentials{Token: s.token, UserID: s.userID}
}
