package session

import "time"

// Data is the per-browser state of an authorization code flow
type Data struct {
	// State is the value sent with the last /login redirect; /callback must echo it
	State string
	// CodeVerifier is the PKCE verifier matching State's challenge. Used at most once.
	CodeVerifier string
	CreatedAt    time.Time
}

// Store keeps session data by opaque session id
type Store interface {
	Get(id string) (Data, error)
	Put(id string, data Data) error
	// Update applies fn to the session atomically. A missing session starts empty.
	// When fn returns an error nothing is stored.
	Update(id string, fn func(*Data) error) (Data, error)
	Delete(id string) error
}
