package session

import (
	"context"
	"errors"
	"time"
)

// Identity is the authenticated principal as announced by the identity
// provider. It is owned by the Controller; consumers only ever see copies.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Tokens is the provider-issued token material. It is opaque to the state
// machine: refreshes replace it in place without any other effect.
type Tokens struct {
	Access    string    `json:"access"`
	Refresh   string    `json:"refresh"`
	ExpiresAt time.Time `json:"expires_at"` // UTC
}

// Session wraps at most one Identity plus its token material.
type Session struct {
	Identity Identity `json:"identity"`
	Tokens   Tokens   `json:"tokens"`
}

// EventKind classifies provider change notifications.
type EventKind int

const (
	SignedIn EventKind = iota
	SignedOut
	TokenRefreshed
	OtherEvent
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "SIGNED_IN"
	case SignedOut:
		return "SIGNED_OUT"
	case TokenRefreshed:
		return "TOKEN_REFRESHED"
	}
	return "OTHER"
}

// Change is a single provider change notification.
type Change struct {
	Kind    EventKind
	Session *Session // nil on sign-out
}

// Provider is the external identity provider the Controller reconciles
// against.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	// PersistedSession returns the locally persisted session, if any.
	// It must be a local read; it must never perform a network round-trip.
	PersistedSession() (*Session, error)
	// OnChange registers cb for change notifications, delivered in order.
	// The returned function unsubscribes it.
	OnChange(cb func(Change)) (unsubscribe func())
}

// AdminGateway looks up the admin flag for a user record.
type AdminGateway interface {
	AdminFlag(ctx context.Context, userID string) (bool, error)
}

// State is the controller's reconciliation state.
type State int

const (
	Uninitialized State = iota
	Verifying
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Verifying:
		return "VERIFYING"
	case Authenticated:
		return "AUTHENTICATED"
	case Anonymous:
		return "ANONYMOUS"
	}
	return "UNINITIALIZED"
}

// Snapshot is a consistent read of the controller's observable fields.
type Snapshot struct {
	State    State
	Identity *Identity
	IsAdmin  bool
	Loading  bool
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthorized      = errors.New("not authorized: admin access required")
	ErrNetwork            = errors.New("network error")
	ErrClosed             = errors.New("session controller closed")
)
