// Package identitysvc is the in-process identity provider. It authenticates
// against the user service, issues JWT token material and persists the
// current session to a local state file so it survives restarts.
package identitysvc

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mkundi/kampasi/core"
	"github.com/mkundi/kampasi/core/session"
	"github.com/mkundi/kampasi/core/user"
)

// refreshLead is how long before token expiry a refresh fires.
const refreshLead = time.Minute

type Provider struct {
	users     *user.Service
	logger    core.Logger
	stateFile string
	secretKey []byte
	tokenTTL  time.Duration

	mutex        sync.Mutex
	current      *session.Session
	refreshTimer *time.Timer
	closed       bool

	cbs      map[int]func(session.Change)
	nextCBID int
}

var _ session.Provider = (*Provider)(nil)

func NewProvider(users *user.Service, logger core.Logger, conf *core.Config) *Provider {
	p := &Provider{
		users:     users,
		logger:    logger,
		stateFile: conf.Session.StateFile,
		secretKey: []byte(conf.SecretKey),
		tokenTTL:  conf.Server.JWTExpirationDelta,
		cbs:       make(map[int]func(session.Change)),
	}
	p.loadState()
	return p
}

// loadState reads the persisted session from disk, if any. Corrupt or
// expired state is discarded.
func (p *Provider) loadState() {
	raw, err := ioutil.ReadFile(p.stateFile)
	if err != nil {
		if !os.IsNotExist(err) {
			p.logger.Warn("reading session state file", err)
		}
		return
	}
	var sess session.Session
	if err = json.Unmarshal(raw, &sess); err != nil {
		p.logger.Warn("discarding corrupt session state file", err)
		_ = os.Remove(p.stateFile)
		return
	}
	if time.Now().After(sess.Tokens.ExpiresAt) {
		_ = os.Remove(p.stateFile)
		return
	}
	p.current = &sess
	p.scheduleRefreshLocked(sess.Tokens.ExpiresAt)
}

func (p *Provider) saveState(sess *session.Session) {
	if sess == nil {
		if err := os.Remove(p.stateFile); err != nil && !os.IsNotExist(err) {
			p.logger.Warn("removing session state file", err)
		}
		return
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		p.logger.Error("marshaling session state", err)
		return
	}
	if err = ioutil.WriteFile(p.stateFile, raw, 0o600); err != nil {
		p.logger.Error("writing session state file", err)
	}
}

func (p *Provider) issueTokens(usr user.User) (session.Tokens, error) {
	expiresAt := time.Now().Add(p.tokenTTL).UTC()
	claims := jwt.StandardClaims{
		Subject:   usr.ID,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: expiresAt.Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secretKey)
	if err != nil {
		return session.Tokens{}, errors.Wrap(err, "signing access token")
	}
	return session.Tokens{
		Access:    access,
		Refresh:   uuid.NewString(),
		ExpiresAt: expiresAt,
	}, nil
}

func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error) {
	usr, err := p.users.Authenticate(ctx, email, password)
	if err != nil {
		switch err {
		case user.ErrInvalidCredentials, user.ErrAccountDeactivated:
			return nil, session.ErrInvalidCredentials
		}
		p.logger.Error("authenticating", err)
		return nil, session.ErrNetwork
	}

	tokens, err := p.issueTokens(usr)
	if err != nil {
		p.logger.Error("issuing tokens", err)
		return nil, session.ErrNetwork
	}
	sess := &session.Session{
		Identity: session.Identity{ID: usr.ID, Email: usr.Email},
		Tokens:   tokens,
	}

	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return nil, session.ErrClosed
	}
	p.current = sess
	p.saveState(sess)
	p.scheduleRefreshLocked(tokens.ExpiresAt)
	cbs := p.callbacksLocked()
	p.mutex.Unlock()

	copied := *sess
	notify(cbs, session.Change{Kind: session.SignedIn, Session: &copied})
	return &copied, nil
}

func (p *Provider) SignOut(context.Context) error {
	p.mutex.Lock()
	if p.current == nil {
		p.mutex.Unlock()
		return nil
	}
	p.current = nil
	p.saveState(nil)
	p.stopRefreshLocked()
	cbs := p.callbacksLocked()
	p.mutex.Unlock()

	notify(cbs, session.Change{Kind: session.SignedOut})
	return nil
}

// PersistedSession is a pure local read; it never hits the user store.
func (p *Provider) PersistedSession() (*session.Session, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.current == nil {
		return nil, nil
	}
	copied := *p.current
	return &copied, nil
}

func (p *Provider) OnChange(cb func(session.Change)) (unsubscribe func()) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	id := p.nextCBID
	p.nextCBID++
	p.cbs[id] = cb
	return func() {
		p.mutex.Lock()
		defer p.mutex.Unlock()
		delete(p.cbs, id)
	}
}

// Close stops the refresh loop and drops all subscribers. The persisted
// state file is left in place for the next run.
func (p *Provider) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.closed = true
	p.stopRefreshLocked()
	p.cbs = make(map[int]func(session.Change))
}

func (p *Provider) scheduleRefreshLocked(expiresAt time.Time) {
	p.stopRefreshLocked()

	wait := time.Until(expiresAt.Add(-refreshLead))
	if wait < 0 {
		wait = 0
	}
	p.refreshTimer = time.AfterFunc(wait, p.refresh)
}

func (p *Provider) stopRefreshLocked() {
	if p.refreshTimer != nil {
		p.refreshTimer.Stop()
		p.refreshTimer = nil
	}
}

// refresh re-issues token material for the current session and announces it
// as a TOKEN_REFRESHED change. The identity is untouched.
func (p *Provider) refresh() {
	p.mutex.Lock()
	if p.closed || p.current == nil {
		p.mutex.Unlock()
		return
	}
	usr, err := p.users.GetByID(context.Background(), p.current.Identity.ID)
	if err != nil || !usr.IsActive {
		// account gone or deactivated: end the session
		p.current = nil
		p.saveState(nil)
		p.stopRefreshLocked()
		cbs := p.callbacksLocked()
		p.mutex.Unlock()
		notify(cbs, session.Change{Kind: session.SignedOut})
		return
	}

	tokens, err := p.issueTokens(usr)
	if err != nil {
		p.logger.Error("refreshing tokens", err)
		p.stopRefreshLocked()
		p.refreshTimer = time.AfterFunc(refreshLead, p.refresh) // retry
		p.mutex.Unlock()
		return
	}
	p.current.Tokens = tokens
	p.saveState(p.current)
	p.scheduleRefreshLocked(tokens.ExpiresAt)
	cbs := p.callbacksLocked()
	copied := *p.current
	p.mutex.Unlock()

	notify(cbs, session.Change{Kind: session.TokenRefreshed, Session: &copied})
}

func (p *Provider) callbacksLocked() []func(session.Change) {
	cbs := make([]func(session.Change), 0, len(p.cbs))
	for _, cb := range p.cbs {
		cbs = append(cbs, cb)
	}
	return cbs
}

func notify(cbs []func(session.Change), change session.Change) {
	for _, cb := range cbs {
		cb(change)
	}
}
