package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct{}

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

type fakeGateway struct {
	mu    sync.Mutex
	calls int
	flags map[string]bool
	err   error
	// block, when set for a user ID, delays that lookup until the channel
	// is closed (or the context expires)
	block map[string]chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{flags: make(map[string]bool), block: make(map[string]chan struct{})}
}

func (g *fakeGateway) AdminFlag(ctx context.Context, userID string) (bool, error) {
	g.mu.Lock()
	g.calls++
	blocker := g.block[userID]
	flag := g.flags[userID]
	err := g.err
	g.mu.Unlock()

	if blocker != nil {
		select {
		case <-blocker:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return flag, err
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeProvider struct {
	mu           sync.Mutex
	persisted    *Session
	persistedErr error
	// onPersistedRead, when set, runs during the persisted-session read,
	// before the result is returned
	onPersistedRead func()
	signInSess   *Session
	signInErr    error
	signOutCalls int
	cbs          map[int]func(Change)
	nextCB       int
	unsubscribed bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{cbs: make(map[int]func(Change))}
}

func (p *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	p.mu.Lock()
	sess, err := p.signInSess, p.signInErr
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	p.emit(Change{Kind: SignedIn, Session: sess})
	return sess, nil
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.signOutCalls++
	p.mu.Unlock()
	p.emit(Change{Kind: SignedOut})
	return nil
}

func (p *fakeProvider) PersistedSession() (*Session, error) {
	p.mu.Lock()
	sess, err := p.persisted, p.persistedErr
	hook := p.onPersistedRead
	p.mu.Unlock()
	if hook != nil {
		hook()
	}
	return sess, err
}

func (p *fakeProvider) OnChange(cb func(Change)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextCB++
	id := p.nextCB
	p.cbs[id] = cb
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.cbs, id)
		p.unsubscribed = true
	}
}

func (p *fakeProvider) emit(ch Change) {
	p.mu.Lock()
	cbs := make([]func(Change), 0, len(p.cbs))
	for _, cb := range p.cbs {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()
	for _, cb := range cbs {
		cb(ch)
	}
}

func sessionFor(id, email string) *Session {
	return &Session{
		Identity: Identity{ID: id, Email: email},
		Tokens:   Tokens{Access: "acc-" + id, Refresh: "ref-" + id, ExpiresAt: time.Now().Add(time.Hour).UTC()},
	}
}

func waitSettled(t *testing.T, c *Controller) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !c.IsLoading() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("controller did not settle in time")
}

func newTestController(p Provider, g AdminGateway, opts ...Option) *Controller {
	base := []Option{WithVerifyTimeout(200 * time.Millisecond), WithLoadingGrace(time.Second)}
	return NewController(p, g, testLogger{}, append(base, opts...)...)
}

func TestController_startWithoutPersistedSession(t *testing.T) {
	provider := newFakeProvider()
	gateway := newFakeGateway()
	c := newTestController(provider, gateway)
	defer c.Close()

	require.NoError(t, c.Start())

	assert.Equal(t, Anonymous, c.State())
	assert.False(t, c.IsLoading())
	assert.False(t, c.IsAdmin())
	assert.Nil(t, c.CurrentIdentity())
	assert.Equal(t, 0, gateway.callCount())
}

func TestController_startWithPersistedAdminSession(t *testing.T) {
	provider := newFakeProvider()
	provider.persisted = sessionFor("u1", "dean@campus.test")
	gateway := newFakeGateway()
	gateway.flags["u1"] = true

	c := newTestController(provider, gateway)
	defer c.Close()
	require.NoError(t, c.Start())
	waitSettled(t, c)

	assert.Equal(t, Authenticated, c.State())
	assert.True(t, c.IsAdmin())
	require.NotNil(t, c.CurrentIdentity())
	assert.Equal(t, "u1", c.CurrentIdentity().ID)
}

func TestController_tokenRefreshIsInert(t *testing.T) {
	provider := newFakeProvider()
	provider.persisted = sessionFor("u1", "dean@campus.test")
	gateway := newFakeGateway()
	gateway.flags["u1"] = true

	c := newTestController(provider, gateway)
	defer c.Close()
	require.NoError(t, c.Start())
	waitSettled(t, c)
	verified := gateway.callCount()

	refreshed := sessionFor("u1", "dean@campus.test")
	refreshed.Tokens.Access = "acc-u1-fresh"
	for i := 0; i < 5; i++ {
		provider.emit(Change{Kind: TokenRefreshed, Session: refreshed})
		assert.False(t, c.IsLoading(), "token refresh must not toggle loading")
	}

	assert.Equal(t, verified, gateway.callCount(), "token refresh must not re-verify privilege")
	assert.True(t, c.IsAdmin())
	assert.Equal(t, Authenticated, c.State())
}

func TestController_sameIdentityReannounced(t *testing.T) {
	provider := newFakeProvider()
	provider.persisted = sessionFor("u1", "dean@campus.test")
	gateway := newFakeGateway()
	gateway.flags["u1"] = true

	c := newTestController(provider, gateway)
	defer c.Close()
	require.NoError(t, c.Start())
	waitSettled(t, c)
	verified := gateway.callCount()

	// provider re-announces the same identity, e.g. on tab refocus
	provider.emit(Change{Kind: SignedIn, Session: sessionFor("u1", "dean@campus.test")})
	provider.emit(Change{Kind: SignedIn, Session: sessionFor("u1", "dean@campus.test")})

	assert.False(t, c.IsLoading())
	assert.Equal(t, verified, gateway.callCount())
}

func TestController_signedOut(t *testing.T) {
	provider := newFakeProvider()
	provider.persisted = sessionFor("u1", "dean@campus.test")
	gateway := newFakeGateway()
	gateway.flags["u1"] = true

	c := newTestController(provider, gateway)
	defer c.Close()
	require.NoError(t, c.Start())
	waitSettled(t, c)

	var snaps []Snapshot
	cancel := c.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })
	defer cancel()

	provider.emit(Change{Kind: SignedOut})

	assert.Nil(t, c.CurrentIdentity())
	assert.False(t, c.IsAdmin())
	assert.False(t, c.IsLoading())
	assert.Equal(t, Anonymous, c.State())

	// loading must have been transiently true, then settled
	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].Loading)
	assert.False(t, snaps[1].Loading)
	assert.Nil(t, snaps[1].Identity)
}

func TestController_hungVerificationFailsClosed(t *testing.T) {
	provider := newFakeProvider()
	provider.persisted = sessionFor("u1", "dean@campus.test")
	gateway := newFakeGateway()
	gateway.flags["u1"] = true
	gateway.block["u1"] = make(chan struct{}) // never closed

	c := newTestController(provider, gateway, WithVerifyTimeout(50*time.Millisecond))
	defer c.Close()
	require.NoError(t, c.Start())
	waitSettled(t, c)

	assert.False(t, c.IsAdmin(), "privilege must fail closed on timeout")
	assert.Equal(t, Authenticated, c.State())
	require.NotNil(t, c.CurrentIdentity())
}

func TestController_safetyValveForcesReady(t *testing.T) {
	provider := newFakeProvider()
	provider.persisted = sessionFor("u1", "dean@campus.test")
	gateway := newFakeGateway()
	gateway.flags["u1"] = true
	gateway.block["u1"] = make(chan struct{})

	// verification effectively unbounded; only the valve can settle us
	c := newTestController(provider, gateway,
		WithVerifyTimeout(time.Minute),
		WithLoadingGrace(50*time.Millisecond),
	)
	defer c.Close()
	require.NoError(t, c.Start())
	waitSettled(t, c)

	assert.False(t, c.IsLoading())
	assert.False(t, c.IsAdmin())
	assert.Equal(t, Authenticated, c.State())
}

func TestController_staleVerificationDiscarded(t *testing.T) {
	provider := newFakeProvider()
	gateway := newFakeGateway()
	gateway.flags["a"] = true // would grant admin if ever applied
	gateway.flags["b"] = false
	blockA := make(chan struct{})
	gateway.block["a"] = blockA

	c := newTestController(provider, gateway, WithVerifyTimeout(time.Second))
	defer c.Close()
	require.NoError(t, c.Start())

	provider.emit(Change{Kind: SignedIn, Session: sessionFor("a", "a@campus.test")})
	provider.emit(Change{Kind: SignedIn, Session: sessionFor("b", "b@campus.test")})
	waitSettled(t, c)

	require.NotNil(t, c.CurrentIdentity())
	assert.Equal(t, "b", c.CurrentIdentity().ID)
	assert.False(t, c.IsAdmin())

	// A's verification resolves only now; its result must be dropped
	close(blockA)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, "b", c.CurrentIdentity().ID)
	assert.False(t, c.IsAdmin(), "stale result must not overwrite the newer state")
	assert.False(t, c.IsLoading())
}

func TestController_signInNotAuthorized(t *testing.T) {
	provider := newFakeProvider()
	provider.signInSess = sessionFor("u2", "clerk@campus.test")
	gateway := newFakeGateway()
	gateway.flags["u2"] = false

	c := newTestController(provider, gateway)
	defer c.Close()
	require.NoError(t, c.Start())

	_, err := c.SignIn(context.Background(), "clerk@campus.test", "pa$$word")
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Equal(t, 1, provider.signOutCalls, "non-admin session must be terminated")
	waitSettled(t, c)
	assert.Nil(t, c.CurrentIdentity())
}

func TestController_signInInvalidCredentials(t *testing.T) {
	provider := newFakeProvider()
	provider.signInErr = ErrInvalidCredentials
	gateway := newFakeGateway()

	c := newTestController(provider, gateway)
	defer c.Close()
	require.NoError(t, c.Start())

	_, err := c.SignIn(context.Background(), "dean@campus.test", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 0, provider.signOutCalls)
}

func TestController_signInSuccess(t *testing.T) {
	provider := newFakeProvider()
	provider.signInSess = sessionFor("u1", "dean@campus.test")
	gateway := newFakeGateway()
	gateway.flags["u1"] = true

	c := newTestController(provider, gateway)
	defer c.Close()
	require.NoError(t, c.Start())

	id, err := c.SignIn(context.Background(), "dean@campus.test", "pa$$word")
	require.NoError(t, err)
	assert.Equal(t, "u1", id.ID)

	waitSettled(t, c)
	assert.Equal(t, Authenticated, c.State())
	assert.True(t, c.IsAdmin())
}

func TestController_changeDuringRestorationWins(t *testing.T) {
	provider := newFakeProvider()
	provider.persisted = sessionFor("u1", "dean@campus.test")
	provider.onPersistedRead = func() {
		provider.emit(Change{Kind: SignedIn, Session: sessionFor("u2", "registrar@campus.test")})
	}
	gateway := newFakeGateway()
	gateway.flags["u1"] = true // must never be applied
	gateway.flags["u2"] = false

	c := newTestController(provider, gateway)
	defer c.Close()
	require.NoError(t, c.Start())
	waitSettled(t, c)

	require.NotNil(t, c.CurrentIdentity())
	assert.Equal(t, "u2", c.CurrentIdentity().ID, "the live sign-in must supersede the restored session")
	assert.False(t, c.IsAdmin())
	assert.Equal(t, Authenticated, c.State())
}

func TestController_closeUnsubscribesAndDropsEvents(t *testing.T) {
	provider := newFakeProvider()
	gateway := newFakeGateway()
	gateway.flags["u1"] = true

	c := newTestController(provider, gateway)
	require.NoError(t, c.Start())
	require.NoError(t, c.Close())

	assert.True(t, provider.unsubscribed)

	provider.emit(Change{Kind: SignedIn, Session: sessionFor("u1", "dean@campus.test")})
	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, c.CurrentIdentity())
	assert.Equal(t, 0, gateway.callCount())
}
