package session

import (
	"context"
	"sync"
	"time"

	"github.com/mkundi/kampasi/core"
)

const (
	defaultVerifyTimeout = 5 * time.Second
	defaultLoadingGrace  = 8 * time.Second
)

// Controller is the single source of truth for "who is signed in and are
// they an admin", reconciled against an asynchronously-notifying Provider.
//
// Guarantees:
//   - the loading state always settles within LoadingGrace, whatever the
//     gateway does (fail-safe);
//   - the admin flag is never carried over from one identity to another
//     (fail-closed);
//   - a re-announcement of the identity already held only swaps token
//     material: no re-verification, no loading flicker;
//   - when notifications race, the newest one wins: an older verification
//     still in flight has its result discarded.
//
// One Controller per running application instance; create it at startup and
// Close it at shutdown.
type Controller struct {
	provider Provider
	gateway  AdminGateway
	logger   core.Logger

	verifyTimeout time.Duration
	loadingGrace  time.Duration

	mu          sync.Mutex
	state       State
	identity    *Identity
	tokens      Tokens
	isAdmin     bool
	loading     bool
	verifySeq   uint64 // bumped on every genuine identity change
	valve       *time.Timer
	unsubscribe func()
	observers   map[uint64]func(Snapshot)
	nextObsID   uint64
	closed      bool
}

type Option func(*Controller)

// WithVerifyTimeout bounds a single privilege verification round-trip.
func WithVerifyTimeout(d time.Duration) Option {
	return func(c *Controller) { c.verifyTimeout = d }
}

// WithLoadingGrace bounds total time spent loading before the safety valve
// forces the controller to settle with whatever it currently holds.
func WithLoadingGrace(d time.Duration) Option {
	return func(c *Controller) { c.loadingGrace = d }
}

func NewController(provider Provider, gateway AdminGateway, logger core.Logger, opts ...Option) *Controller {
	c := &Controller{
		provider:      provider,
		gateway:       gateway,
		logger:        logger,
		verifyTimeout: defaultVerifyTimeout,
		loadingGrace:  defaultLoadingGrace,
		state:         Uninitialized,
		loading:       true,
		observers:     make(map[uint64]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start performs initial session discovery and subscribes to provider change
// notifications. The subscription is registered before the persisted session
// is read so a change emitted during restoration is not missed; the
// persisted-session read is local, and only the privilege verification that
// may follow goes over the network, and that is bounded.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != Uninitialized {
		c.mu.Unlock()
		return nil
	}
	c.state = Verifying
	c.mu.Unlock()

	unsub := c.provider.OnChange(c.handleChange)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsub()
		return ErrClosed
	}
	c.unsubscribe = unsub
	seq := c.verifySeq
	c.mu.Unlock()

	sess, err := c.provider.PersistedSession()
	if err != nil {
		c.logger.Error("session: reading persisted session", err)
		sess = nil
	}

	c.mu.Lock()
	if c.closed || c.verifySeq != seq || c.identity != nil || c.state != Verifying {
		// a live notification already superseded the restored session
		c.mu.Unlock()
		return nil
	}
	if sess == nil {
		c.state = Anonymous
		c.stopLoadingLocked()
		snap, obs := c.snapshotLocked(), c.observersLocked()
		c.mu.Unlock()
		notify(obs, snap)
		return nil
	}
	id := sess.Identity
	c.identity = &id
	c.tokens = sess.Tokens
	c.verifySeq++
	vseq := c.verifySeq
	c.startLoadingLocked()
	snap, obs := c.snapshotLocked(), c.observersLocked()
	c.mu.Unlock()
	notify(obs, snap)
	go c.verify(vseq, id.ID)
	return nil
}

// Close unsubscribes from the provider and cancels any pending timers.
// In-flight verifications are abandoned; their results are discarded.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.verifySeq++
	if c.valve != nil {
		c.valve.Stop()
		c.valve = nil
	}
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.observers = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	return nil
}

// CurrentIdentity returns a copy of the held identity, or nil.
func (c *Controller) CurrentIdentity() *Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return nil
	}
	id := *c.identity
	return &id
}

func (c *Controller) IsAdmin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isAdmin
}

func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a consistent read of all observable fields.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to be called on every observable change. The
// returned function cancels the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return func() {}
	}
	c.nextObsID++
	id := c.nextObsID
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.observers != nil {
			delete(c.observers, id)
		}
	}
}

// SignIn authenticates with the provider, then verifies the admin flag.
// Valid credentials without the admin flag terminate the fresh session
// server-side and surface ErrNotAuthorized: a non-admin is never left
// authenticated. State updates flow through the provider's change stream.
func (c *Controller) SignIn(ctx context.Context, email, password string) (Identity, error) {
	sess, err := c.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return Identity{}, err
	}

	vctx, cancel := context.WithTimeout(ctx, c.verifyTimeout)
	defer cancel()
	admin, err := c.gateway.AdminFlag(vctx, sess.Identity.ID)
	if err != nil || !admin {
		if err != nil {
			c.logger.Error("session: sign-in privilege lookup failed", err)
		}
		if soErr := c.provider.SignOut(ctx); soErr != nil {
			c.logger.Error("session: terminating non-admin session", soErr)
		}
		return Identity{}, ErrNotAuthorized
	}
	return sess.Identity, nil
}

// SignOut clears the provider session; the resulting SignedOut notification
// transitions the controller to Anonymous.
func (c *Controller) SignOut(ctx context.Context) error {
	return c.provider.SignOut(ctx)
}

// handleChange processes one provider notification. Notifications are
// handled in delivery order; state mutation per notification happens under
// one critical section, and only the privilege fetch runs outside it.
func (c *Controller) handleChange(ch Change) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	// Token refreshes are inert on the state machine: only the opaque token
	// material is updated. A tab refocus must not re-trigger a full check.
	if ch.Kind == TokenRefreshed {
		if ch.Session != nil && c.identity != nil && ch.Session.Identity.ID == c.identity.ID {
			c.tokens = ch.Session.Tokens
		}
		c.mu.Unlock()
		return
	}

	var announced *Identity
	if ch.Session != nil {
		id := ch.Session.Identity
		announced = &id
	}

	// Same identity re-announced: swap tokens in place, nothing else.
	if announced != nil && c.identity != nil && announced.ID == c.identity.ID {
		c.tokens = ch.Session.Tokens
		c.mu.Unlock()
		return
	}

	if announced == nil {
		if c.identity == nil && !c.loading && c.state == Anonymous {
			// sign-out re-announced while already anonymous
			c.mu.Unlock()
			return
		}
		c.verifySeq++ // anything in flight is stale now
		c.identity = nil
		c.tokens = Tokens{}
		c.startLoadingLocked()
		pending, obs := c.snapshotLocked(), c.observersLocked()
		c.isAdmin = false
		c.state = Anonymous
		c.stopLoadingLocked()
		settled := c.snapshotLocked()
		c.mu.Unlock()
		notify(obs, pending)
		notify(obs, settled)
		return
	}

	// Genuine identity change: clear the stale privilege flag and re-verify.
	c.verifySeq++
	seq := c.verifySeq
	c.identity = announced
	c.tokens = ch.Session.Tokens
	c.isAdmin = false
	c.state = Verifying
	c.startLoadingLocked()
	snap, obs := c.snapshotLocked(), c.observersLocked()
	c.mu.Unlock()
	notify(obs, snap)

	go c.verify(seq, announced.ID)
}

// verify resolves the privilege flag for the identity that triggered seq.
// The result only applies if no newer notification superseded it meanwhile.
func (c *Controller) verify(seq uint64, userID string) {
	admin := c.fetchAdminFlag(userID)

	c.mu.Lock()
	if c.closed || seq != c.verifySeq || c.identity == nil || c.identity.ID != userID {
		c.mu.Unlock()
		return // stale result, discard silently
	}
	c.isAdmin = admin
	c.state = Authenticated
	c.stopLoadingLocked()
	snap, obs := c.snapshotLocked(), c.observersLocked()
	c.mu.Unlock()
	notify(obs, snap)
}

// fetchAdminFlag races the gateway lookup against verifyTimeout. Timeouts
// and errors resolve to false: fail closed for privilege, fail open for
// forward progress. The lookup is abandoned on timeout, not cancelled at
// the transport level; a late result is simply dropped.
func (c *Controller) fetchAdminFlag(userID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.verifyTimeout)
	defer cancel()

	type result struct {
		admin bool
		err   error
	}
	done := make(chan result, 1)
	go func() {
		admin, err := c.gateway.AdminFlag(ctx, userID)
		done <- result{admin, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			c.logger.Error("session: privilege verification failed", res.err)
			return false
		}
		return res.admin
	case <-ctx.Done():
		c.logger.Warn("session: privilege verification timed out")
		return false
	}
}

// startLoadingLocked flips loading on and arms the safety valve: whatever
// happens upstream, the loading state is forced to settle after
// loadingGrace.
func (c *Controller) startLoadingLocked() {
	c.loading = true
	if c.valve == nil {
		c.valve = time.AfterFunc(c.loadingGrace, c.forceReady)
	}
}

func (c *Controller) stopLoadingLocked() {
	c.loading = false
	if c.valve != nil {
		c.valve.Stop()
		c.valve = nil
	}
}

// forceReady is the safety valve: it settles the controller with whatever
// it currently holds so the UI never hangs on a spinner.
func (c *Controller) forceReady() {
	c.mu.Lock()
	if c.closed || !c.loading {
		c.mu.Unlock()
		return
	}
	c.logger.Warn("session: loading did not settle in time; forcing ready")
	c.verifySeq++ // discard whatever is still in flight
	c.valve = nil
	c.loading = false
	if c.identity == nil {
		c.state = Anonymous
	} else {
		c.state = Authenticated
	}
	snap, obs := c.snapshotLocked(), c.observersLocked()
	c.mu.Unlock()
	notify(obs, snap)
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:   c.state,
		IsAdmin: c.isAdmin,
		Loading: c.loading,
	}
	if c.identity != nil {
		id := *c.identity
		snap.Identity = &id
	}
	return snap
}

func (c *Controller) observersLocked() []func(Snapshot) {
	obs := make([]func(Snapshot), 0, len(c.observers))
	for _, fn := range c.observers {
		obs = append(obs, fn)
	}
	return obs
}

func notify(observers []func(Snapshot), snap Snapshot) {
	for _, fn := range observers {
		fn(snap)
	}
}
