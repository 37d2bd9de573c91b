package identitysvc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mkundi/kampasi/core"
	"github.com/mkundi/kampasi/core/session"
	"github.com/mkundi/kampasi/core/user"
	emailsvc "github.com/mkundi/kampasi/services/email"
	inmemdb "github.com/mkundi/kampasi/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func newTestProvider(t *testing.T) (*Provider, *user.Service, *core.Config) {
	t.Helper()

	conf := *core.Conf
	conf.Session.StateFile = filepath.Join(t.TempDir(), "session.json")

	db := inmemdb.Open()
	users := user.NewService(inmemdb.NewUserRepository(db), emailsvc.NewConsoleServiceMock(), nopLogger{})
	return NewProvider(users, nopLogger{}, &conf), users, &conf
}

func seedUser(t *testing.T, users *user.Service, email string, isAdmin bool) user.User {
	t.Helper()
	usr, err := users.Create(context.Background(), user.NewUser{
		Name:            "Dean Castro",
		Email:           email,
		IsAdmin:         isAdmin,
		Password:        "S3cret!pass",
		PasswordConfirm: "S3cret!pass",
	})
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return usr
}

func TestSignInWithPassword(t *testing.T) {
	provider, users, conf := newTestProvider(t)
	defer provider.Close()
	usr := seedUser(t, users, "dean@wvsu.test", true)

	var changes []session.Change
	unsub := provider.OnChange(func(c session.Change) { changes = append(changes, c) })
	defer unsub()

	t.Run("invalid credentials", func(t *testing.T) {
		_, err := provider.SignInWithPassword(context.Background(), "dean@wvsu.test", "nope")
		if err != session.ErrInvalidCredentials {
			t.Errorf("SignInWithPassword() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := provider.SignInWithPassword(context.Background(), "ghost@wvsu.test", "S3cret!pass")
		if err != session.ErrInvalidCredentials {
			t.Errorf("SignInWithPassword() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		sess, err := provider.SignInWithPassword(context.Background(), "dean@wvsu.test", "S3cret!pass")
		if err != nil {
			t.Fatalf("SignInWithPassword() failed: %v", err)
		}
		if sess.Identity.ID != usr.ID || sess.Identity.Email != usr.Email {
			t.Errorf("session identity = %+v", sess.Identity)
		}
		if sess.Tokens.Access == "" || sess.Tokens.Refresh == "" {
			t.Error("session tokens not issued")
		}
		if !sess.Tokens.ExpiresAt.After(time.Now()) {
			t.Error("access token already expired")
		}

		if len(changes) != 1 || changes[0].Kind != session.SignedIn {
			t.Errorf("changes = %+v, want one SIGNED_IN", changes)
		}
		if _, err := os.Stat(conf.Session.StateFile); err != nil {
			t.Errorf("state file not written: %v", err)
		}
	})
}

func TestPersistedSessionSurvivesRestart(t *testing.T) {
	provider, users, conf := newTestProvider(t)
	usr := seedUser(t, users, "dean@wvsu.test", true)

	if _, err := provider.SignInWithPassword(context.Background(), "dean@wvsu.test", "S3cret!pass"); err != nil {
		t.Fatalf("SignInWithPassword() failed: %v", err)
	}
	provider.Close()

	// a fresh provider over the same state file sees the session without
	// any network round-trip
	restarted := NewProvider(users, nopLogger{}, conf)
	defer restarted.Close()

	sess, err := restarted.PersistedSession()
	if err != nil {
		t.Fatalf("PersistedSession() failed: %v", err)
	}
	if sess == nil || sess.Identity.ID != usr.ID {
		t.Fatalf("PersistedSession() = %+v, want restored session", sess)
	}
}

func TestSignOut(t *testing.T) {
	provider, users, conf := newTestProvider(t)
	defer provider.Close()
	seedUser(t, users, "dean@wvsu.test", true)

	if _, err := provider.SignInWithPassword(context.Background(), "dean@wvsu.test", "S3cret!pass"); err != nil {
		t.Fatalf("SignInWithPassword() failed: %v", err)
	}

	var changes []session.Change
	unsub := provider.OnChange(func(c session.Change) { changes = append(changes, c) })
	defer unsub()

	if err := provider.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut() failed: %v", err)
	}
	if len(changes) != 1 || changes[0].Kind != session.SignedOut || changes[0].Session != nil {
		t.Errorf("changes = %+v, want one SIGNED_OUT with nil session", changes)
	}
	if _, err := os.Stat(conf.Session.StateFile); !os.IsNotExist(err) {
		t.Error("state file not removed on sign-out")
	}
	if sess, _ := provider.PersistedSession(); sess != nil {
		t.Errorf("PersistedSession() = %+v after sign-out", sess)
	}

	// repeated sign-out is a no-op
	if err := provider.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut() failed: %v", err)
	}
	if len(changes) != 1 {
		t.Errorf("changes = %+v, want no extra notification", changes)
	}
}

// The provider, user service and controller assembled the way the CLI wires
// them: an admin ends up authenticated, a plain user is signed back out.
func TestControllerOverProvider(t *testing.T) {
	provider, users, _ := newTestProvider(t)
	defer provider.Close()
	admin := seedUser(t, users, "dean@wvsu.test", true)
	seedUser(t, users, "student@wvsu.test", false)

	ctrl := session.NewController(provider, users, nopLogger{})
	ctrl.Start()
	defer ctrl.Close()

	if _, err := ctrl.SignIn(context.Background(), "student@wvsu.test", "S3cret!pass"); err != session.ErrNotAuthorized {
		t.Fatalf("SignIn() error = %v, want ErrNotAuthorized", err)
	}
	if sess, _ := provider.PersistedSession(); sess != nil {
		t.Error("non-admin session was not revoked")
	}

	if _, err := ctrl.SignIn(context.Background(), "dean@wvsu.test", "S3cret!pass"); err != nil {
		t.Fatalf("SignIn() failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := ctrl.Snapshot()
		if !snap.Loading && snap.State == session.Authenticated {
			if !snap.IsAdmin || snap.Identity == nil || snap.Identity.ID != admin.ID {
				t.Fatalf("snapshot = %+v", snap)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("controller never settled: %+v", snap)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
