package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mkundi/kampasi/core"
	"github.com/mkundi/kampasi/core/session"
	identitysvc "github.com/mkundi/kampasi/services/identity"
)

// guardPollInterval paces the wait for session verification to settle.
const guardPollInterval = 50 * time.Millisecond

func (cli *commandLine) newSessionController() (*session.Controller, func(), error) {
	provider := identitysvc.NewProvider(cli.usrSvc, cli.logger, core.Conf)
	ctrl := session.NewController(provider, cli.usrSvc, cli.logger)
	if err := ctrl.Start(); err != nil {
		provider.Close()
		return nil, nil, err
	}
	teardown := func() {
		_ = ctrl.Close()
		provider.Close()
	}
	return ctrl, teardown, nil
}

// login signs in, persisting the session for later commands. Non-admin
// accounts are refused.
func (cli *commandLine) login(email, pwd string) error {
	ctrl, teardown, err := cli.newSessionController()
	if err != nil {
		return err
	}
	defer teardown()

	ident, err := ctrl.SignIn(context.Background(), email, pwd)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", ident.Email)
	return nil
}

func (cli *commandLine) logout() error {
	provider := identitysvc.NewProvider(cli.usrSvc, cli.logger, core.Conf)
	defer provider.Close()

	if err := provider.SignOut(context.Background()); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

// whoami reports the persisted admin session, if any. It waits for the
// controller to finish verifying the restored session before deciding.
func (cli *commandLine) whoami() error {
	ctrl, teardown, err := cli.newSessionController()
	if err != nil {
		return err
	}
	defer teardown()

	guard := session.NewGuard(ctrl, "/signin")
	deadline := time.Now().Add(core.Conf.Session.LoadingGrace)

	verdict := guard.Evaluate("/whoami")
	for verdict.Decision == session.DecisionWait && time.Now().Before(deadline) {
		time.Sleep(guardPollInterval)
		verdict = guard.Evaluate("/whoami")
	}

	if verdict.Decision != session.DecisionAllow {
		fmt.Println("Not signed in; run \"admin login\" first")
		return nil
	}
	ident := ctrl.CurrentIdentity()
	fmt.Printf("Signed in as %s (admin, user %s)\n", ident.Email, ident.ID)
	return nil
}
