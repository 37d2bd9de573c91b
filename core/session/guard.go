package session

import "net/url"

// Decision is the outcome of a protected-route evaluation.
type Decision int

const (
	// DecisionWait: verification is in flight; render a neutral waiting
	// indicator and make no redirect decision yet.
	DecisionWait Decision = iota
	// DecisionRedirect: send the caller to the sign-in view.
	DecisionRedirect
	// DecisionAllow: render the protected content.
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionRedirect:
		return "REDIRECT"
	case DecisionAllow:
		return "ALLOW"
	}
	return "WAIT"
}

// Verdict is a Decision plus, for redirects, the target location carrying
// the originally requested one so the caller can return there post sign-in.
type Verdict struct {
	Decision Decision
	Target   string
}

// Guard gates protected views on the controller's observable fields. It is
// stateless: each Evaluate is a pure projection of one controller snapshot
// plus the current navigation location.
type Guard struct {
	sessions   *Controller
	signInPath string
}

func NewGuard(ctrl *Controller, signInPath string) *Guard {
	if signInPath == "" {
		signInPath = "/login"
	}
	return &Guard{sessions: ctrl, signInPath: signInPath}
}

// Evaluate decides what to do with a request for a protected location.
// While loading, no redirect decision is made: redirecting against an
// in-flight verification would race it.
func (g *Guard) Evaluate(location string) Verdict {
	snap := g.sessions.Snapshot()
	if snap.Loading {
		return Verdict{Decision: DecisionWait}
	}
	if snap.Identity == nil || !snap.IsAdmin {
		target := g.signInPath
		if location != "" && location != g.signInPath {
			target += "?next=" + url.QueryEscape(location)
		}
		return Verdict{Decision: DecisionRedirect, Target: target}
	}
	return Verdict{Decision: DecisionAllow}
}
