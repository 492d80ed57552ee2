package adminclient

import "context"

// AuthState is the tagged outcome of a route-guard check. A guard starts in
// StatePending and must reach one of the other two states before any
// navigation decision is made, so protected content is never shown ahead of
// verification.
type AuthState int

const (
	StatePending AuthState = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s AuthState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// GuardResult is the decision for one navigation.
type GuardResult struct {
	State AuthState
	User  *Identity
	// Redirect is set when the caller should navigate away: to the login
	// page from a protected route, or to the panel from a public one.
	Redirect string
}

const (
	LoginRoute = "/login"
	PanelRoute = "/userpanel"
)

// CheckAccess is the protected-route guard: probe the auth status, and on
// failure attempt exactly one refresh before giving up. Any probe failure
// (including transport errors) counts as unauthenticated; there is no
// retry loop, which keeps a dead backend from looping the UI forever.
func (c *Client) CheckAccess(ctx context.Context) GuardResult {
	status, err := c.Status(ctx)
	if err == nil && status.Authenticated {
		return GuardResult{State: StateAuthenticated, User: status.User}
	}

	if err := c.Refresh(ctx); err != nil {
		return GuardResult{State: StateUnauthenticated, Redirect: LoginRoute}
	}

	status, err = c.Status(ctx)
	if err != nil || !status.Authenticated {
		return GuardResult{State: StateUnauthenticated, Redirect: LoginRoute}
	}

	return GuardResult{State: StateAuthenticated, User: status.User}
}

// CheckPublic is the login/register-route guard: an already-authenticated
// caller is sent to the panel instead of being shown the form.
func (c *Client) CheckPublic(ctx context.Context) GuardResult {
	status, err := c.Status(ctx)
	if err == nil && status.Authenticated {
		return GuardResult{State: StateAuthenticated, User: status.User, Redirect: PanelRoute}
	}
	return GuardResult{State: StateUnauthenticated}
}
