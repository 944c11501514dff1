package session

// DecisionAction is the outcome of a guard evaluation.
type DecisionAction int

const (
	// DecisionLoading means the session has not settled; render nothing
	// but a neutral placeholder, never protected content or a redirect.
	DecisionLoading DecisionAction = iota
	// DecisionAllow means the wrapped content may render.
	DecisionAllow
	// DecisionRedirect means the visitor must be sent to Target.
	DecisionRedirect
)

// Decision is a guard verdict. Target is set only for DecisionRedirect.
type Decision struct {
	Action DecisionAction
	Target string
}

// Guard is the admission-control kernel for a protected page: given a
// required role set (empty meaning any authenticated user) it decides,
// from a session snapshot alone, whether to render, redirect, or wait.
// It never mutates session state, so it is safe to re-evaluate on every
// snapshot a subscription delivers.
type Guard struct {
	AllowedRoles []Role
	LoginRoute   string
}

// NewGuard creates a Guard admitting the given roles.
func NewGuard(roles ...Role) *Guard {
	return &Guard{
		AllowedRoles: roles,
		LoginRoute:   "/login",
	}
}

// WithLoginRoute overrides the unauthenticated redirect target.
func (g *Guard) WithLoginRoute(route string) *Guard {
	if route != "" {
		g.LoginRoute = route
	}
	return g
}

// Evaluate decides admission for a snapshot.
func (g *Guard) Evaluate(st State) Decision {
	if !st.Restored || st.Loading {
		return Decision{Action: DecisionLoading}
	}

	if !st.Authenticated {
		return Decision{Action: DecisionRedirect, Target: g.loginRoute()}
	}

	if len(g.AllowedRoles) > 0 && !g.roleAllowed(st.Role()) {
		return Decision{Action: DecisionRedirect, Target: DashboardPath(st.Role())}
	}

	return Decision{Action: DecisionAllow}
}

func (g *Guard) roleAllowed(role Role) bool {
	for _, allowed := range g.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

func (g *Guard) loginRoute() string {
	if g.LoginRoute == "" {
		return "/login"
	}
	return g.LoginRoute
}
