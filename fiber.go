package session

import (
	"github.com/gofiber/fiber/v2"
)

const fiberStateKey = "session_state"

// FiberGuard gates fiber routes the same way RouteGuard gates go-router
// ones, for apps that use fiber directly.
type FiberGuard struct {
	session *Manager
	cfg     Config
}

// NewFiberGuard creates a fiber guard adapter.
func NewFiberGuard(session *Manager, cfg Config) *FiberGuard {
	return &FiberGuard{session: session, cfg: cfg}
}

// Protected returns a fiber handler gating the route behind the given
// roles. The settled snapshot is stored in locals under "session_state"
// for downstream handlers.
func (g *FiberGuard) Protected(roles ...Role) fiber.Handler {
	guard := NewGuard(roles...).WithLoginRoute(g.cfg.GetLoginRoute())

	return func(c *fiber.Ctx) error {
		st := g.session.State()
		if !st.Restored {
			st = g.session.Restore(c.Context())
		}

		switch decision := guard.Evaluate(st); decision.Action {
		case DecisionAllow:
			c.Locals(fiberStateKey, st)
			return c.Next()
		case DecisionLoading:
			if !st.Authenticated {
				return c.Redirect(guard.loginRoute(), fiber.StatusFound)
			}
			c.Locals(fiberStateKey, st)
			return c.Next()
		default:
			return c.Redirect(decision.Target, fiber.StatusFound)
		}
	}
}

// StateFromFiber returns the snapshot a FiberGuard stored for the request.
func StateFromFiber(c *fiber.Ctx) (State, bool) {
	st, ok := c.Locals(fiberStateKey).(State)
	return st, ok
}
