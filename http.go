package session

import (
	"net/http"
	"time"

	"github.com/goliatone/go-router"
)

// RouteGuard adapts Guard decisions to go-router middleware. It ensures
// the session has rehydrated before deciding, redirects unauthenticated
// visitors to the login route (remembering where they were headed), and
// sends wrong-roled visitors to their role's dashboard.
type RouteGuard struct {
	session *Manager
	cfg     Config
	Logger  Logger
}

// NewRouteGuard creates a guard adapter bound to a session manager.
func NewRouteGuard(session *Manager, cfg Config) *RouteGuard {
	return &RouteGuard{
		session: session,
		cfg:     cfg,
		Logger:  defLogger{},
	}
}

// Protected gates a route behind the given roles; no roles means any
// authenticated visitor. Re-evaluated per request, so a session expired by
// a background refresh failure evicts the visitor on their next request.
func (g *RouteGuard) Protected(roles ...Role) router.MiddlewareFunc {
	guard := NewGuard(roles...).WithLoginRoute(g.cfg.GetLoginRoute())

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			st := g.session.State()
			if !st.Restored {
				st = g.session.Restore(ctx.Context())
			}

			switch decision := guard.Evaluate(st); decision.Action {
			case DecisionAllow:
				return hf(ctx)
			case DecisionLoading:
				// an auth operation is mid-flight; decide on the settled
				// part of the snapshot rather than flash content
				if !st.Authenticated {
					g.SetRedirect(ctx)
					return g.redirect(ctx, guard.loginRoute())
				}
				return hf(ctx)
			default:
				if decision.Target == guard.loginRoute() {
					g.SetRedirect(ctx)
				}
				g.Logger.Info("route guard redirect %s -> %s", ctx.OriginalURL(), decision.Target)
				return g.redirect(ctx, decision.Target)
			}
		}
	}
}

// GetRedirect returns the remembered rejected route, or def when none was
// set.
func (g *RouteGuard) GetRedirect(ctx router.Context, def ...string) string {
	rejectedRoute := g.cfg.GetRejectedRouteKey()
	r := ctx.Cookies(rejectedRoute)
	if r == "" {
		return def[0]
	}
	g.cookieDel(ctx, rejectedRoute)
	return r
}

// GetRedirectOrDefault returns the remembered rejected route, falling back
// to the referer and then the configured default.
func (g *RouteGuard) GetRedirectOrDefault(ctx router.Context) string {
	rejectedRoute := g.cfg.GetRejectedRouteKey()
	refererHeader := string(ctx.Referer())

	r := ctx.Cookies(rejectedRoute, refererHeader)
	if r == "" {
		r = g.cfg.GetRejectedRouteDefault()
	}
	g.cookieDel(ctx, rejectedRoute)
	return r
}

// SetRedirect remembers the route a visitor was rejected from so login can
// send them back.
func (g *RouteGuard) SetRedirect(ctx router.Context) {
	rejectedRoute := g.cfg.GetRejectedRouteKey()

	ctx.Cookie(&router.Cookie{
		Name:     rejectedRoute,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (g *RouteGuard) redirect(ctx router.Context, target string) error {
	statusCode := http.StatusSeeOther
	if ctx.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return ctx.Redirect(target, statusCode)
}

func (g *RouteGuard) cookieDel(ctx router.Context, name string) {
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}
