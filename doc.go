// Package session implements the client-side authentication lifecycle for
// the Gigzy marketplace API: token storage, refresh-on-401 interception,
// state rehydration, and role-based route gating.
//
// Session lifecycle:
//   - Manager is the single source of truth for the session (principal,
//     bearer token, status flags). Operations map one-to-one to the
//     backend's auth surface: Register, Login, Logout, Refresh,
//     CurrentUser, UpdateProfile, plus Restore for rehydration at process
//     start. The Manager is the sole writer of the persisted credential
//     record (CredentialStore).
//   - Transport is the outgoing-request pipeline. It attaches the current
//     bearer token to every request and, on a 401, performs exactly one
//     coalesced refresh before resending the original request once. All
//     concurrently failing requests share the same in-flight refresh.
//   - Guard decides page admission from a session snapshot: wait while
//     rehydration settles, redirect anonymous visitors to the login route,
//     redirect wrong-roled visitors to their role's dashboard, otherwise
//     render. RouteGuard and FiberGuard adapt it to middleware.
//
// Session events:
//   - EventSink is a light-weight audit emitter the Manager feeds with
//     login, logout, refresh, restore, and expiry events. Sinks run
//     best-effort (errors are logged) so you can forward to a database or
//     queue without blocking authentication.
//
// The backend stays authoritative for everything else: the client never
// mints or verifies tokens, it only carries them.
package session
