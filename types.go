package session

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// CredentialStore is the durable mirror of the session's {token, principal}
// pair. It exists only to rehydrate a session at process start; while the
// process runs the in-memory state is the source of truth.
type CredentialStore interface {
	Read(ctx context.Context) (Credentials, error)
	Write(ctx context.Context, creds Credentials) error
	Wipe(ctx context.Context) error
}

// Config holds session client options
type Config interface {
	GetBaseURL() string
	GetHTTPTimeout() time.Duration
	GetLoginRoute() string
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
}

// SessionSource is the slice of the Manager the transport needs: the
// current bearer token and the coalesced refresh operation.
type SessionSource interface {
	Token() string
	Refresh(ctx context.Context) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
