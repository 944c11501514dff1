package session

import (
	"context"
	"io"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type ctxKey int

const retryExemptKey ctxKey = iota

// retryExempt marks a request so the transport skips 401 recovery for it.
// The auth endpoints themselves are exempt: a 401 on /auth/login means bad
// credentials, and a 401 on /auth/refresh must not recurse into refresh.
func retryExempt(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryExemptKey, true)
}

func isRetryExempt(ctx context.Context) bool {
	exempt, _ := ctx.Value(retryExemptKey).(bool)
	return exempt
}

// Transport is the outgoing-request pipeline: it attaches the current
// bearer token to every request and, on a 401, performs exactly one
// coalesced refresh before resending the original request once. A second
// 401 propagates to the caller unmodified; a failed refresh clears the
// session (the Manager's refresh path owns that) and fails the call with a
// typed auth-expired error.
type Transport struct {
	Base    http.RoundTripper
	session SessionSource
	logger  Logger
	now     func() time.Time
}

var _ http.RoundTripper = &Transport{}

// NewTransport creates a Transport bound to a session source.
func NewTransport(source SessionSource) *Transport {
	return &Transport{
		session: source,
		logger:  defLogger{},
		now:     time.Now,
	}
}

// WithLogger sets the transport logger.
func (t *Transport) WithLogger(logger Logger) *Transport {
	if logger != nil {
		t.logger = logger
	}
	return t
}

// WithBase sets the underlying RoundTripper.
func (t *Transport) WithBase(base http.RoundTripper) *Transport {
	t.Base = base
	return t
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	exempt := isRetryExempt(req.Context())
	token := t.session.Token()

	// refresh up front when the decoded token is already past its expiry;
	// the reactive 401 path below stays authoritative for opaque tokens
	if token != "" && !exempt {
		if info, err := ParseTokenInfo(token); err == nil && info.Expired(t.now()) {
			t.logger.Debug("access token expired, refreshing before dispatch")
			if err := t.session.Refresh(req.Context()); err != nil {
				return nil, authExpired(err)
			}
			token = t.session.Token()
		}
	}

	resp, err := t.base().RoundTrip(t.annotate(req, token))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || exempt {
		return resp, nil
	}

	// single-shot recovery; a request whose body cannot be replayed keeps
	// its 401
	if req.Body != nil && req.GetBody == nil {
		t.logger.Warn("401 on non-replayable request, propagating")
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if err := t.session.Refresh(req.Context()); err != nil {
		return nil, authExpired(err)
	}

	retry := t.annotate(req, t.session.Token())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to rewind request body")
		}
		retry.Body = body
	}

	t.logger.Debug("retrying %s %s with refreshed token", req.Method, req.URL.Path)
	return t.base().RoundTrip(retry)
}

// annotate clones the request and stamps the bearer token plus a
// correlation id. The original request is never mutated, per the
// RoundTripper contract.
func (t *Transport) annotate(req *http.Request, token string) *http.Request {
	out := req.Clone(req.Context())
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	} else {
		out.Header.Del("Authorization")
	}
	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", uuid.NewString())
	}
	return out
}

// authExpired wraps a refresh failure in the typed auth-expired error.
func authExpired(err error) error {
	if err == nil {
		return ErrAuthExpired
	}
	if IsAuthExpiredError(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryAuth, "authentication expired").
		WithTextCode(textCodeAuthExpired).
		WithCode(goerrors.CodeUnauthorized)
}
