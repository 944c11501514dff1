package session

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Client handles HTTP communication with the marketplace backend's auth
// surface. Every call goes through the shared *http.Client, so protected
// endpoints get bearer attachment and 401 recovery from the Transport.
type Client struct {
	http    *http.Client
	baseURL string
	logger  Logger
}

// NewClient creates a new backend client. httpClient is expected to carry a
// Transport and a cookie jar; the refresh credential is an http-only cookie
// the backend sets on login.
func NewClient(baseURL string, httpClient *http.Client, logger Logger) *Client {
	if logger == nil {
		logger = defLogger{}
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// authResult is the decoded {accessToken, user} envelope.
type authResult struct {
	Principal *Principal
	Token     string
}

type authEnvelope struct {
	AccessToken string     `json:"accessToken"`
	User        *Principal `json:"user"`
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, payload RegisterPayload) (authResult, error) {
	body, err := c.do(retryExempt(ctx), http.MethodPost, "/auth/register", payload)
	if err != nil {
		return authResult{}, err
	}
	return decodeAuthEnvelope(body)
}

// Login exchanges credentials for an access token and principal.
func (c *Client) Login(ctx context.Context, payload LoginPayload) (authResult, error) {
	body, err := c.do(retryExempt(ctx), http.MethodPost, "/auth/login", payload)
	if err != nil {
		return authResult{}, err
	}
	return decodeAuthEnvelope(body)
}

// Logout tells the backend to drop the refresh credential. Best-effort; the
// caller signs out locally regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(retryExempt(ctx), http.MethodPost, "/auth/logout", struct{}{})
	return err
}

// Refresh mints a new access token. The renewable credential is the
// http-only cookie held by the jar, not passed explicitly.
func (c *Client) Refresh(ctx context.Context) (authResult, error) {
	body, err := c.do(retryExempt(ctx), http.MethodPost, "/auth/refresh", struct{}{})
	if err != nil {
		return authResult{}, err
	}
	return decodeAuthEnvelope(body)
}

// Me re-fetches the current principal.
func (c *Client) Me(ctx context.Context) (*Principal, error) {
	body, err := c.do(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var env struct {
		User *Principal `json:"user"`
	}
	if err := json.Unmarshal(body, &env); err != nil || !env.User.Identified() {
		return nil, malformedResponse("user")
	}
	return env.User, nil
}

// UpdateProfile sends a partial profile change. The backend answers with
// one of a few envelope shapes; decodeProfileEnvelope walks them in order.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (authResult, error) {
	body, err := c.do(ctx, http.MethodPut, "/auth/update-profile", update)
	if err != nil {
		return authResult{}, err
	}
	return decodeProfileEnvelope(body)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, normalizeTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapNetworkError(err)
	}

	if resp.StatusCode >= 400 {
		return nil, c.statusError(ctx, resp.StatusCode, body)
	}

	return body, nil
}

func (c *Client) statusError(ctx context.Context, status int, body []byte) error {
	message := decodeErrorMessage(body)
	if message == "" {
		message = http.StatusText(status)
	}

	if status == http.StatusUnauthorized && !isRetryExempt(ctx) {
		// a 401 that survived the transport's single retry
		return authExpired(fmt.Errorf("backend said: %s", message))
	}

	if status >= 500 {
		return goerrors.New(message, goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithMetadata(map[string]any{"status": status})
	}

	return newValidationError(message).WithMetadata(map[string]any{"status": status})
}

// normalizeTransportError unwraps *url.Error so rich errors raised inside
// the Transport (refresh failure) keep their identity, and tags everything
// else as a network failure.
func normalizeTransportError(err error) error {
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	if IsAuthExpiredError(err) {
		return err
	}
	return wrapNetworkError(err)
}

func decodeErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if env.Error != "" {
		return env.Error
	}
	return env.Message
}

func decodeAuthEnvelope(body []byte) (authResult, error) {
	var env authEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return authResult{}, malformedResponse("accessToken/user")
	}
	if env.AccessToken == "" || !env.User.Identified() {
		return authResult{}, malformedResponse("accessToken/user")
	}
	return authResult{Principal: env.User, Token: env.AccessToken}, nil
}

// decodeProfileEnvelope tries the known profile-update response schemas in
// order: {updatedUserInfo}, then {user}, then the raw body as a principal.
// A candidate only wins when it carries the identifying field.
func decodeProfileEnvelope(body []byte) (authResult, error) {
	var env struct {
		UpdatedUserInfo *Principal `json:"updatedUserInfo"`
		User            *Principal `json:"user"`
		AccessToken     string     `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.UpdatedUserInfo.Identified() {
			return authResult{Principal: env.UpdatedUserInfo, Token: env.AccessToken}, nil
		}
		if env.User.Identified() {
			return authResult{Principal: env.User, Token: env.AccessToken}, nil
		}
	}

	var raw Principal
	if err := json.Unmarshal(body, &raw); err == nil && raw.Identified() {
		return authResult{Principal: &raw}, nil
	}

	return authResult{}, malformedResponse("updatedUserInfo/user")
}

func malformedResponse(field string) error {
	clone := ErrMalformedResponse.Clone()
	if clone == nil {
		return ErrMalformedResponse
	}
	clone.Message = fmt.Sprintf("response missing recognizable %s field", field)
	clone.Source = ErrMalformedResponse
	return clone.WithMetadata(map[string]any{"field": field})
}
