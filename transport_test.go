package session_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/gigzy/go-session"
)

// protectedBackend serves /orders behind a bearer check: anything but the
// current good token gets a 401.
func protectedBackend(t *testing.T, goodToken *string, mu *sync.Mutex) *testBackend {
	t.Helper()
	backend := newTestBackend(t)
	backend.handle("GET", "/orders", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		want := "Bearer " + *goodToken
		mu.Unlock()
		if r.Header.Get("Authorization") != want {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"orders": []any{}})
	})
	return backend
}

func TestTransportRefreshRetry(t *testing.T) {
	t.Run("401 then refresh then retry returns the final body", func(t *testing.T) {
		var mu sync.Mutex
		goodToken := "T2"
		backend := protectedBackend(t, &goodToken, &mu)
		backend.handle("POST", "/auth/login", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, authPayload("T1", 1, session.RoleClient))
		})
		backend.handle("POST", "/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, authPayload("T2", 1, session.RoleClient))
		})

		m, _ := newTestManager(t, backend)
		_, err := m.Login(context.Background(), session.LoginPayload{Email: "a@b.com", Password: "secret1"})
		require.NoError(t, err)
		require.Equal(t, "T1", m.Token())

		resp, err := m.HTTPClient().Get(backend.server.URL + "/orders")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"orders":[]}`, string(body))

		assert.Equal(t, 1, backend.refreshCount())
		assert.Equal(t, "T2", m.Token(), "session carries the refreshed token")
	})

	t.Run("second 401 propagates without another refresh", func(t *testing.T) {
		backend := newTestBackend(t)
		backend.handle("GET", "/orders", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "still no"})
		})
		backend.handle("POST", "/auth/login", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, authPayload("T1", 1, session.RoleClient))
		})
		backend.handle("POST", "/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, authPayload("T2", 1, session.RoleClient))
		})

		m, _ := newTestManager(t, backend)
		_, err := m.Login(context.Background(), session.LoginPayload{Email: "a@b.com", Password: "secret1"})
		require.NoError(t, err)

		resp, err := m.HTTPClient().Get(backend.server.URL + "/orders")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, 1, backend.refreshCount())
	})

	t.Run("refresh failure fails the call typed and clears the session", func(t *testing.T) {
		backend := newTestBackend(t)
		backend.handle("GET", "/orders", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
		})
		backend.handle("POST", "/auth/login", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, authPayload("T1", 1, session.RoleClient))
		})
		backend.handle("POST", "/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "refresh expired"})
		})

		expired := false
		store := session.NewMemoryStore()
		m := session.New(&testConfig{baseURL: backend.server.URL}, store).
			WithOnSessionExpired(func() { expired = true })

		_, err := m.Login(context.Background(), session.LoginPayload{Email: "a@b.com", Password: "secret1"})
		require.NoError(t, err)

		_, err = m.HTTPClient().Get(backend.server.URL + "/orders")
		require.Error(t, err)
		assert.True(t, session.IsAuthExpiredError(err))
		assert.True(t, expired)
		assert.True(t, m.State().Anonymous())

		_, readErr := store.Read(context.Background())
		assert.ErrorIs(t, readErr, session.ErrNoCredentials)
	})

	t.Run("concurrent 401s share one refresh", func(t *testing.T) {
		var mu sync.Mutex
		goodToken := "T2"
		backend := protectedBackend(t, &goodToken, &mu)
		backend.handle("POST", "/auth/login", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, authPayload("T1", 1, session.RoleClient))
		})
		backend.handle("POST", "/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			writeJSON(w, http.StatusOK, authPayload("T2", 1, session.RoleClient))
		})

		m, _ := newTestManager(t, backend)
		_, err := m.Login(context.Background(), session.LoginPayload{Email: "a@b.com", Password: "secret1"})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp, err := m.HTTPClient().Get(backend.server.URL + "/orders")
				if assert.NoError(t, err) {
					assert.Equal(t, http.StatusOK, resp.StatusCode)
					resp.Body.Close()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, backend.refreshCount())
	})

	t.Run("request body is replayed on retry", func(t *testing.T) {
		var bodies []string
		var mu sync.Mutex
		backend := newTestBackend(t)
		seen := 0
		backend.handle("POST", "/orders", func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			mu.Lock()
			bodies = append(bodies, string(raw))
			seen++
			first := seen == 1
			mu.Unlock()
			if first {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"id": 42})
		})
		backend.handle("POST", "/auth/login", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, authPayload("T1", 1, session.RoleClient))
		})
		backend.handle("POST", "/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, authPayload("T2", 1, session.RoleClient))
		})

		m, _ := newTestManager(t, backend)
		_, err := m.Login(context.Background(), session.LoginPayload{Email: "a@b.com", Password: "secret1"})
		require.NoError(t, err)

		resp, err := m.HTTPClient().Post(backend.server.URL+"/orders", "application/json", strings.NewReader(`{"gig":7}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mu.Lock()
		defer mu.Unlock()
		require.Len(t, bodies, 2)
		assert.Equal(t, bodies[0], bodies[1], "retried request carries the same body")
	})

	t.Run("anonymous requests carry no bearer header", func(t *testing.T) {
		backend := newTestBackend(t)
		backend.handle("GET", "/gigs", func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
			writeJSON(w, http.StatusOK, map[string]any{"gigs": []any{}})
		})

		m, _ := newTestManager(t, backend)
		resp, err := m.HTTPClient().Get(backend.server.URL + "/gigs")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestTransportProactiveRefresh(t *testing.T) {
	// a real (unsigned-verification) JWT that expired in the past
	expiredToken := func(t *testing.T) string {
		claims := jwt.MapClaims{
			"sub": "1",
			"exp": jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("irrelevant"))
		require.NoError(t, err)
		return raw
	}

	backend := newTestBackend(t)
	var mu sync.Mutex
	sawTokens := []string{}
	backend.handle("GET", "/orders", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		sawTokens = append(sawTokens, r.Header.Get("Authorization"))
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"orders": []any{}})
	})
	backend.handle("POST", "/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, authPayload("FRESH", 1, session.RoleClient))
	})

	store := session.NewMemoryStore()
	raw, err := json.Marshal(session.Principal{ID: 1, Role: session.RoleClient})
	require.NoError(t, err)
	tok := expiredToken(t)
	require.NoError(t, store.Write(context.Background(), session.Credentials{Token: tok, Principal: raw}))

	m := session.New(&testConfig{baseURL: backend.server.URL}, store)
	m.Restore(context.Background())
	require.Equal(t, tok, m.Token())

	resp, err := m.HTTPClient().Get(backend.server.URL + "/orders")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1, backend.refreshCount())
	assert.Equal(t, "FRESH", m.Token())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sawTokens, 1)
	assert.Equal(t, "Bearer FRESH", sawTokens[0], "expired token is never sent")
}
