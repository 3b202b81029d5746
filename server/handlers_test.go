package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-session-service/auth"
	"github.com/jrsteele09/go-session-service/internal/config"
	"github.com/jrsteele09/go-session-service/server"
	fakeuserrepo "github.com/jrsteele09/go-session-service/users/repofake"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type tokenPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	srv, err := server.New(config.New(), auth.Repos{Users: fakeuserrepo.NewFakeUserRepo()})
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *server.Server, method, path string, body any, modify ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, m := range modify {
		m(req)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func registerAndLogin(t *testing.T, srv *server.Server) (tokenPayload, []*http.Cookie) {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/users/register", map[string]string{
		"fullName": "Ana Example",
		"username": "ana",
		"email":    "a@x.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": "ana",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var payload tokenPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	return payload, rec.Result().Cookies()
}

func TestRegisterHandler(t *testing.T) {
	t.Run("creates the account", func(t *testing.T) {
		srv := newTestServer(t)

		rec := doJSON(t, srv, http.MethodPost, "/api/v1/users/register", map[string]string{
			"fullName": "Ana Example",
			"username": "ana",
			"email":    "a@x.com",
			"password": "secret1",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		env := decodeEnvelope(t, rec)
		require.True(t, env.Success)
		require.NotContains(t, string(env.Data), "passwordHash")
		require.NotContains(t, string(env.Data), "secret1")
	})

	t.Run("missing fields return 400", func(t *testing.T) {
		srv := newTestServer(t)

		rec := doJSON(t, srv, http.MethodPost, "/api/v1/users/register", map[string]string{
			"username": "ana",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.False(t, decodeEnvelope(t, rec).Success)
	})

	t.Run("invalid body returns 400", func(t *testing.T) {
		srv := newTestServer(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate returns 409", func(t *testing.T) {
		srv := newTestServer(t)
		registerAndLogin(t, srv)

		rec := doJSON(t, srv, http.MethodPost, "/api/v1/users/register", map[string]string{
			"fullName": "Other",
			"username": "ana",
			"email":    "other@x.com",
			"password": "secret2",
		})
		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestLoginHandler(t *testing.T) {
	t.Run("returns tokens and sets cookies", func(t *testing.T) {
		srv := newTestServer(t)
		payload, cookies := registerAndLogin(t, srv)

		require.NotEmpty(t, payload.AccessToken)
		require.NotEmpty(t, payload.RefreshToken)
		require.Equal(t, "ana", payload.User.Username)

		names := map[string]*http.Cookie{}
		for _, c := range cookies {
			names[c.Name] = c
		}
		require.Contains(t, names, "accessToken")
		require.Contains(t, names, "refreshToken")
		require.True(t, names["accessToken"].HttpOnly)
		require.True(t, names["refreshToken"].HttpOnly)
	})

	t.Run("login by email", func(t *testing.T) {
		srv := newTestServer(t)
		registerAndLogin(t, srv)

		rec := doJSON(t, srv, http.MethodPost, "/api/v1/users/login", map[string]string{
			"email":    "a@x.com",
			"password": "secret1",
		})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password returns generic 401", func(t *testing.T) {
		srv := newTestServer(t)
		registerAndLogin(t, srv)

		rec := doJSON(t, srv, http.MethodPost, "/api/v1/users/login", map[string]string{
			"username": "ana",
			"password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "not authorized", decodeEnvelope(t, rec).Message)
	})

	t.Run("unknown account returns the same 401", func(t *testing.T) {
		srv := newTestServer(t)

		rec := doJSON(t, srv, http.MethodPost, "/api/v1/users/login", map[string]string{
			"username": "nobody",
			"password": "secret1",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "not authorized", decodeEnvelope(t, rec).Message)
	})
}

func TestRefreshTokenHandler(t *testing.T) {
	t.Run("rotates via request body", func(t *testing.T) {
		srv := newTestServer(t)
		payload, _ := registerAndLogin(t, srv)

		rec := doJSON(t, srv, http.MethodPost, "/api/v1/users/refresh-token", map[string]string{
			"refreshToken": payload.RefreshToken,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var rotated tokenPayload
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &rotated))
		require.NotEqual(t, payload.RefreshToken, rotated.RefreshToken)

		// The consumed token is rejected on replay.
		rec = doJSON(t, srv, http.MethodPost, "/api/v1/users/refresh-token", map[string]string{
			"refreshToken": payload.RefreshToken,
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rotates via cookie", func(t *testing.T) {
		srv := newTestServer(t)
		payload, _ := registerAndLogin(t, srv)

		rec := doJSON(t, srv, http.MethodPost, "/api/v1/users/refresh-token", nil, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "refreshToken", Value: payload.RefreshToken})
		})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token returns 401", func(t *testing.T) {
		srv := newTestServer(t)

		rec := doJSON(t, srv, http.MethodPost, "/api/v1/users/refresh-token", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLogoutHandler(t *testing.T) {
	srv := newTestServer(t)
	payload, _ := registerAndLogin(t, srv)

	withBearer := func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+payload.AccessToken)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/users/logout", nil, withBearer)
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("clears the token cookies", func(t *testing.T) {
		for _, c := range rec.Result().Cookies() {
			require.Empty(t, c.Value)
			require.Negative(t, c.MaxAge)
		}
	})

	t.Run("refresh token is dead afterwards", func(t *testing.T) {
		refreshRec := doJSON(t, srv, http.MethodPost, "/api/v1/users/refresh-token", map[string]string{
			"refreshToken": payload.RefreshToken,
		})
		require.Equal(t, http.StatusUnauthorized, refreshRec.Code)
	})

	t.Run("repeat logout still succeeds", func(t *testing.T) {
		repeatRec := doJSON(t, srv, http.MethodPost, "/api/v1/users/logout", nil, withBearer)
		require.Equal(t, http.StatusOK, repeatRec.Code)
	})

	t.Run("requires authentication", func(t *testing.T) {
		anonRec := doJSON(t, srv, http.MethodPost, "/api/v1/users/logout", nil)
		require.Equal(t, http.StatusUnauthorized, anonRec.Code)
	})
}

func TestCurrentUserHandler(t *testing.T) {
	srv := newTestServer(t)
	payload, _ := registerAndLogin(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/users/me", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+payload.AccessToken)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Contains(t, string(env.Data), "ana")
	require.NotContains(t, string(env.Data), "passwordHash")
}
