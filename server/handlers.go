package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-session-service/auth"
	"github.com/jrsteele09/go-session-service/users"
	"github.com/pkg/errors"
)

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         *users.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, errors.Wrap(auth.ValidationErr, "invalid request body"))
			return
		}

		user, err := s.sessions.Register(r.Context(), req)
		if err != nil {
			respondError(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, user, "user registered successfully")
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, errors.Wrap(auth.ValidationErr, "invalid request body"))
			return
		}

		identifier := req.Username
		if identifier == "" {
			identifier = req.Email
		}

		pair, user, err := s.sessions.Login(r.Context(), identifier, req.Password)
		if err != nil {
			respondError(w, err)
			return
		}

		s.setTokenCookies(w, r, pair)
		respondJSON(w, http.StatusOK, loginResponse{
			User:         user,
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		}, "login successful")
	}
}

// RefreshTokenHandler rotates the refresh token. The token is taken from
// the refreshToken cookie when present, else from the request body.
func (s *Server) RefreshTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		presented := ""
		if cookie, err := r.Cookie(refreshTokenCookieName); err == nil {
			presented = cookie.Value
		}
		if presented == "" && r.Body != nil {
			var req refreshRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
				presented = req.RefreshToken
			}
		}

		pair, err := s.sessions.Refresh(r.Context(), presented)
		if err != nil {
			respondError(w, err)
			return
		}

		s.setTokenCookies(w, r, pair)
		respondJSON(w, http.StatusOK, pair, "token refreshed")
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			respondError(w, auth.UnauthorizedErr)
			return
		}

		if err := s.sessions.Logout(r.Context(), user.ID); err != nil {
			respondError(w, err)
			return
		}

		s.clearTokenCookies(w, r)
		respondJSON(w, http.StatusOK, nil, "logged out")
	}
}

func (s *Server) CurrentUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			respondError(w, auth.UnauthorizedErr)
			return
		}
		respondJSON(w, http.StatusOK, user, "")
	}
}
