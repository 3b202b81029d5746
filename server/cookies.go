package server

import (
	"net/http"

	"github.com/jrsteele09/go-session-service/auth"
)

const (
	// accessTokenCookieName is the cookie carrying the short-lived access token
	accessTokenCookieName = "accessToken"
	// refreshTokenCookieName is the cookie carrying the long-lived refresh token
	refreshTokenCookieName = "refreshToken"
)

func (s *Server) setTokenCookies(w http.ResponseWriter, r *http.Request, pair *auth.TokenPair) {
	isSecure := getScheme(r) == "https"

	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookieName,
		Value:    pair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetAccessTokenExpiry().Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetRefreshTokenExpiry().Seconds()),
	})
}

func (s *Server) clearTokenCookies(w http.ResponseWriter, r *http.Request) {
	isSecure := getScheme(r) == "https"

	for _, name := range []string{accessTokenCookieName, refreshTokenCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   isSecure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
}
