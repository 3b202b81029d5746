package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-service/token"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret  = "access-secret-1"
	refreshSecret = "refresh-secret-1"
	testSubject   = "user-1"
)

func newManager(now func() time.Time, options ...token.ManagerOption) *token.Manager {
	opts := append([]token.ManagerOption{
		token.WithTokenExpiry(time.Minute, time.Hour),
		token.WithNowFunc(now),
	}, options...)
	return token.New(
		token.NewHMACSigner(accessSecret),
		token.NewHMACSigner(refreshSecret),
		opts...,
	)
}

func TestManager_RoundTrip(t *testing.T) {
	m := newManager(time.Now)

	for _, class := range []token.Class{token.ClassAccess, token.ClassRefresh} {
		t.Run(string(class), func(t *testing.T) {
			raw, err := m.Issue(testSubject, class)
			require.NoError(t, err)

			claims, err := m.Verify(raw, class)
			require.NoError(t, err)
			require.Equal(t, testSubject, claims.Subject)
			require.Equal(t, string(class), claims.TokenUse)
			require.NotEmpty(t, claims.ID)
		})
	}
}

func TestManager_Expiry(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	issuer := newManager(func() time.Time { return issuedAt })
	raw, err := issuer.Issue(testSubject, token.ClassAccess)
	require.NoError(t, err)

	t.Run("valid just before expiry", func(t *testing.T) {
		verifier := newManager(func() time.Time { return issuedAt.Add(time.Minute - time.Second) })
		_, err := verifier.Verify(raw, token.ClassAccess)
		require.NoError(t, err)
	})

	t.Run("expired after TTL", func(t *testing.T) {
		verifier := newManager(func() time.Time { return issuedAt.Add(time.Minute + time.Second) })
		_, err := verifier.Verify(raw, token.ClassAccess)
		require.ErrorIs(t, err, token.ExpiredErr)
	})

	t.Run("leeway tolerates configured skew", func(t *testing.T) {
		verifier := newManager(
			func() time.Time { return issuedAt.Add(time.Minute + time.Second) },
			token.WithLeeway(5*time.Second),
		)
		_, err := verifier.Verify(raw, token.ClassAccess)
		require.NoError(t, err)
	})
}

func TestManager_ClassConfusion(t *testing.T) {
	m := newManager(time.Now)

	t.Run("access token rejected as refresh", func(t *testing.T) {
		raw, err := m.Issue(testSubject, token.ClassAccess)
		require.NoError(t, err)

		_, err = m.Verify(raw, token.ClassRefresh)
		require.ErrorIs(t, err, token.SignatureInvalidErr)
	})

	t.Run("refresh token rejected as access", func(t *testing.T) {
		raw, err := m.Issue(testSubject, token.ClassRefresh)
		require.NoError(t, err)

		_, err = m.Verify(raw, token.ClassAccess)
		require.ErrorIs(t, err, token.SignatureInvalidErr)
	})

	t.Run("class claim checked even with shared secret", func(t *testing.T) {
		shared := token.New(
			token.NewHMACSigner(accessSecret),
			token.NewHMACSigner(accessSecret),
			token.WithTokenExpiry(time.Minute, time.Hour),
		)
		raw, err := shared.Issue(testSubject, token.ClassAccess)
		require.NoError(t, err)

		_, err = shared.Verify(raw, token.ClassRefresh)
		require.ErrorIs(t, err, token.SignatureInvalidErr)
	})
}

func TestManager_Tampered(t *testing.T) {
	m := newManager(time.Now)

	raw, err := m.Issue(testSubject, token.ClassAccess)
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	_, err = m.Verify(tampered, token.ClassAccess)
	require.ErrorIs(t, err, token.SignatureInvalidErr)
}

func TestManager_Malformed(t *testing.T) {
	m := newManager(time.Now)

	for name, raw := range map[string]string{
		"garbage":   "not-a-jwt",
		"two parts": "abc.def",
		"empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(raw, token.ClassAccess)
			require.ErrorIs(t, err, token.MalformedErr)
		})
	}
}

func TestManager_IssueProducesUniqueTokens(t *testing.T) {
	m := newManager(time.Now)

	first, err := m.Issue(testSubject, token.ClassRefresh)
	require.NoError(t, err)
	second, err := m.Issue(testSubject, token.ClassRefresh)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}
