package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Class discriminates the two token kinds the service mints. Each class
// signs with its own secret and carries its class inside the signed
// payload, so a token of one class can never verify as the other.
type Class string

const (
	ClassAccess  Class = "access"
	ClassRefresh Class = "refresh"
)

// Claims is the signed payload of both token classes.
type Claims struct {
	jwt.RegisteredClaims
	TokenUse string `json:"token_use"`
}

type Manager struct {
	signers       map[Class]Signer
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	leeway        time.Duration
	nowFunc       func() time.Time
}

type ManagerOption func(*Manager)

func WithTokenExpiry(accessExpiry, refreshExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessExpiry = accessExpiry
		m.refreshExpiry = refreshExpiry
	}
}

// WithLeeway sets the clock skew tolerated during verification. Default zero.
func WithLeeway(leeway time.Duration) ManagerOption {
	return func(m *Manager) {
		m.leeway = leeway
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func New(accessSigner, refreshSigner Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signers: map[Class]Signer{
			ClassAccess:  accessSigner,
			ClassRefresh: refreshSigner,
		},
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessExpiry == 0 {
		m.accessExpiry = 15 * time.Minute
	}
	if m.refreshExpiry == 0 {
		m.refreshExpiry = 7 * 24 * time.Hour
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// Issue mints a signed token of the given class for the subject.
func (m *Manager) Issue(subjectID string, class Class) (string, error) {
	signer, ok := m.signers[class]
	if !ok || signer == nil {
		return "", errors.Errorf("Manager.Issue no signer for class %q", class)
	}

	now := m.nowFunc()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry(class))),
			ID:        uuid.New().String(),
		},
		TokenUse: string(class),
	}

	signed, err := signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "Manager.Issue sign")
	}
	return signed, nil
}

// Verify parses and validates a token against the given class, returning
// its claims. Failures map to MalformedErr, SignatureInvalidErr or
// ExpiredErr; a token of the wrong class fails SignatureInvalidErr.
func (m *Manager) Verify(raw string, class Class) (*Claims, error) {
	signer, ok := m.signers[class]
	if !ok || signer == nil {
		return nil, errors.Errorf("Manager.Verify no signer for class %q", class)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, signer.GetVerificationKey,
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithLeeway(m.leeway),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, classifyParseError(err)
	}
	if !parsed.Valid {
		return nil, SignatureInvalidErr
	}
	if claims.TokenUse != string(class) {
		return nil, errors.Wrap(SignatureInvalidErr, "token class mismatch")
	}
	if claims.Subject == "" {
		return nil, errors.Wrap(MalformedErr, "missing subject")
	}
	return claims, nil
}

func (m *Manager) expiry(class Class) time.Duration {
	if class == ClassRefresh {
		return m.refreshExpiry
	}
	return m.accessExpiry
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return errors.Wrap(ExpiredErr, err.Error())
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return errors.Wrap(SignatureInvalidErr, err.Error())
	default:
		return errors.Wrap(MalformedErr, err.Error())
	}
}
