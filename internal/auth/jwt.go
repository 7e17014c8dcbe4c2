package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the only role the service issues.
const RoleAdmin = "admin"

// ErrWrongPassword is returned by Login for a bad admin password.
var ErrWrongPassword = errors.New("wrong admin password")

// Token is a signed admin session token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Claims represents JWT payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// CheckPassword compares in constant time.
func CheckPassword(given, want string) bool {
	g := sha256.Sum256([]byte(given))
	w := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(g[:], w[:]) == 1 && want != ""
}

// Issuer signs admin tokens after checking the shared password.
type Issuer struct {
	password string
	issuer   string
	key      string
	ttl      time.Duration
	now      func() time.Time
}

func NewIssuer(password, issuer, key string, ttl time.Duration) *Issuer {
	return &Issuer{password: password, issuer: issuer, key: key, ttl: ttl, now: time.Now}
}

// Login returns a token when password matches the configured one.
func (i *Issuer) Login(password string) (Token, error) {
	if !CheckPassword(password, i.password) {
		return Token{}, ErrWrongPassword
	}
	return Issue(RoleAdmin, i.issuer, i.key, i.ttl, i.now())
}

// Issue signs a token for subject valid for ttl from now.
func Issue(subject, issuer, key string, ttl time.Duration, now time.Time) (Token, error) {
	exp := now.Add(ttl)
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ExpiresAt: exp}, nil
}

// Parse validates a token and returns claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	if claims.Role != RoleAdmin {
		return Claims{}, errors.New("role mismatch")
	}
	return *claims, nil
}
