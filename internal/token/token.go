// Package token issues and verifies the bearer tokens that carry a
// session. Tokens are self-contained HMAC-signed JWTs: the server keeps
// no session state, and a token stays valid until its expiry no matter
// what happens server-side. There is no revocation list, so a stolen
// token is usable for its full lifetime; the refresh TTL bounds the
// damage window.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Class distinguishes the two token kinds. An access token authorizes
// API calls; a refresh token is only good for minting a new pair.
type Class string

const (
	ClassAccess  Class = "access"
	ClassRefresh Class = "refresh"
)

var (
	// ErrExpired means the token was well-formed and correctly signed
	// but its expiry has passed.
	ErrExpired = errors.New("token expired")
	// ErrMalformed means the string is not a parseable token at all.
	ErrMalformed = errors.New("token malformed")
	// ErrInvalid covers everything else: bad signature, wrong signing
	// method, wrong class, missing subject.
	ErrInvalid = errors.New("token invalid")
)

// Claims is the payload carried by both token classes.
type Claims struct {
	Class Class `json:"cls"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with a shared HMAC secret.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Access mints an access token for the given account.
func (i *Issuer) Access(accountID string) (string, error) {
	return i.sign(accountID, ClassAccess, i.accessTTL)
}

// Refresh mints a refresh token for the given account.
func (i *Issuer) Refresh(accountID string) (string, error) {
	return i.sign(accountID, ClassRefresh, i.refreshTTL)
}

func (i *Issuer) sign(accountID string, class Class, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		Class: class,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and class, and returns the account id
// the token was issued for. Expiry is evaluated with zero leeway.
func (i *Issuer) Verify(raw string, class Class) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrMalformed
		default:
			return "", ErrInvalid
		}
	}
	if claims.Class != class {
		return "", ErrInvalid
	}
	if claims.Subject == "" {
		return "", ErrInvalid
	}
	return claims.Subject, nil
}
