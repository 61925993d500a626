// Package auth implements credential hashing and bearer-token issuance and
// validation. Tokens are HS256-signed JWTs carrying the profile id, role,
// and the client id of the profile's token group; passwords are stored as
// bcrypt hashes.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Token validation errors.
var (
	// ErrInvalidToken is returned for malformed, mis-signed or expired tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// Principal is the authenticated identity derived from a request's
// credentials. It is attached to the request context by the authentication
// gate and consulted by resource hooks for ownership and role checks.
type Principal struct {
	ProfileID uint
	Role      int
}

// Claims is the JWT payload issued at login.
type Claims struct {
	ProfileID uint   `json:"pid"`
	Role      int    `json:"role"`
	ClientID  string `json:"cid"`
	jwt.RegisteredClaims
}

// Issuer signs and validates bearer tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer returns an Issuer signing with secret, issuing tokens valid for ttl.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the validity window of issued tokens.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for p, bound to the token group identified by clientID.
func (i *Issuer) Issue(p Principal, clientID string) (string, error) {
	now := time.Now()
	claims := Claims{
		ProfileID: p.ProfileID,
		Role:      p.Role,
		ClientID:  clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse validates raw and returns the embedded principal.
// Any malformed, expired, or mis-signed token yields ErrInvalidToken.
func (i *Issuer) Parse(raw string) (*Principal, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ProfileID == 0 {
		return nil, ErrInvalidToken
	}
	return &Principal{ProfileID: claims.ProfileID, Role: claims.Role}, nil
}

// HashPassword returns the bcrypt hash of pw at the default cost.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches the stored bcrypt hash.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
