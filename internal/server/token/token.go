package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is how long an issued capability token stays valid.
const DefaultTTL = 30 * 24 * time.Hour

const issuer = "shiori-api"

// Claims binds a capability token to exactly one itinerary.
type Claims struct {
	ShioriID string `json:"shioriId"`
	jwt.RegisteredClaims
}

// Service issues and verifies capability tokens. The signing secret is
// injected at construction; it is read-only afterwards.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates a token service. An empty secret is a configuration
// error: the service refuses to start rather than sign with a guessable key.
func NewService(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("token signing secret is not configured")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

// Issue creates a signed token granting edit rights to one itinerary.
func (s *Service) Issue(itineraryID string) (string, error) {
	now := time.Now()

	claims := Claims{
		ShioriID: itineraryID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify checks signature and expiry and returns the bound itinerary id.
// It fails closed: any malformed, tampered or expired token yields ("",
// false) with no distinction between causes.
func (s *Service) Verify(tokenString string) (string, bool) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		return "", false
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.ShioriID == "" {
		return "", false
	}

	return claims.ShioriID, true
}

// ExtractBearer pulls the token out of an Authorization header value.
// Anything other than exactly the "Bearer <token>" scheme yields "".
func ExtractBearer(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return header[len(prefix):]
}
