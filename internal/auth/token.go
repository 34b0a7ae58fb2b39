package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when a token cannot be parsed or its signature does not verify.
var ErrMalformedToken = errors.New("malformed token")

// TokenManager handles issuing and validating JWT tokens bound to an admin email.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 60 * time.Minute
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Used by tests to move past expiry.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	tm.now = now
	return tm
}

// TTL returns the lifetime given to issued tokens.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Claims describes JWT payload.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issue builds and signs a token for email. The expiry is fixed at issuance.
func (tm *TokenManager) Issue(email string) (string, time.Time, error) {
	if email == "" {
		return "", time.Time{}, errors.New("token subject required")
	}
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// ExtractEmail verifies the signature and returns the bound email. Time claims are not
// checked here; see IsExpired.
func (tm *TokenManager) ExtractEmail(tokenStr string) (string, error) {
	claims, err := tm.parse(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Email == "" {
		return "", ErrMalformedToken
	}
	return claims.Email, nil
}

// IsExpired reports whether the embedded expiry has passed. Tokens that fail to parse, or
// carry no expiry, count as expired.
func (tm *TokenManager) IsExpired(tokenStr string) bool {
	claims, err := tm.parse(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return !tm.now().Before(claims.ExpiresAt.Time)
}

func (tm *TokenManager) parse(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, errors.Join(ErrMalformedToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformedToken
	}
	return claims, nil
}
