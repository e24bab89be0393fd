package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens expire 45 minutes after issuance. There is no revocation;
// rotating the secret is the only way to invalidate outstanding tokens.
const tokenTTL = 45 * time.Minute

var (
	// ErrTokenMissing means the request carried no access-token header.
	ErrTokenMissing = errors.New("token is missing")
	// ErrTokenInvalid covers every decode failure: malformed payload,
	// wrong signature, unexpected algorithm, or expiry.
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims defines the token claims structure: the subject user id plus
// the registered expiry.
type Claims struct {
	UserID int `json:"id"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed access tokens. The signing
// secret is fixed at construction and must not change while requests
// are being served.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService around a symmetric secret.
func NewTokenService(secret []byte) *TokenService {
	return &TokenService{secret: secret, now: time.Now}
}

// Issue creates a new signed token for the given user id.
func (s *TokenService) Issue(userID int) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.now().Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a token string, returning the subject
// user id. All failure modes collapse to ErrTokenInvalid.
func (s *TokenService) Verify(tokenStr string) (int, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !token.Valid {
		return 0, ErrTokenInvalid
	}
	return claims.UserID, nil
}
