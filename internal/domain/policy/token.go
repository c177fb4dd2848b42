package policy

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid  = errors.New("confirmation token is invalid")
	ErrTokenExpired  = errors.New("confirmation token is expired")
	ErrQueryMismatch = errors.New("confirmation token was issued for a different query")
)

// DefaultTokenTTL is how long an issued confirmation token stays valid.
const DefaultTokenTTL = 60 * time.Second

const (
	claimQueryHash = "qh"
	tokenIDBytes   = 8
)

// TokenIssuer issues and validates confirmation tokens for dangerous queries.
//
// Tokens are HMAC-signed JWTs carrying the SHA-256 of the exact query text
// and a short expiry. The signing key is generated per process, so a token
// is only honored by the process that issued it — approval cannot outlive
// the server, and nothing is persisted. Each token carries a unique id, so
// approving the same query twice yields two distinct tokens.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
}

// NewTokenIssuer creates an issuer with a fresh random signing key.
// A zero ttl selects DefaultTokenTTL.
func NewTokenIssuer(ttl time.Duration) (*TokenIssuer, error) {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return &TokenIssuer{key: key, ttl: ttl}, nil
}

// Issue creates a confirmation token bound to the exact text of query.
func (t *TokenIssuer) Issue(query string) (string, error) {
	jti := make([]byte, tokenIDBytes)
	if _, err := rand.Read(jti); err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		claimQueryHash: queryHash(query),
		"jti":          hex.EncodeToString(jti),
		"iat":          jwt.NewNumericDate(now),
		"exp":          jwt.NewNumericDate(now.Add(t.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign confirmation token: %w", err)
	}
	return signed, nil
}

// Validate checks that token was issued by this process, has not expired,
// and is bound to the exact text of query. Changing even whitespace in the
// query invalidates a previously issued token.
func (t *TokenIssuer) Validate(token, query string) error {
	parsed, err := jwt.Parse(token,
		func(*jwt.Token) (any, error) { return t.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return ErrTokenInvalid
	}
	hash, _ := claims[claimQueryHash].(string)
	if hash != queryHash(query) {
		return ErrQueryMismatch
	}
	return nil
}

// queryHash returns the hex SHA-256 of the query text.
func queryHash(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}
