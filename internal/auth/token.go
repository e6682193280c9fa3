package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
)

// TokenManager validates bearer tokens minted by the identity provider.
// The engine trusts the roles carried in the token and never re-derives
// them; issuance lives with the provider.
type TokenManager struct {
	secret []byte
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// Claims describes the identity provider's JWT payload.
type Claims struct {
	ActorID string   `json:"sub"`
	Roles   []string `json:"roles"`
	jwt.RegisteredClaims
}

// ParseToken validates the token and returns the actor it identifies.
func (tm *TokenManager) ParseToken(tokenStr string) (domain.Actor, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return domain.Actor{}, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Actor{}, errors.New("invalid token claims")
	}
	actor := domain.Actor{ID: claims.ActorID, Roles: make([]domain.Role, 0, len(claims.Roles))}
	for _, role := range claims.Roles {
		actor.Roles = append(actor.Roles, domain.Role(role))
	}
	return actor, nil
}

// IssueToken signs a token for the given actor. Used by tests and local
// development; production tokens come from the identity provider.
func (tm *TokenManager) IssueToken(actor domain.Actor, ttl time.Duration) (string, error) {
	roles := make([]string, 0, len(actor.Roles))
	for _, role := range actor.Roles {
		roles = append(roles, string(role))
	}
	claims := &Claims{
		ActorID: actor.ID,
		Roles:   roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}
