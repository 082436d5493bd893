package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/alexanderramin/timeledger/internal/domain"
)

const actorContextKey = "actor"

// Claims carries the session context of an API caller.
type Claims struct {
	TenantID       string   `json:"tid"`
	EmployeeID     string   `json:"eid"`
	OrganizationID string   `json:"oid"`
	Permissions    []string `json:"perms,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Actor() domain.Actor {
	perms := make([]domain.Permission, 0, len(c.Permissions))
	for _, p := range c.Permissions {
		perms = append(perms, domain.Permission(p))
	}
	return domain.Actor{
		TenantID:       c.TenantID,
		EmployeeID:     c.EmployeeID,
		OrganizationID: c.OrganizationID,
		Permissions:    perms,
	}
}

// IssueToken signs an HS256 token for actor that expires after ttl.
func IssueToken(secret []byte, actor domain.Actor, ttl time.Duration, now time.Time) (string, error) {
	perms := make([]string, 0, len(actor.Permissions))
	for _, p := range actor.Permissions {
		perms = append(perms, string(p))
	}
	claims := Claims{
		TenantID:       actor.TenantID,
		EmployeeID:     actor.EmployeeID,
		OrganizationID: actor.OrganizationID,
		Permissions:    perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.EmployeeID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken verifies tokenString and returns its claims.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.TenantID == "" || claims.EmployeeID == "" || claims.OrganizationID == "" {
		return nil, errors.New("token is missing tenant, employee or organization")
	}
	return claims, nil
}

// Auth requires a bearer token and stores the caller's actor on the context.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			writeError(c, unauthorized("missing authorization header"))
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(c, unauthorized("invalid authorization format"))
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			writeError(c, unauthorized("invalid authorization format"))
			return
		}

		claims, err := ParseToken(secret, token)
		if err != nil {
			writeError(c, unauthorized("invalid or expired token"))
			return
		}
		c.Set(actorContextKey, claims.Actor())
		c.Next()
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return domain.Actor{}
	}
	actor, _ := v.(domain.Actor)
	return actor
}
