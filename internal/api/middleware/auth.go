// Package middleware holds the access-control guard: one place that
// verifies the caller's token and, where required, the admin role, instead
// of per-route inline checks.
package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/zapshift/parcel-delivery/internal/domain/user"
	"github.com/zapshift/parcel-delivery/pkg/cache"
	errs "github.com/zapshift/parcel-delivery/pkg/errors"
	"github.com/zapshift/parcel-delivery/pkg/logger"
)

const callerEmailKey = "caller_email"

// RoleSource resolves a user's role by email
type RoleSource interface {
	GetRoleByEmail(ctx context.Context, email string) (user.Role, error)
}

// Guard verifies caller identity (bearer JWT) and role
type Guard struct {
	secret  []byte
	roles   RoleSource
	redis   *redis.Client
	roleTTL time.Duration
	logger  *logger.Logger
}

// NewGuard creates an access-control guard. The redis client is optional;
// without it every role check goes to the role source.
func NewGuard(secret string, roles RoleSource, redisClient *redis.Client, roleTTL time.Duration, log *logger.Logger) *Guard {
	return &Guard{
		secret:  []byte(secret),
		roles:   roles,
		redis:   redisClient,
		roleTTL: roleTTL,
		logger:  log,
	}
}

// Authenticate verifies the bearer token and records the caller's email in
// the request context.
func (g *Guard) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		email, err := g.verifyToken(c.GetHeader("Authorization"))
		if err != nil {
			ae := errs.GetAppError(err)
			c.AbortWithStatusJSON(ae.Status, gin.H{"code": ae.Code, "message": ae.Message})
			return
		}
		c.Set(callerEmailKey, email)
		c.Next()
	}
}

// RequireAdmin allows the request through only when the authenticated
// caller's role resolves to admin. Must run after Authenticate.
func (g *Guard) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := CallerEmail(c)
		if email == "" {
			ae := errs.Unauthorized("Authentication required", nil)
			c.AbortWithStatusJSON(ae.Status, gin.H{"code": ae.Code, "message": ae.Message})
			return
		}

		role, err := g.resolveRole(c.Request.Context(), email)
		if err != nil {
			g.logger.Warn("Role lookup failed",
				logger.String("email", email),
				logger.Err(err),
			)
			ae := errs.Forbidden("Admin access required", nil)
			c.AbortWithStatusJSON(ae.Status, gin.H{"code": ae.Code, "message": ae.Message})
			return
		}
		if role != user.RoleAdmin {
			ae := errs.Forbidden("Admin access required", nil)
			c.AbortWithStatusJSON(ae.Status, gin.H{"code": ae.Code, "message": ae.Message})
			return
		}
		c.Next()
	}
}

// CallerEmail returns the authenticated caller's email, or "" when the
// request did not pass Authenticate.
func CallerEmail(c *gin.Context) string {
	email, _ := c.Get(callerEmailKey)
	if s, ok := email.(string); ok {
		return s
	}
	return ""
}

func (g *Guard) verifyToken(header string) (string, error) {
	if header == "" {
		return "", errs.Unauthorized("Missing Authorization header", nil)
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", errs.Unauthorized("Authorization header must be a bearer token", nil)
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errs.Unauthorized("Invalid or expired token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errs.Unauthorized("Malformed token claims", nil)
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", errs.Unauthorized("Token carries no email claim", nil)
	}
	return email, nil
}

// resolveRole checks the redis role cache before hitting the store; the
// cache is invalidated whenever a role changes.
func (g *Guard) resolveRole(ctx context.Context, email string) (user.Role, error) {
	key := cache.RoleKey(email)
	if g.redis != nil {
		if cached, err := g.redis.Get(ctx, key).Result(); err == nil && cached != "" {
			return user.Role(cached), nil
		}
	}

	role, err := g.roles.GetRoleByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if g.redis != nil {
		if err := g.redis.Set(ctx, key, string(role), g.roleTTL).Err(); err != nil {
			g.logger.Warn("Failed to cache user role", logger.String("email", email), logger.Err(err))
		}
	}
	return role, nil
}
