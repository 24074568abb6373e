package http

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/codify/internal/infra/authtoken"
)

const (
	authClaimsKey = "auth_claims"
	// devUserHeader identifies the caller when token auth is disabled.
	devUserHeader = "X-User-Id"
)

func setClaims(c *gin.Context, claims authtoken.Claims) {
	c.Set(authClaimsKey, claims)
}

func getClaims(c *gin.Context) (authtoken.Claims, bool) {
	value, ok := c.Get(authClaimsKey)
	if !ok {
		return authtoken.Claims{}, false
	}
	claims, ok := value.(authtoken.Claims)
	return claims, ok
}

// callerID returns the authenticated user, falling back to the dev header
// only when no verifier ran for this request.
func callerID(c *gin.Context) (int64, bool) {
	if claims, ok := getClaims(c); ok {
		return claims.UserID, true
	}
	if _, secured := c.Get(authEnforcedKey); secured {
		return 0, false
	}
	raw := strings.TrimSpace(c.GetHeader(devUserHeader))
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
