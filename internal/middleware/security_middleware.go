package middleware

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"go-hardware-pos/internal/auth"

	"github.com/gin-gonic/gin"
)

// Context keys set by the guards below.
const (
	KeyUserID = "userID"
	KeyRole   = "role"
	KeyScope  = "scope"
)

// BranchHeader selects the branch a request works in.
const BranchHeader = "X-Branch-ID"

// AuthMiddleware checks if the user has a valid JWT token
func AuthMiddleware(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get the token from the "Authorization" header
		// Format: "Bearer <token>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		// 2. Remove the "Bearer " prefix
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer"})
			return
		}

		// 3. Validate the token
		claims, err := tokens.Validate(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		role, err := auth.ParseRole(claims.Role)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// 4. Store user info in the context for the next handler
		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyRole, role)

		c.Next()
	}
}

// RequireRole is a secondary guard that checks for specific permissions
func RequireRole(allowed ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(KeyRole)
		r, ok := role.(auth.Role)
		if !ok || !slices.Contains(allowed, r) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
			return
		}
		c.Next()
	}
}

// Memberships lists the branches a user belongs to, lowest id first.
type Memberships interface {
	MemberBranches(ctx context.Context, userID uint) ([]uint, error)
}

// BranchScope resolves the working branch. An X-Branch-ID header must name a
// branch the user belongs to; without it the lowest-id membership is used.
// Must run after AuthMiddleware.
func BranchScope(members Memberships) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)

		ids, err := members.MemberBranches(c.Request.Context(), actor.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load branches"})
			return
		}

		scope := auth.Scope{Actor: actor, BranchIDs: ids}
		if raw := c.GetHeader(BranchHeader); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || !scope.CanAccessBranch(uint(id)) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not belong to this branch"})
				return
			}
			scope.CurrentBranchID = uint(id)
		} else if len(ids) > 0 {
			scope.CurrentBranchID = ids[0]
		}

		c.Set(KeyScope, scope)
		c.Next()
	}
}

// ActorFrom reads what AuthMiddleware stored.
func ActorFrom(c *gin.Context) auth.Actor {
	userID, _ := c.Get(KeyUserID)
	role, _ := c.Get(KeyRole)
	id, _ := userID.(uint)
	r, _ := role.(auth.Role)
	return auth.Actor{UserID: id, Role: r}
}

// ScopeFrom reads what BranchScope stored.
func ScopeFrom(c *gin.Context) auth.Scope {
	if v, ok := c.Get(KeyScope); ok {
		if s, ok := v.(auth.Scope); ok {
			return s
		}
	}
	return auth.Scope{Actor: ActorFrom(c)}
}
