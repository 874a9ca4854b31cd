package middleware

import (
	"net/http"

	"github.com/expenso-dev/expenso/internal/auth"
	"github.com/expenso-dev/expenso/internal/types"
	"github.com/gin-gonic/gin"
)

// SocketAuthMiddleware authenticates a websocket handshake. The credential
// is read from the session cookie only, never from query parameters, which
// end up in access logs and referrer headers. Rejection happens before the
// upgrade; an unauthenticated connection is never bound.
func SocketAuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cookie, err := ctx.Cookie(types.AccessTokenCookie)

		if err != nil || cookie == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication cookie is required"})
			return
		}

		token, err := auth.VerifyJWT(cookie)

		if err != nil || !token.Valid {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		userID, err := auth.UserIDFromToken(token)

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		ctx.Set(types.ContextUserKey, AuthenticatedUser{ID: userID})
		ctx.Next()
	}
}
