package middleware

import (
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/model-my-watershed/mmw-backend/internal/auth"
)

// FirebaseAuthMiddleware verifies the Bearer ID token and stashes the
// Firebase UID (and email, when the token carries one) on the gin context
// for WithUser to resolve into a database user.
func FirebaseAuthMiddleware(client *fbauth.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing authorization token"})
			return
		}

		token, err := client.VerifyIDToken(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			return
		}

		c.Set(auth.CtxFirebaseUID, token.UID)
		if email, ok := token.Claims["email"].(string); ok {
			c.Set("email", email)
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
