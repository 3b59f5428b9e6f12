package http

import (
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// IdentityMiddleware resolves the connection to a stable identity. A valid
// JWT cookie (HMAC, subject = user id) wins; anything else falls back to
// the per-browser guest token, so anonymous users still get a consistent
// identity across tabs. Identity issuance itself lives outside this service.
func IdentityMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := "guest-" + c.GetString("client_token")

		if tokenString, err := c.Cookie("token"); err == nil && tokenString != "" {
			token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err == nil && token.Valid {
				if claims, ok := token.Claims.(*jwt.RegisteredClaims); ok && claims.Subject != "" {
					userID = claims.Subject
				}
			} else {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("invalid auth token, treating as guest")
			}
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
