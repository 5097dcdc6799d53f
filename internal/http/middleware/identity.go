package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/regdraft-backend/internal/http/response"
	"github.com/yungbote/regdraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

const headerReviewer = "X-Reviewer"

// ReviewerClaims is the token shape accepted by Identity. Name wins over the
// subject when both are present.
type ReviewerClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Identity attaches the acting reviewer to the request context. A bearer
// token is verified when a secret is configured; without a token the
// X-Reviewer header is trusted as-is. Requests with neither stay anonymous.
type Identity struct {
	log    *logger.Logger
	secret []byte
	parser *jwt.Parser
}

func NewIdentity(log *logger.Logger, secret string) *Identity {
	return &Identity{
		log:    log.With("middleware", "Identity"),
		secret: []byte(strings.TrimSpace(secret)),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}
}

func (m *Identity) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ""
		if token := bearerToken(c); token != "" {
			name, err := m.verify(token)
			if err != nil {
				m.log.Debug("rejected bearer token", "error", err)
				response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("invalid or expired token"))
				c.Abort()
				return
			}
			actor = name
		} else {
			actor = strings.TrimSpace(c.GetHeader(headerReviewer))
		}
		if actor != "" {
			c.Request = c.Request.WithContext(ctxutil.WithActor(c.Request.Context(), actor))
		}
		c.Next()
	}
}

func (m *Identity) verify(token string) (string, error) {
	if len(m.secret) == 0 {
		return "", errors.New("token auth is not configured")
	}
	claims := &ReviewerClaims{}
	parsed, err := m.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", errors.New("invalid token")
	}
	if name := strings.TrimSpace(claims.Name); name != "" {
		return name, nil
	}
	if sub := strings.TrimSpace(claims.Subject); sub != "" {
		return sub, nil
	}
	return "", errors.New("token has no subject")
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
