package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-hclog"

	"github.com/phonginreallife/sentinel/services"
)

// AuthMiddleware accepts HS256 session tokens whose subject is the key of an
// active user. With an empty secret every request is let through.
type AuthMiddleware struct {
	Users      *services.UserService
	Secret     []byte
	CookieName string
	logger     hclog.Logger
}

func NewAuthMiddleware(users *services.UserService, secret, cookieName string, logger hclog.Logger) *AuthMiddleware {
	m := &AuthMiddleware{
		Users:      users,
		Secret:     []byte(secret),
		CookieName: cookieName,
		logger:     namedLogger(logger, "auth"),
	}
	if secret == "" {
		m.logger.Warn("no JWT secret configured, authentication is disabled")
	}
	return m
}

// RequireActiveUser rejects requests without a valid token for an active
// user and stores user_id and user_email in the context.
func (m *AuthMiddleware) RequireActiveUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(m.Secret) == 0 {
			c.Next()
			return
		}

		token, err := m.extractToken(c)
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		claims, err := m.validate(token)
		if err != nil {
			m.logger.Debug("rejected token", "error", err)
			unauthorized(c, "Could not validate credentials")
			return
		}

		user, err := m.Users.GetUser(c.Request.Context(), claims.Subject)
		if err != nil {
			if !errors.Is(err, services.ErrNotFound) {
				m.logger.Error("failed to load user", "key", claims.Subject, "error", err)
			}
			unauthorized(c, "Could not validate credentials")
			return
		}
		if !user.IsActive {
			unauthorized(c, "Inactive user")
			return
		}

		c.Set("user_id", claims.Subject)
		c.Set("user_email", user.Email)
		c.Next()
	}
}

func (m *AuthMiddleware) extractToken(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", errors.New("Invalid authorization header format")
		}
		return parts[1], nil
	}
	if m.CookieName != "" {
		if cookie, err := c.Cookie(m.CookieName); err == nil && cookie != "" {
			return cookie, nil
		}
	}
	return "", errors.New("Not authenticated")
}

func (m *AuthMiddleware) validate(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}
