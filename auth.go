package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 72 * time.Hour

// tokenSubject is the subject of every issued token; there is one user.
const tokenSubject = "owner"

// authConfig is the single user's bcrypt password hash and the JWT signing
// secret. An empty hash disables authentication.
type authConfig struct {
	passwordHash []byte
	jwtSecret    []byte
}

func (a authConfig) enabled() bool { return len(a.passwordHash) > 0 }

// login verifies the password and returns a signed token.
// POST /api/login (public, no auth required).
func (h *Handler) login(c *gin.Context) {
	if !h.auth.enabled() {
		apiError(c, http.StatusNotFound, "authentication is disabled")
		return
	}
	var body struct {
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &body) {
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.auth.passwordHash, []byte(body.Password)); err != nil {
		h.log.Warn("failed login attempt", zap.String("ip", c.ClientIP()))
		apiError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	expires := time.Now().Add(tokenTTL)
	token, err := h.issueToken(expires)
	if err != nil {
		h.internalError(c, err, "failed to issue token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expires.UTC().Format(time.RFC3339)})
}

func (h *Handler) issueToken(expires time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	return token.SignedString(h.auth.jwtSecret)
}

func (h *Handler) parseToken(raw string) error {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return h.auth.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithSubject(tokenSubject))
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

// wsPath is the only route that takes the token as a query parameter.
const wsPath = "/api/ws"

// authMiddleware validates the Bearer token. Browsers cannot set headers on
// a websocket handshake, so the websocket route also accepts ?token=.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.auth.enabled() {
			c.Next()
			return
		}
		var raw string
		if c.FullPath() == wsPath {
			raw = c.Query("token")
		}
		if header := c.GetHeader("Authorization"); header != "" {
			if !strings.HasPrefix(header, "Bearer ") {
				apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
				c.Abort()
				return
			}
			raw = strings.TrimPrefix(header, "Bearer ")
		}
		if raw == "" {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		if err := h.parseToken(raw); err != nil {
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Next()
	}
}
