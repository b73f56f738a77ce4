package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"anoa.com/fitquest/internal/entity"
	userRepo "anoa.com/fitquest/internal/modules/user/repository"
	"anoa.com/fitquest/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// clockSkew is how far an athlete device clock may drift from ours.
const clockSkew = 30 * time.Second

var (
	errNoToken      = errors.New("authorization required")
	errBadToken     = errors.New("invalid or expired token")
	errBadSubject   = errors.New("token subject is not a user id")
	errNotAdmin     = errors.New("admin access required")
	errUnknownActor = errors.New("user not found")
)

// AuthMiddleware verifies HS256 tokens minted by the identity provider. The
// token subject is the athlete id; it is parsed once here and handlers read
// it back with response.GetUserID.
type AuthMiddleware struct {
	users  userRepo.UserRepository
	parser *jwt.Parser
	secret []byte
}

func NewAuthMiddleware(users userRepo.UserRepository, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		users: users,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockSkew),
		),
		secret: []byte(secret),
	}
}

// bearerToken prefers the Authorization header and falls back to ?token=
// for clients that cannot set headers (event streams).
func bearerToken(c *gin.Context) string {
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return c.Query("token")
}

func (m *AuthMiddleware) athleteID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, errNoToken
	}
	var claims jwt.RegisteredClaims
	if _, err := m.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}); err != nil {
		return uuid.Nil, errBadToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errBadSubject
	}
	return id, nil
}

func reject(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := m.athleteID(bearerToken(c))
		if err != nil {
			reject(c, http.StatusUnauthorized, err)
			return
		}
		response.SetUserID(c, id)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := response.GetUserID(c)
		if err != nil {
			reject(c, http.StatusUnauthorized, errNoToken)
			return
		}
		user, err := m.users.FindByID(c.Request.Context(), id.String())
		if err != nil {
			reject(c, http.StatusUnauthorized, errUnknownActor)
			return
		}
		if user.Role.Name != entity.RoleAdmin {
			reject(c, http.StatusForbidden, errNotAdmin)
			return
		}
		c.Next()
	}
}
