package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"metergate/internal/infrastructure/auth"
	"metergate/internal/shared/logger"
	"metergate/internal/shared/utils"
)

const (
	ContextKeyOrgSID = "org_sid"
	ContextKeyRole   = "role"
)

type AuthMiddleware struct {
	jwtService *auth.JWTService
	logger     logger.Interface
}

func NewAuthMiddleware(jwtService *auth.JWTService, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		logger:     logger,
	}
}

// RequireAuth accepts any valid bearer token and stores its identity on the
// context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.verify(c)
		if !ok {
			return
		}

		c.Set(ContextKeyOrgSID, claims.OrgSID)
		c.Set(ContextKeyRole, string(claims.Role))
		c.Next()
	}
}

// RequireAdmin accepts only admin-role tokens.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.verify(c)
		if !ok {
			return
		}
		if claims.Role != auth.RoleAdmin {
			utils.ErrorResponse(c, http.StatusForbidden, "admin access required")
			c.Abort()
			return
		}

		c.Set(ContextKeyRole, string(claims.Role))
		c.Next()
	}
}

func (m *AuthMiddleware) verify(c *gin.Context) (*auth.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
		c.Abort()
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization header format")
		c.Abort()
		return nil, false
	}

	claims, err := m.jwtService.Validate(parts[1])
	if err != nil {
		m.logger.Warnw("failed to validate token", "error", err)
		utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
		c.Abort()
		return nil, false
	}
	return claims, true
}

// OrgSID returns the authenticated organization SID, empty for admin tokens.
func OrgSID(c *gin.Context) string {
	return c.GetString(ContextKeyOrgSID)
}
