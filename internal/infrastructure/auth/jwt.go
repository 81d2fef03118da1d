package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"metergate/internal/shared/biztime"
)

// Role scopes what a token may call. Service tokens drive the quota API on
// behalf of one organization; admin tokens drive the management API.
type Role string

const (
	RoleService Role = "service"
	RoleAdmin   Role = "admin"
)

type Claims struct {
	OrgSID string `json:"org_sid,omitempty"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret           []byte
	accessExpMinutes int
}

func NewJWTService(secret string, accessExpMinutes int) *JWTService {
	return &JWTService{
		secret:           []byte(secret),
		accessExpMinutes: accessExpMinutes,
	}
}

// GenerateServiceToken issues a token scoped to one organization.
func (s *JWTService) GenerateServiceToken(orgSID string) (string, error) {
	return s.generate(orgSID, RoleService)
}

// GenerateAdminToken issues a token for the management API.
func (s *JWTService) GenerateAdminToken() (string, error) {
	return s.generate("", RoleAdmin)
}

func (s *JWTService) generate(orgSID string, role Role) (string, error) {
	now := biztime.NowUTC()
	exp := now.Add(time.Duration(s.accessExpMinutes) * time.Minute)

	claims := &Claims{
		OrgSID: orgSID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, returning its claims.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
