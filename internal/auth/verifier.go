package auth

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/leaderboard-service/internal/config"
	"github.com/SAP-F-2025/leaderboard-service/internal/models"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is what the service needs to know about the caller.
type Claims struct {
	UserID string
	Role   models.UserRole
}

// TokenVerifier turns a bearer token into claims.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// CasdoorVerifier validates JWTs issued by the platform's Casdoor instance.
type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

func NewCasdoorVerifier(cfg config.CasdoorConfig) *CasdoorVerifier {
	return &CasdoorVerifier{
		client: casdoorsdk.NewClient(
			cfg.Endpoint,
			cfg.ClientID,
			cfg.ClientSecret,
			cfg.Certificate,
			cfg.OrganizationName,
			cfg.ApplicationName,
		),
	}
}

func (v *CasdoorVerifier) Verify(token string) (*Claims, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claimsFromUser(claims.User), nil
}

func claimsFromUser(u casdoorsdk.User) *Claims {
	role := models.RoleStudent
	switch {
	case u.IsAdmin:
		role = models.RoleAdmin
	case u.Type == string(models.RoleInstructor):
		role = models.RoleInstructor
	}

	return &Claims{
		UserID: u.Id,
		Role:   role,
	}
}
