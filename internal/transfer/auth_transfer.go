package transfer

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type CustomClaims struct {
	OrganizationID string `json:"organization_id,omitempty"`
	UserRole       string `json:"user_role,omitempty"`
	Email          string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type CurrentUser struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Role           string
	Email          string
}

func (u CurrentUser) HasOrganization() bool {
	return u.OrganizationID != uuid.Nil
}
