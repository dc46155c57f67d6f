package utils

import (
	"errors"
	"log/slog"
	"time"

	"github.com/contentflow/contentflow-api/internal/transfer"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const TokenAudience = "authenticated"

func GenerateToken(secretKey string, user transfer.CurrentUser, tokenDuration time.Duration) (string, error) {
	claims := transfer.CustomClaims{
		UserRole: user.Role,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID.String(),
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if user.HasOrganization() {
		claims.OrganizationID = user.OrganizationID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secretKey))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return signedToken, nil
}

func ValidateToken(secretKey, tokenString string) (*transfer.CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &transfer.CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if claims, ok := token.Claims.(*transfer.CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// CurrentUserFromClaims requires a UUID subject. A missing or malformed
// organization claim leaves OrganizationID empty.
func CurrentUserFromClaims(claims *transfer.CustomClaims) (transfer.CurrentUser, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return transfer.CurrentUser{}, errors.New("token subject is not a valid user id")
	}

	user := transfer.CurrentUser{UserID: userID, Role: claims.UserRole, Email: claims.Email}
	if orgID, err := uuid.Parse(claims.OrganizationID); err == nil {
		user.OrganizationID = orgID
	}
	return user, nil
}
