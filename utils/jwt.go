package utils

import (
	"time"

	"sidesa/models"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateJWT mints a token carrying the caller identity the workflow core
// consumes: user id, username and role. Role is assigned at account creation
// and immutable for the token's lifetime.
func GenerateJWT(userID int64, username string, role models.Role, secret []byte, expiresInHours int) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"role":     string(role),
		"exp":      now.Add(time.Duration(expiresInHours) * time.Hour).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
