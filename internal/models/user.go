package models

import (
	"github.com/dgrijalva/jwt-go"
)

// Claims carried by operator access tokens. Webhook endpoints are
// authenticated by signature instead and never see a JWT.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}
