package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// represents JWT claims issued by the LMS for a chat user
type Claims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	Role    string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
