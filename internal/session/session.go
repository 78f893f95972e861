package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDispatcher Role = "dispatcher"
	RoleUser       Role = "user"
	RoleDriver     Role = "driver"
)

// ParseRole normalizes case and whitespace. Unknown roles return ok=false.
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case RoleAdmin, RoleDispatcher, RoleUser, RoleDriver:
		return r, true
	}
	return r, false
}

// Session is the authenticated identity plus its token pair.
type Session struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
}

// IsAuthenticated reports whether both tokens and a user record are present.
func (s *Session) IsAuthenticated() bool {
	if s == nil {
		return false
	}
	return s.AccessToken != "" && s.RefreshToken != "" && s.UserID != "" && s.Role != ""
}

// AccessExpiry reads the exp claim of the access token without verifying it.
// ok is false when the token is not a JWT or carries no exp.
func (s *Session) AccessExpiry() (time.Time, bool) {
	if s == nil || s.AccessToken == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
