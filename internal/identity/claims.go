package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the identity attributes this client reads from a token.
// Group membership drives the role flags; everything else is display-only.
type Claims struct {
	Email  string
	Groups []string
}

// ParseClaims extracts claims from a provider token without verifying the
// signature. Authorization decisions stay with the backend, which checks
// the token on every call; local claims only seed the UI before the first
// whoami answer arrives.
func ParseClaims(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}

	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims shape")
	}

	claims := &Claims{}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if raw, ok := mapClaims["cognito:groups"].([]any); ok {
		for _, g := range raw {
			if name, ok := g.(string); ok {
				claims.Groups = append(claims.Groups, name)
			}
		}
	}
	return claims, nil
}
