package domain

import "github.com/golang-jwt/jwt/v5"

// Claims are the identity token claims the service cares about
type Claims struct {
	Admin bool   `json:"admin,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity is a verified caller
type Identity struct {
	Subject string
	Email   string
	Admin   bool
}

// Identity extracts the verified caller from the claims
func (c *Claims) Identity() Identity {
	return Identity{Subject: c.Subject, Email: c.Email, Admin: c.Admin}
}
