package auth

import "github.com/golang-jwt/jwt/v5"

// Authenticator validates identity tokens issued by the external identity
// provider. GenerateToken exists for local tooling and tests.
type Authenticator interface {
	GenerateToken(subject, role string) (string, error)
	ValidateAccessToken(token string) (*jwt.Token, error)
}
