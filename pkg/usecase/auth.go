package usecase

import (
	"context"
	"strings"

	"github.com/ReliveRS/RecordNote/pkg/client"
)

// AuthService is the slice of the API client the auth use cases need.
// *client.Client satisfies it.
type AuthService interface {
	SignUp(ctx context.Context, name, email, password string) (*client.AuthResponse, error)
	SignIn(ctx context.Context, email, password string) (*client.AuthResponse, error)
}

// Auth bundles the registration and sign-in use cases.
type Auth struct {
	service AuthService
}

// NewAuth builds the auth use cases over an API client.
func NewAuth(service AuthService) *Auth {
	return &Auth{service: service}
}

// Register validates the fields and creates the account.
func (a *Auth) Register(ctx context.Context, name, email, password string) (*client.AuthResponse, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, invalid("name", "must not be blank")
	}
	if !ValidEmail(email) {
		return nil, invalid("email", "malformed address")
	}
	if len(password) < MinPasswordLength {
		return nil, invalid("password", "too short")
	}
	return a.service.SignUp(ctx, name, email, password)
}

// Login validates the fields and authenticates.
func (a *Auth) Login(ctx context.Context, email, password string) (*client.AuthResponse, error) {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return nil, invalid("email", "malformed address")
	}
	if password == "" {
		return nil, invalid("password", "must not be blank")
	}
	return a.service.SignIn(ctx, email, password)
}
