// Package account builds the registration and login flows.
package account

import (
	"context"

	"todofront/pkg/flow"
	"todofront/pkg/graphql"
	"todofront/pkg/messages"
)

// Form field names.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// Flow names used in logs and metrics.
const (
	RegisterFlow = "register"
	LoginFlow    = "login"
)

// DefaultMinPasswordLength is the shortest password registration accepts.
const DefaultMinPasswordLength = 6

// Registrar is the API surface the registration flow needs.
type Registrar interface {
	RegisterUser(ctx context.Context, input graphql.RegisterUserInput) (*graphql.AuthPayload, error)
}

// Authenticator is the API surface the login flow needs.
type Authenticator interface {
	LoginUser(ctx context.Context, input graphql.LoginUserInput) (*graphql.AuthPayload, error)
}

// Settings carries the localized messages and validation limits.
type Settings struct {
	Catalog           *messages.Catalog
	MinPasswordLength int
}

func (s Settings) catalog() *messages.Catalog {
	if s.Catalog == nil {
		return messages.MustFor(messages.DefaultLocale)
	}
	return s.Catalog
}

func (s Settings) minPasswordLength() int {
	if s.MinPasswordLength <= 0 {
		return DefaultMinPasswordLength
	}
	return s.MinPasswordLength
}

func authOutcome(payload *graphql.AuthPayload) flow.Outcome[graphql.User] {
	if !payload.Success {
		return flow.Rejected[graphql.User](payload.Message)
	}
	var u graphql.User
	if payload.User != nil {
		u = *payload.User
	}
	return flow.Success(u, payload.Message)
}
