package account

import (
	"context"

	"todofront/pkg/flow"
	"todofront/pkg/graphql"
	"todofront/pkg/messages"
)

// LoginValidator requires both email and password.
func LoginValidator(s Settings) flow.Validator {
	cat := s.catalog()
	return func(form flow.FormState) error {
		for _, field := range []string{FieldEmail, FieldPassword} {
			if form.Get(field) == "" {
				return flow.Invalid(field, cat.Text(messages.EmailPasswordRequired))
			}
		}
		return nil
	}
}

// NewLogin creates the login flow. On success the API session cookie lands in
// the jar of the transport behind api.
func NewLogin(api Authenticator, s Settings, opts ...flow.Option) *flow.Flow[graphql.User] {
	op := func(ctx context.Context, form flow.FormState) (flow.Outcome[graphql.User], error) {
		payload, err := api.LoginUser(ctx, graphql.LoginUserInput{
			Email:    form.Get(FieldEmail),
			Password: form.Get(FieldPassword),
		})
		if err != nil {
			return flow.Outcome[graphql.User]{}, err
		}
		return authOutcome(payload), nil
	}

	base := []flow.Option{
		flow.WithValidator(LoginValidator(s)),
		flow.WithFallbackMessage(s.catalog().Text(messages.LoginFailed)),
	}
	return flow.New(LoginFlow, op, append(base, opts...)...)
}
