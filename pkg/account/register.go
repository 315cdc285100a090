package account

import (
	"context"
	"unicode/utf8"

	"todofront/pkg/flow"
	"todofront/pkg/graphql"
	"todofront/pkg/messages"
)

// RegistrationValidator reports the first failing registration check. Missing
// fields are checked before the confirmation, and the length check runs last.
func RegistrationValidator(s Settings) flow.Validator {
	cat := s.catalog()
	minLen := s.minPasswordLength()

	return func(form flow.FormState) error {
		for _, field := range []string{FieldName, FieldEmail, FieldPassword} {
			if form.Get(field) == "" {
				return flow.Invalid(field, cat.Text(messages.FillAllFields))
			}
		}
		if form.Get(FieldPassword) != form.Get(FieldConfirmPassword) {
			return flow.Invalid(FieldConfirmPassword, cat.Text(messages.PasswordMismatch))
		}
		if utf8.RuneCountInString(form.Get(FieldPassword)) < minLen {
			return flow.Invalid(FieldPassword, cat.Text(messages.PasswordTooShort, minLen))
		}
		return nil
	}
}

// NewRegistration creates the registration flow. Pass flow.WithRedirect to
// navigate after success.
func NewRegistration(api Registrar, s Settings, opts ...flow.Option) *flow.Flow[graphql.User] {
	op := func(ctx context.Context, form flow.FormState) (flow.Outcome[graphql.User], error) {
		payload, err := api.RegisterUser(ctx, graphql.RegisterUserInput{
			Name:     form.Get(FieldName),
			Email:    form.Get(FieldEmail),
			Password: form.Get(FieldPassword),
		})
		if err != nil {
			return flow.Outcome[graphql.User]{}, err
		}
		return authOutcome(payload), nil
	}

	base := []flow.Option{
		flow.WithValidator(RegistrationValidator(s)),
		flow.WithFallbackMessage(s.catalog().Text(messages.RegisterFailed)),
	}
	return flow.New(RegisterFlow, op, append(base, opts...)...)
}
