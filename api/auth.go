package api

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3filter"
	"google.golang.org/api/idtoken"
)

const (
	adminScope        = "admin"
	adminSecurityName = "adminCookie"
)

func (a *API) scopeValidators() map[string]func(jwt *idtoken.Payload) error {
	return map[string]func(jwt *idtoken.Payload) error{
		adminScope: func(jwt *idtoken.Payload) error {
			org, ok := jwt.Claims["hd"]
			if !ok {
				return fmt.Errorf("hd claim not in JWT")
			}
			if org != a.config.AdminDomain {
				return fmt.Errorf("user is not an admin")
			}

			return nil
		},
	}
}

func (a *API) validateGoogleOauthToken(ctx context.Context, token string, scopes []string) (*idtoken.Payload, error) {
	jwt, err := a.googleIdVerifier.Validate(ctx, token, a.config.GoogleClientID)
	if err != nil {
		return nil, err
	}

	validators := a.scopeValidators()
	for _, scope := range scopes {
		validator, ok := validators[scope]
		if !ok {
			return nil, fmt.Errorf("unknown scope: %q", scope)
		}

		err = validator(jwt)
		if err != nil {
			return nil, fmt.Errorf("user does not have scope %q", scope)
		}
	}

	return jwt, nil
}

// authenticate checks the admin cookie of operations secured by it. The
// cookie's presence is already checked by the validator.
func (a *API) authenticate(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
	if input.SecuritySchemeName != adminSecurityName {
		return fmt.Errorf("unknown security scheme %q", input.SecuritySchemeName)
	}

	cookie, err := input.RequestValidationInput.Request.Cookie(googleAuthJWTCookieKey)
	if err != nil {
		return fmt.Errorf("missing %s cookie: %w", googleAuthJWTCookieKey, err)
	}

	jwt, err := a.validateGoogleOauthToken(ctx, cookie.Value, []string{adminScope})
	if err != nil {
		a.getLoggerOrBaseLogger(input.RequestValidationInput.Request.Context()).Warn("rejected admin request", "error", err)
		return err
	}

	a.getLoggerOrBaseLogger(input.RequestValidationInput.Request.Context()).Debug("admin request", "email", jwt.Claims["email"])

	return nil
}
