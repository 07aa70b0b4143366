package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func TestPostGoogleLogin(t *testing.T) {
	t.Run("success with valid JWT", func(t *testing.T) {
		validJWT := "valid.jwt.token"
		validEmail := "test@example.com"
		expiresTime := time.Now().Add(time.Hour).Unix()

		api := newTestAPI(&mockDB{}, LOCAL)
		api.googleIdVerifier = &mockGoogleIdVerifier{
			ValidateFunc: func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error) {
				assert.Equal(t, validJWT, idToken)
				assert.Equal(t, testClientID, audience)
				return &idtoken.Payload{
					Expires: expiresTime,
					Claims: map[string]any{
						"email": validEmail,
					},
				}, nil
			},
		}

		resp := api.PostGoogleLogin(testCtx, PostGoogleLoginRequest{
			Body: &GoogleLogin{GoogleJWT: validJWT},
		})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotNil(t, resp.Cookie)
		setCookie := resp.Cookie.String()
		assert.Contains(t, setCookie, googleAuthJWTCookieKey+"="+validJWT)
		assert.Contains(t, setCookie, "Domain="+testAdminDomain)
		assert.Contains(t, setCookie, "Path=/")
		assert.Contains(t, setCookie, "HttpOnly")
		assert.Contains(t, setCookie, "SameSite=Strict")
		// For LOCAL env, Secure should not be set
		assert.NotContains(t, setCookie, "Secure")
	})

	t.Run("success with PROD environment sets secure cookie", func(t *testing.T) {
		api := newTestAPI(&mockDB{}, PROD)

		resp := api.PostGoogleLogin(testCtx, PostGoogleLoginRequest{
			Body: &GoogleLogin{GoogleJWT: "valid.jwt.token"},
		})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotNil(t, resp.Cookie)
		assert.Contains(t, resp.Cookie.String(), "Secure")
	})

	t.Run("invalid JWT returns 401", func(t *testing.T) {
		for name, verifyErr := range map[string]error{
			"invalid":        errors.New("invalid token"),
			"expired":        errors.New("token is expired"),
			"wrong audience": errors.New("audience mismatch"),
		} {
			t.Run(name, func(t *testing.T) {
				api := newTestAPI(&mockDB{}, LOCAL)
				api.googleIdVerifier = &mockGoogleIdVerifier{
					ValidateFunc: func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error) {
						return nil, verifyErr
					},
				}

				resp := api.PostGoogleLogin(testCtx, PostGoogleLoginRequest{
					Body: &GoogleLogin{GoogleJWT: "some.jwt.token"},
				})

				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
				assert.Nil(t, resp.Cookie)
				assert.Equal(t, Error{Code: AuthError, Message: "Invalid JWT"}, resp.Body)
			})
		}
	})

	t.Run("empty body", func(t *testing.T) {
		api := newTestAPI(&mockDB{}, LOCAL)

		resp := api.PostGoogleLogin(testCtx, PostGoogleLoginRequest{})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, EmptyBody, resp.Body.(Error).Code)
	})

	t.Run("cookie expiration matches JWT expiration", func(t *testing.T) {
		futureTime := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)

		api := newTestAPI(&mockDB{}, LOCAL)
		api.googleIdVerifier = &mockGoogleIdVerifier{
			ValidateFunc: func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error) {
				return &idtoken.Payload{
					Expires: futureTime.Unix(),
					Claims:  map[string]any{"email": "test@example.com"},
				}, nil
			},
		}

		resp := api.PostGoogleLogin(testCtx, PostGoogleLoginRequest{
			Body: &GoogleLogin{GoogleJWT: "valid.jwt.token"},
		})

		require.NotNil(t, resp.Cookie)
		assert.Contains(t, resp.Cookie.String(), "Expires="+futureTime.Format(http.TimeFormat))
	})
}

func TestValidateGoogleOauthToken(t *testing.T) {
	t.Run("admin domain passes the admin scope", func(t *testing.T) {
		api := newTestAPI(&mockDB{}, LOCAL)

		jwt, err := api.validateGoogleOauthToken(context.Background(), "token", []string{adminScope})

		require.NoError(t, err)
		assert.Equal(t, testAdminDomain, jwt.Claims["hd"])
	})

	t.Run("other domains are rejected", func(t *testing.T) {
		api := newTestAPI(&mockDB{}, LOCAL)
		api.googleIdVerifier = &mockGoogleIdVerifier{
			ValidateFunc: func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error) {
				return &idtoken.Payload{Claims: map[string]any{"hd": "gmail.com"}}, nil
			},
		}

		_, err := api.validateGoogleOauthToken(context.Background(), "token", []string{adminScope})

		assert.Error(t, err)
	})

	t.Run("missing hd claim is rejected", func(t *testing.T) {
		api := newTestAPI(&mockDB{}, LOCAL)
		api.googleIdVerifier = &mockGoogleIdVerifier{
			ValidateFunc: func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error) {
				return &idtoken.Payload{Claims: map[string]any{}}, nil
			},
		}

		_, err := api.validateGoogleOauthToken(context.Background(), "token", []string{adminScope})

		assert.Error(t, err)
	})

	t.Run("unknown scope", func(t *testing.T) {
		api := newTestAPI(&mockDB{}, LOCAL)

		_, err := api.validateGoogleOauthToken(context.Background(), "token", []string{"superuser"})

		assert.ErrorContains(t, err, "unknown scope")
	})
}
