package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const googleAuthJWTCookieKey = "GOOGLE_AUTH_JWT"

type PostGoogleLoginRequest struct {
	Body *GoogleLogin
}

func (a *API) PostGoogleLogin(ctx context.Context, request PostGoogleLoginRequest) Response {
	logger := getLoggerFromCtx(ctx)

	if request.Body == nil || request.Body.GoogleJWT == "" {
		return errorResponse(http.StatusBadRequest, EmptyBody, "Must specify a googleJWT")
	}

	jwtPayload, err := a.googleIdVerifier.Validate(ctx, request.Body.GoogleJWT, a.config.GoogleClientID)
	if err != nil {
		logger.Warn("failed google login", slog.String("error", err.Error()))
		return errorResponse(http.StatusUnauthorized, AuthError, "Invalid JWT")
	}

	logger.Info("successful login", slog.Any("email", jwtPayload.Claims["email"]))

	cookie := &http.Cookie{
		Name:     googleAuthJWTCookieKey,
		Value:    request.Body.GoogleJWT,
		Expires:  time.Unix(jwtPayload.Expires, 0),
		Domain:   a.config.CookieDomain,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.env == PROD,
		SameSite: http.SameSiteStrictMode,
	}

	return Response{
		StatusCode: http.StatusOK,
		Cookie:     cookie,
	}
}
