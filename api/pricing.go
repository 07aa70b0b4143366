package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sports-festival/festival-registration/fees"
)

type GetPricingKindRequest struct {
	Kind string
}

func (a *API) GetPricingKind(ctx context.Context, request GetPricingKindRequest) Response {
	logger := getLoggerFromCtx(ctx)

	kind, err := fees.ParseItemKind(request.Kind)
	if err != nil {
		return errorResponse(http.StatusNotFound, NotFound, err.Error())
	}

	table, err := a.pricing.GetPricing(ctx, kind)
	if err != nil {
		logger.Error("Failed to get pricing", slog.String("kind", string(kind)), slog.String("error", err.Error()))

		return errorResponse(http.StatusInternalServerError, InternalError, "Failed to get pricing")
	}

	return jsonResponse(http.StatusOK, table)
}
