package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sports-festival/festival-registration/ptr"
	"github.com/sports-festival/festival-registration/slices"
	"github.com/sports-festival/festival-registration/sports"
)

type GetSportsRequest struct {
	Params ListParams
}

func (a *API) GetSports(ctx context.Context, request GetSportsRequest) Response {
	logger := getLoggerFromCtx(ctx)

	limit, err := limitFromParams(request.Params)
	if err != nil {
		return errorResponse(http.StatusBadRequest, LimitOutOfBounds, "Limit must be between 1 and 50")
	}

	result, err := a.db.GetSports(ctx, limit, request.Params.Cursor)
	if err != nil {
		return sportsErrorResponse(logger, err, "Failed to get sports")
	}

	return jsonResponse(http.StatusOK, SportsPage{
		Data:        slices.Map(result.Data, sportToApiSport),
		Cursor:      result.Cursor,
		HasNextPage: result.HasNextPage,
	})
}

type GetSportsIdRequest struct {
	Id uuid.UUID
}

func (a *API) GetSportsId(ctx context.Context, request GetSportsIdRequest) Response {
	logger := getLoggerFromCtx(ctx)

	sport, err := a.db.GetSport(ctx, request.Id)
	if err != nil {
		return sportsErrorResponse(logger, err, "Failed to get sport")
	}

	return jsonResponse(http.StatusOK, sportToApiSport(sport))
}

type PostSportsRequest struct {
	Body *Sport
}

func (a *API) PostSports(ctx context.Context, request PostSportsRequest) Response {
	logger := getLoggerFromCtx(ctx)

	if request.Body == nil {
		return errorResponse(http.StatusBadRequest, EmptyBody, "Must specify a JSON body in the request")
	}

	sport, err := sports.CreateSport(ctx, a.db, apiSportToSport(*request.Body))
	if err != nil {
		return sportsErrorResponse(logger, err, "Failed to create the sport")
	}

	return jsonResponse(http.StatusOK, sportToApiSport(sport))
}

type PutSportsIdRequest struct {
	Id   uuid.UUID
	Body *Sport
}

func (a *API) PutSportsId(ctx context.Context, request PutSportsIdRequest) Response {
	logger := getLoggerFromCtx(ctx)

	if request.Body == nil {
		return errorResponse(http.StatusBadRequest, EmptyBody, "Must specify a JSON body in the request")
	}

	sport, err := sports.UpdateSport(ctx, a.db, request.Id, apiSportToSport(*request.Body))
	if err != nil {
		return sportsErrorResponse(logger, err, "Failed to update the sport")
	}

	return jsonResponse(http.StatusOK, sportToApiSport(sport))
}

func sportToApiSport(s sports.Sport) Sport {
	return Sport{
		Id:              &s.ID,
		Version:         &s.Version,
		Name:            s.Name,
		Category:        string(s.Category),
		AgeGroups:       s.AgeGroups,
		Disciplines:     s.Disciplines,
		NumStudents:     ptr.Int(s.NumStudents),
		NumInstitutions: ptr.Int(s.NumInstitutions),
	}
}

// apiSportToSport ignores id, version and counts. Those are owned by the
// server.
func apiSportToSport(s Sport) sports.Sport {
	return sports.Sport{
		Name:        s.Name,
		Category:    sports.Category(s.Category),
		AgeGroups:   s.AgeGroups,
		Disciplines: s.Disciplines,
	}
}
