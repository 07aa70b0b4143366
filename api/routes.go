package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sports-festival/festival-registration/registration"
)

const maxBodyBytes = 1 << 20

// Server is every operation in openapi.yaml.
type Server interface {
	GetCheckpoint(ctx context.Context, request GetCheckpointRequest) Response
	PutCheckpoint(ctx context.Context, request PutCheckpointRequest) Response
	DeleteCheckpoint(ctx context.Context, request DeleteCheckpointRequest) Response

	GetStepDrafts(ctx context.Context, request GetStepDraftsRequest) Response
	PutStepDraft(ctx context.Context, request PutStepDraftRequest) Response

	PostStudents(ctx context.Context, request PostStudentsRequest) Response
	GetStudents(ctx context.Context, request GetStudentsRequest) Response
	GetStudentsId(ctx context.Context, request GetStudentsIdRequest) Response

	PostInstitutions(ctx context.Context, request PostInstitutionsRequest) Response
	GetInstitutions(ctx context.Context, request GetInstitutionsRequest) Response
	GetInstitutionsId(ctx context.Context, request GetInstitutionsIdRequest) Response

	GetSports(ctx context.Context, request GetSportsRequest) Response
	GetSportsId(ctx context.Context, request GetSportsIdRequest) Response
	PostSports(ctx context.Context, request PostSportsRequest) Response
	PutSportsId(ctx context.Context, request PutSportsIdRequest) Response

	GetPricingKind(ctx context.Context, request GetPricingKindRequest) Response

	PostGoogleLogin(ctx context.Context, request PostGoogleLoginRequest) Response
}

type ListParams struct {
	Limit  *int
	Cursor *string
}

func HandlerFromMux(si Server, r *http.ServeMux) {
	r.HandleFunc("GET /checkpoints/{email}", route(func(w http.ResponseWriter, req *http.Request) Response {
		return si.GetCheckpoint(req.Context(), GetCheckpointRequest{Email: req.PathValue("email")})
	}))
	r.HandleFunc("PUT /checkpoints/{email}", route(func(w http.ResponseWriter, req *http.Request) Response {
		body, errResp := decodeBody[registration.Checkpoint](w, req)
		if errResp != nil {
			return *errResp
		}
		return si.PutCheckpoint(req.Context(), PutCheckpointRequest{Email: req.PathValue("email"), Body: body})
	}))
	r.HandleFunc("DELETE /checkpoints/{email}", route(func(w http.ResponseWriter, req *http.Request) Response {
		return si.DeleteCheckpoint(req.Context(), DeleteCheckpointRequest{Email: req.PathValue("email")})
	}))

	r.HandleFunc("GET /drafts/{flow}/{email}", route(func(w http.ResponseWriter, req *http.Request) Response {
		return si.GetStepDrafts(req.Context(), GetStepDraftsRequest{
			Flow:  req.PathValue("flow"),
			Email: req.PathValue("email"),
		})
	}))
	r.HandleFunc("PUT /drafts/{flow}/{email}/steps/{step}", route(func(w http.ResponseWriter, req *http.Request) Response {
		body, errResp := decodeBody[StepPayloadBody](w, req)
		if errResp != nil {
			return *errResp
		}
		return si.PutStepDraft(req.Context(), PutStepDraftRequest{
			Flow:  req.PathValue("flow"),
			Email: req.PathValue("email"),
			Step:  req.PathValue("step"),
			Body:  body,
		})
	}))

	r.HandleFunc("POST /students", route(func(w http.ResponseWriter, req *http.Request) Response {
		body, errResp := decodeBody[SubmitRegistration](w, req)
		if errResp != nil {
			return *errResp
		}
		return si.PostStudents(req.Context(), PostStudentsRequest{Params: registrationParams(req), Body: body})
	}))
	r.HandleFunc("GET /students", route(func(w http.ResponseWriter, req *http.Request) Response {
		params, errResp := listParams(req)
		if errResp != nil {
			return *errResp
		}
		return si.GetStudents(req.Context(), GetStudentsRequest{Params: params})
	}))
	r.HandleFunc("GET /students/{id}", route(func(w http.ResponseWriter, req *http.Request) Response {
		id, errResp := pathId(req)
		if errResp != nil {
			return *errResp
		}
		return si.GetStudentsId(req.Context(), GetStudentsIdRequest{Id: id})
	}))

	r.HandleFunc("POST /institutions", route(func(w http.ResponseWriter, req *http.Request) Response {
		body, errResp := decodeBody[SubmitRegistration](w, req)
		if errResp != nil {
			return *errResp
		}
		return si.PostInstitutions(req.Context(), PostInstitutionsRequest{Params: registrationParams(req), Body: body})
	}))
	r.HandleFunc("GET /institutions", route(func(w http.ResponseWriter, req *http.Request) Response {
		params, errResp := listParams(req)
		if errResp != nil {
			return *errResp
		}
		return si.GetInstitutions(req.Context(), GetInstitutionsRequest{Params: params})
	}))
	r.HandleFunc("GET /institutions/{id}", route(func(w http.ResponseWriter, req *http.Request) Response {
		id, errResp := pathId(req)
		if errResp != nil {
			return *errResp
		}
		return si.GetInstitutionsId(req.Context(), GetInstitutionsIdRequest{Id: id})
	}))

	r.HandleFunc("GET /sports", route(func(w http.ResponseWriter, req *http.Request) Response {
		params, errResp := listParams(req)
		if errResp != nil {
			return *errResp
		}
		return si.GetSports(req.Context(), GetSportsRequest{Params: params})
	}))
	r.HandleFunc("GET /sports/{id}", route(func(w http.ResponseWriter, req *http.Request) Response {
		id, errResp := pathId(req)
		if errResp != nil {
			return *errResp
		}
		return si.GetSportsId(req.Context(), GetSportsIdRequest{Id: id})
	}))
	r.HandleFunc("POST /sports", route(func(w http.ResponseWriter, req *http.Request) Response {
		body, errResp := decodeBody[Sport](w, req)
		if errResp != nil {
			return *errResp
		}
		return si.PostSports(req.Context(), PostSportsRequest{Body: body})
	}))
	r.HandleFunc("PUT /sports/{id}", route(func(w http.ResponseWriter, req *http.Request) Response {
		id, errResp := pathId(req)
		if errResp != nil {
			return *errResp
		}
		body, errResp := decodeBody[Sport](w, req)
		if errResp != nil {
			return *errResp
		}
		return si.PutSportsId(req.Context(), PutSportsIdRequest{Id: id, Body: body})
	}))

	r.HandleFunc("GET /pricing/{kind}", route(func(w http.ResponseWriter, req *http.Request) Response {
		return si.GetPricingKind(req.Context(), GetPricingKindRequest{Kind: req.PathValue("kind")})
	}))

	r.HandleFunc("POST /login/google", route(func(w http.ResponseWriter, req *http.Request) Response {
		body, errResp := decodeBody[GoogleLogin](w, req)
		if errResp != nil {
			return *errResp
		}
		return si.PostGoogleLogin(req.Context(), PostGoogleLoginRequest{Body: body})
	}))
}

func route(handle func(w http.ResponseWriter, req *http.Request) Response) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		writeResponse(w, req, getLoggerFromCtx(req.Context()), handle(w, req))
	}
}

func writeResponse(w http.ResponseWriter, req *http.Request, logger *slog.Logger, resp Response) {
	if resp.Cookie != nil {
		http.SetCookie(w, resp.Cookie)
	}

	if resp.Body == nil {
		w.WriteHeader(resp.StatusCode)
		return
	}

	body, err := json.Marshal(resp.Body)
	if err != nil {
		logger.ErrorContext(req.Context(), "failed to marshal response body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	w.Write(body)
}

// decodeBody decodes the JSON body into T. An empty body decodes to nil so
// handlers can answer with EmptyBody.
func decodeBody[T any](w http.ResponseWriter, req *http.Request) (*T, *Response) {
	if req.Body == nil {
		return nil, nil
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err != nil {
		resp := errorResponse(http.StatusBadRequest, InvalidBody, fmt.Sprintf("Failed to read request body: %s", err))
		return nil, &resp
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var body T
	if err := json.Unmarshal(raw, &body); err != nil {
		resp := errorResponse(http.StatusBadRequest, InvalidBody, fmt.Sprintf("Request body is invalid: %s", err))
		return nil, &resp
	}
	return &body, nil
}

func registrationParams(req *http.Request) RegistrationParams {
	return RegistrationParams{
		CfTurnstileResponse: req.Header.Get("cf-turnstile-response"),
		RemoteIP:            remoteIP(req),
	}
}

// remoteIP prefers the first X-Forwarded-For hop set by the load balancer.
func remoteIP(req *http.Request) string {
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func pathId(req *http.Request) (uuid.UUID, *Response) {
	id, err := uuid.Parse(req.PathValue("id"))
	if err != nil {
		resp := errorResponse(http.StatusBadRequest, InputValidationError, "id must be a UUID")
		return uuid.Nil, &resp
	}
	return id, nil
}

func listParams(req *http.Request) (ListParams, *Response) {
	var params ListParams

	query := req.URL.Query()
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			resp := errorResponse(http.StatusBadRequest, InputValidationError, "limit must be an integer")
			return ListParams{}, &resp
		}
		params.Limit = &limit
	}
	if v := query.Get("cursor"); v != "" {
		params.Cursor = &v
	}

	return params, nil
}

var errLimitOutOfBounds = errors.New("limit out of bounds")

const (
	defaultLimit = 10
	maxLimit     = 50
)

func limitFromParams(params ListParams) (int32, error) {
	if params.Limit == nil {
		return defaultLimit, nil
	}
	if *params.Limit < 1 || *params.Limit > maxLimit {
		return 0, errLimitOutOfBounds
	}
	return int32(*params.Limit), nil
}
