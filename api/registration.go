package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/sports-festival/festival-registration/metrics"
	"github.com/sports-festival/festival-registration/registration"
	regslices "github.com/sports-festival/festival-registration/slices"
)

// RegistrationParams are the headers every public registration carries.
type RegistrationParams struct {
	CfTurnstileResponse string
	RemoteIP            string
}

type PostStudentsRequest struct {
	Params RegistrationParams
	Body   *SubmitRegistration
}

func (a *API) PostStudents(ctx context.Context, request PostStudentsRequest) Response {
	logger := getLoggerFromCtx(ctx)

	if resp := a.checkCaptcha(ctx, logger, request.Params); resp != nil {
		return *resp
	}

	if request.Body == nil {
		return errorResponse(http.StatusBadRequest, EmptyBody, "Must specify a JSON body in the request")
	}

	student, err := registration.AttemptStudentRegistration(ctx, submittedState(registration.StudentFlow, *request.Body), a.deps())
	if err != nil {
		return registrationErrorResponse(logger, err)
	}

	metrics.IncRegistration(registration.StudentFlow.Name)
	logger.Info("student registered", slog.String("id", student.ID.String()))

	err = registration.SendStudentConfirmationEmail(ctx, a.emailSender, a.config.EmailFrom, student)
	if err != nil {
		// the registration is stored, so the request still succeeds
		logger.Error("failed to send email to registered student", slog.String("error", err.Error()), slog.String("email", student.Email))
	}

	return jsonResponse(http.StatusOK, RegistrationReceipt{
		Id:       student.ID,
		TotalFee: moneyToApiMoney(student.TotalFee),
		Paid:     student.Paid(),
	})
}

type PostInstitutionsRequest struct {
	Params RegistrationParams
	Body   *SubmitRegistration
}

func (a *API) PostInstitutions(ctx context.Context, request PostInstitutionsRequest) Response {
	logger := getLoggerFromCtx(ctx)

	if resp := a.checkCaptcha(ctx, logger, request.Params); resp != nil {
		return *resp
	}

	if request.Body == nil {
		return errorResponse(http.StatusBadRequest, EmptyBody, "Must specify a JSON body in the request")
	}

	institution, err := registration.AttemptInstitutionRegistration(ctx, submittedState(registration.InstitutionFlow, *request.Body), a.deps())
	if err != nil {
		return registrationErrorResponse(logger, err)
	}

	metrics.IncRegistration(registration.InstitutionFlow.Name)
	logger.Info("institution registered", slog.String("id", institution.ID.String()))

	err = registration.SendInstitutionConfirmationEmail(ctx, a.emailSender, a.config.EmailFrom, institution)
	if err != nil {
		logger.Error("failed to send email to registered institution", slog.String("error", err.Error()), slog.String("email", institution.Email))
	}

	return jsonResponse(http.StatusOK, RegistrationReceipt{
		Id:       institution.ID,
		TotalFee: moneyToApiMoney(institution.TotalFee),
		Paid:     institution.Paid(),
	})
}

func (a *API) checkCaptcha(ctx context.Context, logger *slog.Logger, params RegistrationParams) *Response {
	_, err := a.captchaValidator.Validate(ctx, params.CfTurnstileResponse, params.RemoteIP)
	if err != nil {
		logger.Warn("invalid captcha", slog.String("error", err.Error()), slog.String("remoteIP", params.RemoteIP))
		resp := errorResponse(http.StatusBadRequest, CaptchaInvalid, "Invalid captcha")
		return &resp
	}
	return nil
}

// submittedState rebuilds wizard progress from a submission. Every step with
// data counts as completed.
func submittedState(flow registration.Flow, body SubmitRegistration) registration.State {
	state := registration.NewState(flow)
	state.Email = body.Email
	for step, payload := range body.Data {
		state.Data[step] = payload
		state.CompletedSteps = state.CompletedSteps.Add(step)
	}
	if len(state.CompletedSteps) > 0 {
		state.CurrentStep = slices.Max(state.CompletedSteps)
	}
	return state
}

type GetStudentsRequest struct {
	Params ListParams
}

func (a *API) GetStudents(ctx context.Context, request GetStudentsRequest) Response {
	logger := getLoggerFromCtx(ctx)

	limit, err := limitFromParams(request.Params)
	if err != nil {
		return errorResponse(http.StatusBadRequest, LimitOutOfBounds, "Limit must be between 1 and 50")
	}

	result, err := a.db.ListStudents(ctx, limit, request.Params.Cursor)
	if err != nil {
		return listErrorResponse(logger, err, "Failed to get students")
	}

	return jsonResponse(http.StatusOK, StudentsPage{
		Data:        regslices.Map(result.Data, studentToApiStudent),
		Cursor:      result.Cursor,
		HasNextPage: result.HasNextPage,
	})
}

type GetStudentsIdRequest struct {
	Id uuid.UUID
}

func (a *API) GetStudentsId(ctx context.Context, request GetStudentsIdRequest) Response {
	logger := getLoggerFromCtx(ctx)

	student, err := a.db.GetStudent(ctx, request.Id)
	if err != nil {
		return getErrorResponse(logger, err, "Student does not exist", "Failed to get student")
	}

	return jsonResponse(http.StatusOK, studentToApiStudent(student))
}

type GetInstitutionsRequest struct {
	Params ListParams
}

func (a *API) GetInstitutions(ctx context.Context, request GetInstitutionsRequest) Response {
	logger := getLoggerFromCtx(ctx)

	limit, err := limitFromParams(request.Params)
	if err != nil {
		return errorResponse(http.StatusBadRequest, LimitOutOfBounds, "Limit must be between 1 and 50")
	}

	result, err := a.db.ListInstitutions(ctx, limit, request.Params.Cursor)
	if err != nil {
		return listErrorResponse(logger, err, "Failed to get institutions")
	}

	return jsonResponse(http.StatusOK, InstitutionsPage{
		Data:        regslices.Map(result.Data, institutionToApiInstitution),
		Cursor:      result.Cursor,
		HasNextPage: result.HasNextPage,
	})
}

type GetInstitutionsIdRequest struct {
	Id uuid.UUID
}

func (a *API) GetInstitutionsId(ctx context.Context, request GetInstitutionsIdRequest) Response {
	logger := getLoggerFromCtx(ctx)

	institution, err := a.db.GetInstitution(ctx, request.Id)
	if err != nil {
		return getErrorResponse(logger, err, "Institution does not exist", "Failed to get institution")
	}

	return jsonResponse(http.StatusOK, institutionToApiInstitution(institution))
}

func listErrorResponse(logger *slog.Logger, err error, message string) Response {
	logger.Error(message, slog.String("error", err.Error()))

	var regErr *registration.Error
	if errors.As(err, &regErr) && regErr.Reason == registration.REASON_INVALID_CURSOR {
		return errorResponse(http.StatusBadRequest, InvalidCursor, "Passed in cursor is invalid")
	}

	return errorResponse(http.StatusInternalServerError, InternalError, "Internal server error")
}

func getErrorResponse(logger *slog.Logger, err error, notFound string, message string) Response {
	var regErr *registration.Error
	if errors.As(err, &regErr) && regErr.Reason == registration.REASON_REGISTRATION_DOES_NOT_EXIST {
		return errorResponse(http.StatusNotFound, NotFound, notFound)
	}

	logger.Error(message, slog.String("error", err.Error()))

	return errorResponse(http.StatusInternalServerError, InternalError, message)
}

func studentToApiStudent(s registration.Student) Student {
	return Student{
		Id:              s.ID,
		Version:         s.Version,
		RegisteredAt:    s.RegisteredAt,
		Email:           s.Email,
		Details:         s.Details,
		Documents:       s.Documents,
		GuardianMedical: s.GuardianMedical,
		Sports:          s.Sports,
		Payment:         s.Payment,
		TotalFee:        moneyToApiMoney(s.TotalFee),
		Paid:            s.Paid(),
	}
}

func institutionToApiInstitution(i registration.Institution) Institution {
	return Institution{
		Id:           i.ID,
		Version:      i.Version,
		RegisteredAt: i.RegisteredAt,
		Email:        i.Email,
		Details:      i.Details,
		Documents:    i.Documents,
		Sports:       i.Sports,
		Payment:      i.Payment,
		TotalFee:     moneyToApiMoney(i.TotalFee),
		Paid:         i.Paid(),
	}
}
