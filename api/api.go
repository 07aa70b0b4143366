package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/International-Combat-Archery-Alliance/captcha"
	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sports-festival/festival-registration/fees"
	"github.com/sports-festival/festival-registration/registration"
	"github.com/sports-festival/festival-registration/sports"
	"google.golang.org/api/idtoken"
)

type Environment int

const (
	LOCAL Environment = iota
	PROD
)

type DB interface {
	sports.Repository
	registration.Repository
	registration.CheckpointStore
	registration.StepSaver
	GetStepDrafts(ctx context.Context, flow string, email string) (registration.StepData, error)
}

type GoogleIdVerifier interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// CaptchaValidator checks the Turnstile token sent with a public registration.
type CaptchaValidator interface {
	Validate(ctx context.Context, token string, remoteIP string) (captcha.ValidatedData, error)
}

type Config struct {
	GoogleClientID string
	// AdminDomain is the Google Workspace domain (the hd claim) of admins.
	AdminDomain    string
	CookieDomain   string
	AllowedOrigins []string
	EmailFrom      string
	Window         registration.Window
}

type API struct {
	db               DB
	logger           *slog.Logger
	env              Environment
	googleIdVerifier GoogleIdVerifier
	captchaValidator CaptchaValidator
	emailSender      email.Sender
	pricing          fees.PricingSource
	config           Config
	now              func() time.Time
}

var _ Server = (*API)(nil)

func NewAPI(
	db DB,
	logger *slog.Logger,
	env Environment,
	googleIdVerifier GoogleIdVerifier,
	captchaValidator CaptchaValidator,
	emailSender email.Sender,
	pricing fees.PricingSource,
	config Config,
) *API {
	return &API{
		db:               db,
		logger:           logger,
		env:              env,
		googleIdVerifier: googleIdVerifier,
		captchaValidator: captchaValidator,
		emailSender:      emailSender,
		pricing:          pricing,
		config:           config,
		now:              time.Now,
	}
}

// Handler serves the validated API routes plus the unvalidated metrics and
// health endpoints.
func (a *API) Handler(swagger *openapi3.T) http.Handler {
	r := http.NewServeMux()
	HandlerFromMux(a, r)

	validated := useMiddlewares(
		r,
		a.openapiValidateMiddleware(swagger),
		a.loggingMiddleware(),
		a.requestContextMiddleware(),
	)

	root := http.NewServeMux()
	root.Handle("GET /metrics", promhttp.Handler())
	root.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, r, a.logger, jsonResponse(http.StatusOK, Health{Status: "ok"}))
	})
	root.Handle("/", validated)

	return a.corsMiddleware()(root)
}

func (a *API) ListenAndServe(host string, port string) error {
	swagger, err := GetSwagger()
	if err != nil {
		return err
	}
	swagger.Servers = nil

	s := &http.Server{
		Handler:           a.Handler(swagger),
		Addr:              net.JoinHostPort(host, port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("starting server", slog.String("addr", s.Addr))

	return s.ListenAndServe()
}

func (a *API) deps() registration.Dependencies {
	return registration.Dependencies{
		Sports:  a.db,
		Pricing: a.pricing,
		Repo:    a.db,
		Window:  a.config.Window,
		Now:     a.now,
	}
}
