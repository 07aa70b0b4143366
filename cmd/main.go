package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sports-festival/festival-registration/api"
	"github.com/sports-festival/festival-registration/dynamo"
	"github.com/sports-festival/festival-registration/metrics"
	"github.com/sports-festival/festival-registration/registration"
	"google.golang.org/api/idtoken"
)

func main() {
	ctx := context.Background()

	settings, err := getServerSettingsFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid server settings: %s\n", err)
		os.Exit(1)
	}

	logger := newLogger(settings.Env)

	if err := run(ctx, logger, settings); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, settings ServerSettings) error {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to get aws config: %w", err)
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if settings.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(settings.DynamoEndpoint)
		}
	})
	db := dynamo.NewDB(dynamoClient, settings.TableName)

	if settings.Env == api.LOCAL {
		if err := db.CreateTable(ctx); err != nil {
			return err
		}
	}

	pricing, err := loadPricing(ctx, awsCfg, settings)
	if err != nil {
		return err
	}

	emailSender, err := createEmailSender(awsCfg, logger, settings.Env)
	if err != nil {
		return err
	}

	googleIdVerifier, err := idtoken.NewValidator(ctx)
	if err != nil {
		return fmt.Errorf("failed to create google id token validator: %w", err)
	}

	metrics.MustRegister()

	captchaValidator := createCaptchaValidator(logger, settings.Env, settings.TurnstileSecret)

	festivalAPI := api.NewAPI(db, logger, settings.Env, googleIdVerifier, captchaValidator, emailSender, pricing, api.Config{
		GoogleClientID: settings.GoogleClientID,
		AdminDomain:    settings.AdminDomain,
		CookieDomain:   settings.CookieDomain,
		AllowedOrigins: settings.AllowedOrigins,
		EmailFrom:      settings.EmailFrom,
		Window:         registration.Window{ClosesAt: settings.ClosesAt},
	})

	return festivalAPI.ListenAndServe(settings.Host, settings.Port)
}

type ServerSettings struct {
	Host string
	Port string
	Env  api.Environment

	TableName      string
	DynamoEndpoint string

	PricingParameter string
	PricingFile      string

	GoogleClientID string
	AdminDomain    string
	CookieDomain   string
	AllowedOrigins []string
	EmailFrom      string

	TurnstileSecret string

	ClosesAt *time.Time
}

func getServerSettingsFromEnv() (ServerSettings, error) {
	env, err := parseEnvironment(getEnvOrDefault("ENV", "LOCAL"))
	if err != nil {
		return ServerSettings{}, err
	}

	settings := ServerSettings{
		Host:             getEnvOrDefault("HOST", "0.0.0.0"),
		Port:             getEnvOrDefault("PORT", "8080"),
		Env:              env,
		TableName:        getEnvOrDefault("TABLE_NAME", "festival-registration"),
		DynamoEndpoint:   getEnvOrDefault("DYNAMO_ENDPOINT", ""),
		PricingParameter: getEnvOrDefault("PRICING_PARAMETER", "/festival-registration/pricing"),
		PricingFile:      getEnvOrDefault("PRICING_FILE", "pricing.yaml"),
		GoogleClientID:   getEnvOrDefault("GOOGLE_CLIENT_ID", ""),
		AdminDomain:      getEnvOrDefault("ADMIN_DOMAIN", ""),
		CookieDomain:     getEnvOrDefault("COOKIE_DOMAIN", "localhost"),
		AllowedOrigins:   splitList(getEnvOrDefault("ALLOWED_ORIGINS", "")),
		EmailFrom:        getEnvOrDefault("EMAIL_FROM", "registration@localhost"),
		TurnstileSecret:  getEnvOrDefault("TURNSTILE_SECRET_KEY", ""),
	}

	if v := getEnvOrDefault("REGISTRATION_CLOSES_AT", ""); v != "" {
		closesAt, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ServerSettings{}, fmt.Errorf("REGISTRATION_CLOSES_AT must be RFC3339: %w", err)
		}
		settings.ClosesAt = &closesAt
	}

	if settings.Env == api.PROD && (settings.GoogleClientID == "" || settings.AdminDomain == "") {
		return ServerSettings{}, fmt.Errorf("GOOGLE_CLIENT_ID and ADMIN_DOMAIN are required in PROD")
	}
	if settings.Env == api.PROD && settings.TurnstileSecret == "" {
		return ServerSettings{}, fmt.Errorf("TURNSTILE_SECRET_KEY is required in PROD")
	}

	return settings, nil
}

func parseEnvironment(s string) (api.Environment, error) {
	switch strings.ToUpper(s) {
	case "LOCAL":
		return api.LOCAL, nil
	case "PROD":
		return api.PROD, nil
	default:
		return 0, fmt.Errorf("unknown ENV %q", s)
	}
}

func newLogger(env api.Environment) *slog.Logger {
	if env == api.PROD {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key string, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return defaultVal
}
