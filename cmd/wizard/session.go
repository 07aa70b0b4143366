package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/sports-festival/festival-registration/client"
	"github.com/sports-festival/festival-registration/localstore"
	"github.com/sports-festival/festival-registration/registration"
)

const redisSessionTTL = 30 * 24 * time.Hour

type sessionOptions struct {
	apiURL       string
	flow         string
	storePath    string
	redisAddr    string
	captchaToken string
	httpClient   *http.Client
	logger       *slog.Logger
}

// session is one wizard run: the orchestrator restored from local progress
// and reconciled with the server.
type session struct {
	client       *client.Client
	orchestrator *registration.Orchestrator
	replicator   *registration.Replicator
	closeStore   func() error
	logger       *slog.Logger
}

func openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	flow, err := registration.FlowByName(opts.flow)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := openLocalStore(ctx, opts)
	if err != nil {
		return nil, err
	}

	c := client.New(opts.apiURL, opts.httpClient, opts.logger)
	c.SetCaptchaToken(opts.captchaToken)

	replicator := registration.NewReplicator(opts.logger, 2, 16)
	replicator.Start(ctx)

	orchestrator := registration.NewOrchestrator(flow, registration.OrchestratorDeps{
		Local:       store,
		Checkpoints: c,
		Steps:       c,
		Submitter:   c,
		Replicator:  replicator,
		Logger:      opts.logger,
	})
	<-orchestrator.Mount(ctx)

	return &session{
		client:       c,
		orchestrator: orchestrator,
		replicator:   replicator,
		closeStore:   closeStore,
		logger:       opts.logger,
	}, nil
}

func openLocalStore(ctx context.Context, opts sessionOptions) (registration.LocalStore, func() error, error) {
	if opts.redisAddr != "" {
		rc, err := localstore.NewRedisClient(ctx, opts.redisAddr, os.Getenv("REDIS_PASSWORD"), 0)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.redisAddr, err)
		}
		return localstore.NewRedis(rc, "festival-wizard", redisSessionTTL, opts.logger), rc.Close, nil
	}

	// Without a file the server checkpoint is the only copy between runs.
	if opts.storePath == "" {
		return localstore.NewMemory(), func() error { return nil }, nil
	}

	store, err := localstore.OpenFile(opts.storePath, opts.logger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() error { return nil }, nil
}

// Close waits for queued checkpoint writes before releasing the store.
func (s *session) Close() {
	s.replicator.Close()
	if err := s.closeStore(); err != nil {
		s.logger.Warn("failed to close local store", slog.String("error", err.Error()))
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func optionsFromFlags() sessionOptions {
	return sessionOptions{
		apiURL:       apiURL,
		flow:         flowName,
		storePath:    storePath,
		redisAddr:    redisAddr,
		captchaToken: captchaToken,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		logger:       newLogger(verbose),
	}
}
