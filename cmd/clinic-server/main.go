package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/virtualclinic/api/internal/config"
	"github.com/virtualclinic/api/internal/domain/conversation"
	"github.com/virtualclinic/api/internal/domain/patient"
	"github.com/virtualclinic/api/internal/platform/apierror"
	"github.com/virtualclinic/api/internal/platform/auth"
	"github.com/virtualclinic/api/internal/platform/db"
	"github.com/virtualclinic/api/internal/platform/llm"
	"github.com/virtualclinic/api/internal/platform/middleware"
	"github.com/virtualclinic/api/internal/platform/openapi"
	"github.com/virtualclinic/api/internal/platform/validate"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:          "clinic-server",
		Short:        "Virtual Clinic API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(interviewCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newCompleter(cfg *config.Config, logger zerolog.Logger) llm.Completer {
	client, err := llm.New(llm.Config{
		AzureAPIKey:     cfg.AzureOpenAIAPIKey,
		AzureEndpoint:   cfg.AzureOpenAIEndpoint,
		AzureDeployment: cfg.AzureOpenAIDeployment,
		AzureAPIVersion: cfg.AzureOpenAIAPIVersion,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIModel:     cfg.OpenAIModel,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("LLM not configured; sending messages will fail")
		return llm.Unavailable{Err: err}
	}
	logger.Info().Str("model", client.Model()).Bool("azure", cfg.UsesAzure()).Msg("LLM client ready")
	return client
}

// newServer wires the middleware chain and every route. The pool is lazy so
// the server starts (and reports itself degraded) without a database.
func newServer(cfg *config.Config, pool *db.Lazy, completer llm.Completer, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = apierror.Handler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(auth.JWTMiddleware(auth.JWTConfig{
		SigningKey: []byte(cfg.JWTSecret),
		Policy:     auth.DefaultPolicy(),
	}))

	api := e.Group("/api")
	api.GET("/health", db.HealthHandler(pool, cfg.ServiceName))

	patientSvc := patient.NewService(patient.NewRepoPG(pool))
	patient.NewHandler(patientSvc).RegisterRoutes(api)

	convoSvc := conversation.NewService(conversation.NewRepoPG(pool), patientSvc, completer, logger)
	conversation.NewHandler(convoSvc).RegisterRoutes(api)

	openapi.NewGenerator(version, "localhost:"+cfg.Port).RegisterRoutes(e)

	return e
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	pool := db.NewLazy(db.PoolConfig{
		URL:            cfg.DatabaseURL,
		MaxConns:       cfg.DBMaxConns,
		MinConns:       cfg.DBMinConns,
		SimpleProtocol: cfg.DBSimpleProtocol,
	})
	defer pool.Close()
	if cfg.DatabaseURL == "" {
		logger.Warn().Msg("DATABASE_URL is not set; data endpoints will fail until it is configured")
	}

	e := newServer(cfg, pool, newCompleter(cfg, logger), logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
