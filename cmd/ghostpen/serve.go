package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/ghostpen/internal/config"
	"github.com/jonathan/ghostpen/internal/server"
	"github.com/jonathan/ghostpen/internal/server/ratelimit"
)

var (
	servePort    int
	serveLexicon string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server exposing the author list, generation, scoring, accounts
and per-user corpora. Requires JWT_SECRET.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from PORT or 8080)")
	serveCmd.Flags().StringVar(&serveLexicon, "lexicon", "", "Lexicon file or builtin name")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	passwords, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	profileCache, closeCache, err := newProfileCache(ctx)
	if err != nil {
		return err
	}
	defer closeCache()

	lex, err := loadLexicon(serveLexicon)
	if err != nil {
		return err
	}
	prof, err := newProfiler("", lex, profileCache)
	if err != nil {
		return err
	}
	p, closePipeline, err := newPipeline(ctx, store, lex)
	if err != nil {
		return err
	}
	defer closePipeline()

	rlConfig, err := ratelimit.LoadConfig()
	if err != nil {
		return err
	}
	var limiter *ratelimit.Limiter
	if rlConfig.Enabled {
		limiter = ratelimit.NewLimiter(rlConfig)
	}

	srv, err := server.New(server.Deps{
		Store:          store,
		Pipeline:       p,
		Profiler:       prof,
		JWT:            server.NewJWTService(jwtConfig),
		Passwords:      passwords,
		Limiter:        limiter,
		Logger:         logger,
		AllowedOrigins: appConfig.AllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	port := servePort
	if port == 0 {
		port = appConfig.Port
	}
	logger.Info("serving",
		zap.Int("port", port),
		zap.String("environment", appConfig.Environment),
		zap.String("algorithm", string(prof.Version())),
	)
	return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", port))
}
