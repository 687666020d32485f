package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/gift-recommender/internal/config"
	"github.com/jonathan/gift-recommender/internal/server"
	"github.com/jonathan/gift-recommender/internal/server/ratelimit"
)

var (
	servePort       int
	serveTimeout    time.Duration
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for generating and refreshing recommendations.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().DurationVar(&serveTimeout, "request-timeout", server.DefaultRequestTimeout, "Upper bound for one pipeline run")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a JSON or YAML config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(serveConfigPath)
	if err != nil {
		return err
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd.Context(), cfg, runtimeOptions{NeedDB: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	srv, err := server.New(server.Config{
		Port:           servePort,
		RequestTimeout: serveTimeout,
	}, server.Deps{
		Store:       rt.db,
		Recommender: rt.pipeline,
		Tokens:      server.NewJWTService(jwtConfig).AsTokenValidator(),
		RateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		Logger:      rt.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
