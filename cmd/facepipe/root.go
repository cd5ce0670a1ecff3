package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/face-pipeline/internal/config"
	"github.com/example/face-pipeline/internal/logging"
	"github.com/example/face-pipeline/internal/server"
)

// Version is the application version.
const Version = "0.1.0"

var (
	logger *zap.Logger

	logLevel        string
	shutdownTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "facepipe",
	Short:         "Image normalisation and face cropping services",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.NewLogger(logLevel)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync() //nolint:errcheck
		}
	},
}

// Execute runs the selected service until SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultShutdown, err := config.Duration("SHUTDOWN_TIMEOUT", 15*time.Second)
	exitOnConfigError(err)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.Env("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&shutdownTimeout, "shutdown-timeout", defaultShutdown, "Grace period for in-flight requests on shutdown")
}

// serve runs router on addr until the command context ends.
func serve(ctx context.Context, name, addr string, router *gin.Engine) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("service listening", zap.String("service", name), zap.String("addr", addr))
	return server.ServeContext(ctx, srv, shutdownTimeout, logger)
}

func exitOnConfigError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
}
