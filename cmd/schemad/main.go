package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"schemad/internal/config"
	"schemad/internal/credit"
	"schemad/internal/db"
	"schemad/internal/schema"
	"schemad/internal/server"
	"schemad/internal/user"
)

var (
	cfgFile    string
	listenAddr string
	dbURL      string
)

var rootCmd = &cobra.Command{
	Use:   "schemad",
	Short: "HTTP service for dynamic schema management and user credit ledgers",
	Long: `schemad serves a dynamic schema-mutation API (create tables, add and drop
columns, introspect catalog metadata) and a per-user credit ledger over
PostgreSQL, with a scheduled daily credit grant.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "Config file path (optional; env vars with SCHEMAD_ prefix also apply)")
	rootCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config)")
	rootCmd.Flags().StringVar(&dbURL, "db-url", "", "PostgreSQL connection string (overrides config)")
}

func run(cmd *cobra.Command, args []string) error {
	if dbURL != "" {
		os.Setenv("SCHEMAD_DATABASE_URL", dbURL)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := db.NewClient(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := db.Bootstrap(ctx, client.Pool()); err != nil {
		return err
	}

	validator := schema.NewValidator(client.Pool(), cfg.SchemaName)
	schemaSvc := schema.NewService(validator, client.Pool(), logger)
	creditSvc := credit.NewService(client.Pool(), logger)
	userSvc := user.NewService(client.Pool(), logger)

	granter := credit.NewGranter(client.Pool(), cfg.Grant.Amount, logger)
	sched := cron.New(cron.WithLocation(time.UTC))
	if _, err := granter.Schedule(sched, cfg.Grant.Hour, cfg.Grant.Minute); err != nil {
		return err
	}

	handler := server.NewHandler(cfg.AppName, schemaSvc, creditSvc, userSvc, client, logger)
	srv := server.New(cfg.ListenAddr, handler.Routes(), logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	g.Go(func() error {
		sched.Start()
		logger.Info("daily grant scheduled",
			"hour", cfg.Grant.Hour, "minute", cfg.Grant.Minute, "amount", cfg.Grant.Amount)
		<-ctx.Done()
		<-sched.Stop().Done()
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
