package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xaenox/mgmt-boost/internal/advisor"
	"github.com/xaenox/mgmt-boost/internal/api"
	"github.com/xaenox/mgmt-boost/internal/bot"
	"github.com/xaenox/mgmt-boost/internal/booster"
	"github.com/xaenox/mgmt-boost/internal/metrics"
	"github.com/xaenox/mgmt-boost/internal/models"
	"github.com/xaenox/mgmt-boost/internal/scheduler"
	"github.com/xaenox/mgmt-boost/internal/storage"
	"github.com/xaenox/mgmt-boost/internal/tone"
	"github.com/xaenox/mgmt-boost/pkg/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "mgmtboost",
	Short:         "Tone analysis and message boosting for managers",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, and the Telegram bot when a token is configured",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var boostCmd = &cobra.Command{
	Use:   "boost [text...]",
	Short: "Boost a message (reads stdin when no text is given)",
	RunE:  runBoost,
}

var scoreCmd = &cobra.Command{
	Use:   "score [text...]",
	Short: "Score a message's tone with the built-in heuristics",
	RunE:  runScore,
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [text...]",
	Short: "Rewrite a message remotely and score both versions",
	RunE:  runRewrite,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, boostCmd, scoreCmd, rewriteCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	var logger *zap.Logger
	if cfg.Log.Development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

func databaseConfig(cfg *config.Config) storage.DatabaseConfig {
	return storage.DatabaseConfig{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		DBName:      cfg.Database.DBName,
		SSLMode:     cfg.Database.SSLMode,
		UseInMemory: cfg.Database.UseInMemory,
	}
}

func openStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	}

	logger.Info("Using PostgreSQL storage")
	dbConfig := databaseConfig(cfg)
	if err := storage.RunMigrations(dbConfig); err != nil {
		return nil, err
	}
	return storage.NewPostgresStorage(dbConfig, logger)
}

// newEngine builds the advisor and orchestrator. A key stored in prefs
// overrides the configured one.
func newEngine(ctx context.Context, cfg *config.Config, store storage.Storage, m *metrics.Metrics, logger *zap.Logger) (*advisor.Advisor, *booster.Booster) {
	adv := advisor.New(advisor.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		Timeout:     cfg.OpenAI.Timeout,
		CacheTTL:    cfg.OpenAI.CacheTTL,
		ContextSize: cfg.OpenAI.ContextSize,
	}, m, logger)

	prefs, err := store.GetPrefs(ctx, cfg.API.OwnerID)
	switch {
	case err == nil && prefs.HasAPIKey():
		adv.SetAPIKey(prefs.APIKey)
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		logger.Warn("Failed to load stored prefs", zap.Error(err))
	}

	return adv, booster.New(adv, m, logger)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	adv, b := newEngine(ctx, cfg, store, m, logger)

	srv := api.New(api.Config{
		Addr:        cfg.API.Addr,
		Token:       cfg.API.Token,
		OwnerID:     cfg.API.OwnerID,
		CORSOrigins: cfg.API.CORSOrigins,
	}, b, adv, store, reg, logger)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP API listening", zap.String("addr", cfg.API.Addr))
		errCh <- srv.Start()
	}()

	if cfg.Telegram.Token != "" {
		tg, err := bot.New(bot.Config{
			Token:         cfg.Telegram.Token,
			OwnerID:       cfg.API.OwnerID,
			AllowedUserID: cfg.Telegram.AllowedUserID,
		}, b, adv, store, logger)
		if err != nil {
			return err
		}
		go func() {
			if err := tg.Start(ctx); err != nil {
				errCh <- err
			}
		}()

		if cfg.Scheduler.Enabled {
			sched, err := scheduler.New(cfg.Scheduler.DigestCron, store, tg, logger)
			if err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
		}
	} else {
		logger.Info("Telegram token not set; bot disabled")
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
			_ = srv.Shutdown()
			return err
		}
	}
	return srv.Shutdown()
}

// inputText joins args, or reads stdin when there are none.
func inputText(cmd *cobra.Command, args []string) (string, error) {
	text := strings.Join(args, " ")
	if text == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no text given")
	}
	return text, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runBoost(cmd *cobra.Command, args []string) error {
	text, err := inputText(cmd, args)
	if err != nil {
		return err
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := openStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	_, b := newEngine(cmd.Context(), cfg, store, nil, logger)
	return printJSON(cmd, b.Boost(cmd.Context(), text, models.ChannelInfo{Name: "CLI", Type: "terminal"}))
}

func runScore(cmd *cobra.Command, args []string) error {
	text, err := inputText(cmd, args)
	if err != nil {
		return err
	}
	return printJSON(cmd, tone.Score(text))
}

func runRewrite(cmd *cobra.Command, args []string) error {
	text, err := inputText(cmd, args)
	if err != nil {
		return err
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := openStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	adv, _ := newEngine(cmd.Context(), cfg, store, nil, logger)
	rewrite, err := adv.Rewrite(cmd.Context(), text)
	if err != nil {
		return err
	}
	return printJSON(cmd, rewrite)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Database.UseInMemory {
		return errors.New("database.use_in_memory is set; nothing to migrate")
	}
	if err := storage.RunMigrations(databaseConfig(cfg)); err != nil {
		return err
	}
	logger.Info("Migrations applied")
	return nil
}
