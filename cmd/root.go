package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	repository "github.com/okian/drivemind/internal/adapters/repository"
	service "github.com/okian/drivemind/internal/app"
	"github.com/okian/drivemind/internal/config"
	"github.com/okian/drivemind/internal/domain/catalog"
	"github.com/okian/drivemind/pkg/logger"
)

var (
	// Version and Commit are set at build time via ldflags.
	Version = "dev"
	Commit  = "none"
)

// cli carries state shared by every subcommand.
type cli struct {
	in  io.Reader
	out io.Writer

	configPath string
	logLevel   string

	cfg *config.Config
}

// newRootCommand builds the drivemind command tree.
func newRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	c := &cli{in: in, out: out}

	root := &cobra.Command{
		Use:   "drivemind",
		Short: "DriveMind scores timed driving scenarios into a driver profile",
		Long: `DriveMind runs short timed driving scenarios, scores every decision and its
reaction time, and folds each result into a persistent driver profile.`,
		Version:       fmt.Sprintf("%s (%s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.SetIn(in)
	root.SetOut(out)

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (overrides "+config.EnvConfigPath+")")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		c.newServeCommand(),
		c.newScenariosCommand(),
		c.newPlayCommand(),
		c.newAutoplayCommand(),
		c.newProfileCommand(),
		c.newResetCommand(),
	)
	return root
}

// setup loads configuration and initializes logging.
func (c *cli) setup(ctx context.Context) error {
	if c.configPath != "" {
		if err := os.Setenv(config.EnvConfigPath, c.configPath); err != nil {
			return fmt.Errorf("set %s: %w", config.EnvConfigPath, err)
		}
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config: "+err.Error())
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	c.cfg = cfg

	// Logs go to stderr so command output stays clean on stdout.
	if err := logger.Init(
		logger.WithWriter(os.Stderr),
		logger.WithLevel(cfg.LogLevel),
		logger.WithFile(cfg.LogFile),
	); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging: "+err.Error())
		return err
	}
	return nil
}

// loadCatalog returns the configured catalog or the built-in one.
func (c *cli) loadCatalog() (*catalog.Catalog, error) {
	if c.cfg.CatalogPath != "" {
		return catalog.Load(c.cfg.CatalogPath)
	}
	return catalog.Default()
}

// openService builds and starts a service from configuration. Callers must
// Stop it to flush the profile.
func (c *cli) openService(ctx context.Context, extra ...service.Option) (*service.Service, error) {
	cat, err := c.loadCatalog()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	store, err := repository.Open(ctx, c.cfg.StorageBackend, c.cfg.StoragePath, repository.WithKey(c.cfg.StorageKey))
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", c.cfg.StorageBackend, err)
	}

	opts := []service.Option{
		service.WithLogger(logger.Get().Named("service")),
		service.WithCatalog(cat),
		service.WithStore(store),
		service.WithMaxActiveRuns(c.cfg.MaxActiveRuns),
		service.WithPersistQueueSize(c.cfg.PersistQueueSize),
		service.WithDedupeSize(c.cfg.DedupeSize),
		service.WithPlayerName(c.cfg.PlayerName),
		service.WithCountdown(c.cfg.CountdownFrom, c.cfg.CountdownGrace()),
	}
	svc := service.New(append(opts, extra...)...)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("start service: %w", err)
	}
	return svc, nil
}

// stopService flushes and closes svc, logging instead of failing.
func stopService(ctx context.Context, svc *service.Service) {
	if err := svc.Stop(context.WithoutCancel(ctx)); err != nil {
		logger.Get().Error(ctx, "service stop failed", logger.Error(err))
	}
}
