package main

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maxviazov/scorebook-stats-service/internal/config"
	"github.com/maxviazov/scorebook-stats-service/internal/logger"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
)

type commandContext struct {
	configFlag *string

	once   sync.Once
	config *config.Config
	log    zerolog.Logger
	err    error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads config and the logger once per process.
func (c *commandContext) ensureConfig() (*config.Config, zerolog.Logger, error) {
	c.once.Do(func() {
		path := strings.TrimSpace(*c.configFlag)
		if path == "" {
			path = "config.yaml"
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.err = err
			return
		}
		l, err := logger.New(&cfg.Logger)
		if err != nil {
			c.err = err
			return
		}
		c.config, c.log = cfg, l
	})
	return c.config, c.log, c.err
}

// openRepository connects to Postgres. Callers close it.
func (c *commandContext) openRepository(ctx context.Context) (*repository.Repository, error) {
	cfg, l, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return repository.New(ctx, cfg, &l)
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "scorebookctl",
		Short:         "Scorebook stats operator CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, _, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default config.yaml)")

	rootCmd.AddCommand(newExtractCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	return rootCmd
}
