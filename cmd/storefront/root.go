package main

import (
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/logging"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront catalog and order API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./config.yaml if present)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newCreateAdminCmd(opts),
		newReindexCmd(opts),
	)
	return root
}

// bootstrap loads and validates configuration and builds the dependency graph.
func (o *rootOptions) bootstrap(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logging.New(cfg.LogLevel)
	ctx := logging.IntoContext(cmd.Context(), log)
	cmd.SetContext(ctx)
	return newApp(ctx, cfg, log)
}
