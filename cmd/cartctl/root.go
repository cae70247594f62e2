package main

import (
	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/app"
	"github.com/spf13/cobra"
)

// cli holds the state shared by the subcommands.
type cli struct {
	configPath string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "cartctl",
		Short:         "Inspect and maintain persisted carts",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			app.InitLogger(cfg.LogLevel)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(
		&c.configPath, "config", "c", "./config.yaml", "config file",
	)

	root.AddCommand(
		newQuoteCmd(c),
		newShowCmd(c),
		newClearCmd(c),
	)
	return root
}
