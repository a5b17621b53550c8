package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stratastor/afd/cmd/config"
	"github.com/stratastor/afd/cmd/health"
	"github.com/stratastor/afd/cmd/logs"
	"github.com/stratastor/afd/cmd/serve"
	"github.com/stratastor/afd/cmd/status"
	"github.com/stratastor/afd/cmd/version"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "afd",
		Short: "afd: Automatic File Distribution daemon",
	}

	rootCmd.AddCommand(serve.NewServeCmd())
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(health.NewHealthCmd())
	rootCmd.AddCommand(status.NewStatusCmd())
	rootCmd.AddCommand(logs.NewLogsCmd())
	rootCmd.AddCommand(config.NewConfigCmd())

	return rootCmd
}
