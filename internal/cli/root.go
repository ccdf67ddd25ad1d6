package cli

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/phonginreallife/sentinel/internal/config"
)

var (
	configPath string
	logger     hclog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "sentinel API gateway",
	Long: `sentinel stores alerting actions and teams and proxies schedule
requests to the scheduler service.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadConfig(configPath); err != nil {
			return err
		}
		logger = newLogger(config.App.LogLevel)
		hclog.SetDefault(logger)
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("SENTINEL_CONFIG_PATH"), "Path to a YAML config file")
}

func newLogger(level string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  "sentinel",
		Level: hclog.LevelFromString(level),
	})
}
