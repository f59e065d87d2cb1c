package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sofmeright/nightlyfreight/src/config"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string
	namespace string
	cfg       *config.Config
	log       = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "nightlyfreight",
	Short: "Build and publish Node.js nightly, rc and v8-canary images",
	Long: `nightlyfreight resolves the newest nightly, rc and v8-canary build of every
Node.js major line from the download mirror, builds one image per line and
pushes the tags in a fixed order.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		// Skip config loading for commands that don't need it.
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if namespace != "" {
			cfg.Registry.Namespace = namespace
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .nightlyfreight.yml, .toml also accepted)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and engine output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().StringVar(&namespace, "namespace", "", "registry namespace (overrides registry.namespace)")
}

func setupLogging() error {
	log.SetOutput(os.Stderr)
	switch logFormat {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q (valid: text, json)", logFormat)
	}
	log.SetLevel(logrus.InfoLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
