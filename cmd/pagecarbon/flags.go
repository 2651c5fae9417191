package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagecarbon/internal/config"
	"github.com/nao1215/pagecarbon/internal/log"
)

// addEngineFlags registers the flags that control how pages are fetched
// and sized. They are shared by the analyze and serve commands.
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for fetching the analysed page")
	cmd.Flags().DurationP("resource-timeout", "r", config.DefaultResourceTimeout,
		"Timeout for each resource size request")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of resources sized in parallel per page")
	cmd.Flags().Float64("rate", config.DefaultRateLimit,
		"Maximum resource requests per second (0 = unlimited)")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")
	cmd.Flags().StringP("user-agent", "A", config.DefaultUserAgent,
		"User-Agent header sent with requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum page body size in bytes")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pagecarbon in current or home directory)")
	addDBFlag(cmd)
}

// addDBFlag registers the database directory flag.
func addDBFlag(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the report database")
}

// readEngineFlags copies the engine flags into cfg and loads the
// configuration file.
func readEngineFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error

	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return err
	}
	if cfg.ResourceTimeout, err = cmd.Flags().GetDuration("resource-timeout"); err != nil {
		return err
	}
	if cfg.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
		return err
	}
	if cfg.RateLimit, err = cmd.Flags().GetFloat64("rate"); err != nil {
		return err
	}
	if cfg.ProxyAddress, err = cmd.Flags().GetString("proxy"); err != nil {
		return err
	}
	if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
		return err
	}
	if cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size"); err != nil {
		return err
	}
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return err
	}
	if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	return loadSiteConfigs(cfg)
}

// loadSiteConfigs loads the configuration file into cfg.SiteConfigs.
// A missing file is an error only when the user named one explicitly.
func loadSiteConfigs(cfg *config.Config) error {
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.SiteConfigs = file
	case cfg.ConfigFilePath != "":
		return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}
	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a redacting logger on stderr and makes it the default.
func setupLogger(verbose, jsonFormat bool) *slog.Logger {
	var logger *slog.Logger
	if jsonFormat {
		logger = log.NewSecureJSONLogger(os.Stderr, verbose)
	} else {
		logger = log.NewSecureLogger(os.Stderr, verbose)
	}
	slog.SetDefault(logger)
	return logger
}
