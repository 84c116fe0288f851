package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/varlog/logsift/internal/errx"
	"github.com/varlog/logsift/pkg/admission"
	"github.com/varlog/logsift/pkg/api"
	"github.com/varlog/logsift/pkg/policy"
)

var rootCmd = &cobra.Command{
	Use:   "logsift",
	Short: "Decide whether files can be imported as log sources",
	Long: `logsift is the admission gate of a log-analysis workspace: it decides,
per file, whether the file is safe to hand to the log parser or must be
skipped. Three layers are consulted in fixed priority order:

  1. binary signatures (magic bytes) -- unconditional reject
  2. filename heuristics (syslog, *log*, date suffixes) -- accept
  3. extension whitelist/blacklist with a default verdict

Every decision carries the layer and reason that produced it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.logsift/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Policy database path (default ~/.logsift/policy.db)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".logsift"))
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("LOGSIFT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: cannot read config: %v\n", err)
		}
	}

	setupLogging(viper.GetString("log-level"))
}

func setupLogging(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// loadGateConfig merges the config file over built-in defaults.
func loadGateConfig() (*api.Config, error) {
	cfg := api.DefaultConfig()
	if viper.InConfig("gate") {
		if err := viper.UnmarshalKey("gate", cfg); err != nil {
			return nil, errx.Wrap(ErrLoadConfig, err)
		}
	}
	return cfg, nil
}

func dbPath() (string, error) {
	if path := viper.GetString("db"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errx.Wrap(ErrGetHomeDir, err)
	}
	return filepath.Join(home, ".logsift", "policy.db"), nil
}

// openGate wires the policy store, filter, and scanner from config.
func openGate() (*policy.Store, *admission.Filter, *admission.Scanner, error) {
	cfg, err := loadGateConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	path, err := dbPath()
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := policy.Open(path, cfg.Policy)
	if err != nil {
		return nil, nil, nil, errx.Wrap(ErrOpenPolicy, err)
	}

	filter, err := admission.New(store, &admission.Options{
		Rules:    cfg.Rules,
		NulCheck: cfg.NulCheck,
		Logger:   slog.Default(),
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, errx.Wrap(ErrBuildFilter, err)
	}

	return store, filter, admission.NewScanner(filter, cfg.Scan), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
