package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "mrpack-utils"})

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mrpack-utils",
	Short: "Inspect Modrinth modpacks: list their mods, check game version compatibility and compare versions",
	// Errors are logged by Execute; usage is only shown for argument errors
	SilenceErrors: true,
}

// Execute starts the root command for mrpack-utils
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error(err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mrpack-utils.toml)")

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show debug output")
	bindFlag(rootCmd.PersistentFlags(), "verbose", "verbose")

	rootCmd.PersistentFlags().Int("concurrency", defaultConfig.Check.Concurrency, "The number of Modrinth projects to query at once")
	bindFlag(rootCmd.PersistentFlags(), "check.concurrency", "concurrency")

	rootCmd.PersistentFlags().String("hash-format", defaultConfig.HashFormat, "The hash used to compare override files (sha512, sha256, sha1, md5, murmur2)")
	bindFlag(rootCmd.PersistentFlags(), "hash-format", "hash-format")

	rootCmd.PersistentFlags().Duration("timeout", defaultConfig.Modrinth.Timeout, "Timeout for each Modrinth API request")
	bindFlag(rootCmd.PersistentFlags(), "modrinth.timeout", "timeout")

	setConfigDefaults()
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			// Search config in home directory with name ".mrpack-utils" (without extension).
			viper.AddConfigPath(home)
			viper.SetConfigName(".mrpack-utils")
		}
	}

	viper.SetEnvPrefix("MRPACK_UTILS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			logger.Warn("Failed to read config file", "err", err)
		}
	}

	// An invalid configuration is reported by the command itself
	cfg, cfgErr := loadConfig(viper.GetViper())
	if cfgErr != nil {
		cfg = defaultConfig
	}
	logger.SetLevel(logLevel(cfg))
	if used := viper.ConfigFileUsed(); used != "" && err == nil {
		logger.Debug("Using config file", "path", filepath.Clean(used))
	}
}

// logLevel returns the level set in the configuration; --verbose always means debug
func logLevel(cfg Config) log.Level {
	if cfg.Verbose {
		return log.DebugLevel
	}
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warn("Invalid log level", "level", cfg.Log.Level)
		return log.InfoLevel
	}
	return level
}
