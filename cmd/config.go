package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/packwiz/mrpack-utils/core"
	"github.com/packwiz/mrpack-utils/modrinth"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the settings resolved from flags, environment variables and the config file
type Config struct {
	HashFormat string `mapstructure:"hash-format"`
	Verbose    bool   `mapstructure:"verbose"`
	Check      struct {
		Concurrency int `mapstructure:"concurrency"`
	} `mapstructure:"check"`
	Modrinth struct {
		Timeout   time.Duration `mapstructure:"timeout"`
		UserAgent string        `mapstructure:"user-agent"`
	} `mapstructure:"modrinth"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	List struct {
		CheckVersion []string `mapstructure:"check-version"`
		CSV          bool     `mapstructure:"csv"`
		Filter       string   `mapstructure:"filter"`
		MatchLoader  bool     `mapstructure:"match-loader"`
	} `mapstructure:"list"`
	Diff struct {
		CSV    bool     `mapstructure:"csv"`
		Ignore []string `mapstructure:"ignore"`
	} `mapstructure:"diff"`
}

var defaultConfig = func() Config {
	var c Config
	c.HashFormat = core.DefaultHashFormat
	c.Check.Concurrency = core.DefaultConcurrency
	c.Modrinth.Timeout = 10 * time.Second
	c.Modrinth.UserAgent = modrinth.DefaultUserAgent
	c.Log.Level = "info"
	return c
}()

// bindFlag makes a flag the highest priority source of a viper key
func bindFlag(flags *pflag.FlagSet, key string, name string) {
	flag := flags.Lookup(name)
	if flag == nil {
		panic("flag not defined: " + name)
	}
	_ = viper.BindPFlag(key, flag)
}

func setConfigDefaults() {
	viper.SetDefault("hash-format", defaultConfig.HashFormat)
	viper.SetDefault("check.concurrency", defaultConfig.Check.Concurrency)
	viper.SetDefault("modrinth.timeout", defaultConfig.Modrinth.Timeout)
	viper.SetDefault("modrinth.user-agent", defaultConfig.Modrinth.UserAgent)
	viper.SetDefault("log.level", defaultConfig.Log.Level)
}

// loadConfig decodes the current viper settings; environment variables arrive as strings,
// so durations and comma separated lists are converted by decode hooks
func loadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Check.Concurrency < 1 {
		return Config{}, fmt.Errorf("invalid configuration: concurrency must be at least 1, got %d", cfg.Check.Concurrency)
	}
	if _, err := core.GetHashImpl(cfg.HashFormat); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: hash-format %q: %w", cfg.HashFormat, err)
	}
	return cfg, nil
}

func newModrinthClient(cfg Config) *modrinth.Client {
	return modrinth.NewClient(&http.Client{Timeout: cfg.Modrinth.Timeout}, cfg.Modrinth.UserAgent)
}
