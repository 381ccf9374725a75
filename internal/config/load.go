package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "ASSET_AGENT"

// flagKeys maps command line flags to their configuration keys. Flags not listed
// are bound under their own name.
var flagKeys = map[string]string{
	"http-port":   "server.http-port",
	"server-mode": "server.mode",
	"data-folder": "agent.data-folder",
	"workers":     "agent.workers",
	"test-mode":   "agent.test-mode",
	"nats-url":    "bus.url",
}

// Load builds the configuration from defaults, an optional config file, environment
// variables (ASSET_AGENT_BUS_URL, ...) and the flags in fs, in increasing priority.
func Load(cfgFile string, fs *pflag.FlagSet) (*Configuration, error) {
	cfg, err := NewConfigurationWithDefaults()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, value := range cfg.DebugMap() {
		v.SetDefault(key, value)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
			}
		}
	}

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok {
				key = f.Name
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, nil
}
