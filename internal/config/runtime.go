package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RuntimeConfig holds operational limits that can change without a restart:
// assistant rate limits and upload constraints.
type RuntimeConfig struct {
	AssistantRatePerSecond float64  `mapstructure:"assistantRatePerSecond"`
	AssistantBurst         int      `mapstructure:"assistantBurst"`
	UploadMaxBytes         int64    `mapstructure:"uploadMaxBytes"`
	UploadAllowedTypes     []string `mapstructure:"uploadAllowedTypes"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		AssistantRatePerSecond: 1,
		AssistantBurst:         5,
		UploadMaxBytes:         10 << 20,
		UploadAllowedTypes:     []string{"application/pdf", "image/png", "image/jpeg"},
	}
}

// RuntimeHolder exposes the current runtime config and hot-reloads it when
// the backing file changes.
type RuntimeHolder struct {
	current atomic.Value // holds RuntimeConfig
}

func NewRuntimeHolder() (*RuntimeHolder, error) {
	v := viper.New()

	v.SetConfigName("runtime")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/faktura/config")
	v.AddConfigPath("/etc/faktura")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FAKTURA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultRuntimeConfig()
		v.SetDefault("runtime.assistantRatePerSecond", defaults.AssistantRatePerSecond)
		v.SetDefault("runtime.assistantBurst", defaults.AssistantBurst)
		v.SetDefault("runtime.uploadMaxBytes", defaults.UploadMaxBytes)
		v.SetDefault("runtime.uploadAllowedTypes", defaults.UploadAllowedTypes)
	}

	var cfg RuntimeConfig
	if err := v.UnmarshalKey("runtime", &cfg); err != nil {
		return nil, err
	}
	if err := validateRuntimeConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RuntimeHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RuntimeConfig
		if err := v.UnmarshalKey("runtime", &updated); err != nil {
			log.Printf("[runtime-config] reload failed: %v", err)
			return
		}
		if err := validateRuntimeConfig(updated); err != nil {
			log.Printf("[runtime-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[runtime-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *RuntimeHolder) Get() RuntimeConfig {
	return h.current.Load().(RuntimeConfig)
}

func validateRuntimeConfig(cfg RuntimeConfig) error {
	if cfg.AssistantRatePerSecond <= 0 {
		return errors.New("runtime.assistantRatePerSecond must be positive")
	}
	if cfg.AssistantBurst <= 0 {
		return errors.New("runtime.assistantBurst must be positive")
	}
	if cfg.UploadMaxBytes <= 0 {
		return errors.New("runtime.uploadMaxBytes must be positive")
	}
	return nil
}
