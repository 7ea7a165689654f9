package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RulesConfig carries business rules that operators may tune without a redeploy.
type RulesConfig struct {
	LowStockThreshold   int    `mapstructure:"lowStockThreshold"`
	InvoiceNumberPrefix string `mapstructure:"invoiceNumberPrefix"`
}

func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		LowStockThreshold:   5,
		InvoiceNumberPrefix: "INV-",
	}
}

type RulesConfigHolder struct {
	current atomic.Value // holds RulesConfig
}

// NewStaticRulesConfigHolder returns a holder pinned to cfg.
func NewStaticRulesConfigHolder(cfg RulesConfig) *RulesConfigHolder {
	holder := &RulesConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewRulesConfigHolder() (*RulesConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("rules")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/billflow")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BILLFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRulesConfig()
	v.SetDefault("rules.lowStockThreshold", defaults.LowStockThreshold)
	v.SetDefault("rules.invoiceNumberPrefix", defaults.InvoiceNumberPrefix)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		watch = false
	}

	var cfg RulesConfig
	if err := v.UnmarshalKey("rules", &cfg); err != nil {
		return nil, err
	}
	if err := validateRulesConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticRulesConfigHolder(cfg)
	if !watch {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RulesConfig
		if err := v.UnmarshalKey("rules", &updated); err != nil {
			log.Printf("[rules-config] reload failed: %v", err)
			return
		}
		if err := validateRulesConfig(updated); err != nil {
			log.Printf("[rules-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[rules-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *RulesConfigHolder) Get() RulesConfig {
	if h == nil {
		return DefaultRulesConfig()
	}
	cfg, ok := h.current.Load().(RulesConfig)
	if !ok {
		return DefaultRulesConfig()
	}
	return cfg
}

func validateRulesConfig(cfg RulesConfig) error {
	if cfg.LowStockThreshold < 0 {
		return errors.New("rules.lowStockThreshold cannot be negative")
	}
	if strings.TrimSpace(cfg.InvoiceNumberPrefix) == "" {
		return errors.New("rules.invoiceNumberPrefix cannot be empty")
	}
	return nil
}
