package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// InvoicingConfig holds operator-tunable invoice and digest wording.
type InvoicingConfig struct {
	DefaultLineItemTitle string         `mapstructure:"defaultLineItemTitle"`
	Currency             string         `mapstructure:"currency"`
	DueInDays            int            `mapstructure:"dueInDays"`
	ChannelName          string         `mapstructure:"channelName"`
	ReferencePrefix      string         `mapstructure:"referencePrefix"`
	Digest               DigestMessages `mapstructure:"digest"`
}

// DigestMessages are the daily notification texts. Plural must contain %d.
type DigestMessages struct {
	Singular string `mapstructure:"singular"`
	Plural   string `mapstructure:"plural"`
}

func DefaultInvoicingConfig() InvoicingConfig {
	return InvoicingConfig{
		DefaultLineItemTitle: "Boat Cleaning",
		Currency:             "USD",
		DueInDays:            7,
		ChannelName:          "Hullbook Admin",
		ReferencePrefix:      "hullbook",
		Digest: DigestMessages{
			Singular: "You had 1 boat cleaned today.",
			Plural:   "You had %d boats cleaned today.",
		},
	}
}

type InvoicingConfigHolder struct {
	current atomic.Value // holds InvoicingConfig
}

// NewStaticInvoicingConfig returns a holder that never reloads.
func NewStaticInvoicingConfig(cfg InvoicingConfig) *InvoicingConfigHolder {
	holder := &InvoicingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewInvoicingConfigHolder(appCfg Config) (*InvoicingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("invoicing")
	v.SetConfigType("yml")
	if appCfg.InvoicingConfigDir != "" {
		v.AddConfigPath(appCfg.InvoicingConfigDir)
	}
	v.AddConfigPath("/etc/hullbook")
	v.AddConfigPath(".")

	v.SetEnvPrefix("HULLBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultInvoicingConfig()
	v.SetDefault("invoicing.defaultLineItemTitle", defaults.DefaultLineItemTitle)
	v.SetDefault("invoicing.currency", defaults.Currency)
	v.SetDefault("invoicing.dueInDays", defaults.DueInDays)
	v.SetDefault("invoicing.channelName", defaults.ChannelName)
	v.SetDefault("invoicing.referencePrefix", defaults.ReferencePrefix)
	v.SetDefault("invoicing.digest.singular", defaults.Digest.Singular)
	v.SetDefault("invoicing.digest.plural", defaults.Digest.Plural)

	found := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		found = false
	}

	var cfg InvoicingConfig
	if err := v.UnmarshalKey("invoicing", &cfg); err != nil {
		return nil, err
	}
	if err := validateInvoicingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticInvoicingConfig(cfg)
	if !found {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated InvoicingConfig
		if err := v.UnmarshalKey("invoicing", &updated); err != nil {
			log.Printf("[invoicing-config] reload failed: %v", err)
			return
		}
		if err := validateInvoicingConfig(updated); err != nil {
			log.Printf("[invoicing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[invoicing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *InvoicingConfigHolder) Get() InvoicingConfig {
	if h == nil {
		return DefaultInvoicingConfig()
	}
	cfg, ok := h.current.Load().(InvoicingConfig)
	if !ok {
		return DefaultInvoicingConfig()
	}
	return cfg
}

func validateInvoicingConfig(cfg InvoicingConfig) error {
	if strings.TrimSpace(cfg.DefaultLineItemTitle) == "" {
		return errors.New("invoicing.defaultLineItemTitle cannot be empty")
	}
	if len(strings.TrimSpace(cfg.Currency)) != 3 {
		return errors.New("invoicing.currency must be an ISO 4217 code")
	}
	if cfg.DueInDays < 0 {
		return errors.New("invoicing.dueInDays cannot be negative")
	}
	if !strings.Contains(cfg.Digest.Plural, "%d") {
		return errors.New("invoicing.digest.plural must contain %d")
	}
	return nil
}
