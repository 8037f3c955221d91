package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// StoreDefaults are the pharmacy settings used until an operator saves
// their own through the settings API.
type StoreDefaults struct {
	PharmacyName string          `mapstructure:"pharmacyName"`
	Address      string          `mapstructure:"address"`
	Phone        string          `mapstructure:"phone"`
	TaxRate      decimal.Decimal `mapstructure:"-"`
	TaxRateRaw   string          `mapstructure:"taxRate"`
	Currency     string          `mapstructure:"currency"`
}

func DefaultStoreDefaults() StoreDefaults {
	return StoreDefaults{
		PharmacyName: "City Pharmacy",
		TaxRate:      decimal.Zero,
		TaxRateRaw:   "0",
		Currency:     "USD",
	}
}

type StoreDefaultsHolder struct {
	current atomic.Value // holds StoreDefaults
}

// NewStaticStoreDefaultsHolder returns a holder that never reloads.
func NewStaticStoreDefaultsHolder(defaults StoreDefaults) *StoreDefaultsHolder {
	holder := &StoreDefaultsHolder{}
	holder.current.Store(defaults)
	return holder
}

func NewStoreDefaultsHolder(log *zap.Logger) (*StoreDefaultsHolder, error) {
	log = log.Named("config.store")
	v := viper.New()

	v.SetConfigName("store")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/apotek")
	v.AddConfigPath(".")

	v.SetEnvPrefix("APOTEK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultStoreDefaults()
	v.SetDefault("store.pharmacyName", defaults.PharmacyName)
	v.SetDefault("store.taxRate", defaults.TaxRateRaw)
	v.SetDefault("store.currency", defaults.Currency)

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		found = false
	}

	cfg, err := decodeStoreDefaults(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticStoreDefaultsHolder(cfg)
	if !found {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeStoreDefaults(v)
		if err != nil {
			log.Warn("store defaults reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("store defaults reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *StoreDefaultsHolder) Get() StoreDefaults {
	return h.current.Load().(StoreDefaults)
}

func decodeStoreDefaults(v *viper.Viper) (StoreDefaults, error) {
	var cfg StoreDefaults
	if err := v.UnmarshalKey("store", &cfg); err != nil {
		return StoreDefaults{}, err
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(cfg.TaxRateRaw))
	if err != nil {
		return StoreDefaults{}, errors.New("store.taxRate must be a number")
	}
	cfg.TaxRate = rate
	if err := validateStoreDefaults(cfg); err != nil {
		return StoreDefaults{}, err
	}
	return cfg, nil
}

func validateStoreDefaults(cfg StoreDefaults) error {
	if cfg.TaxRate.IsNegative() || cfg.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("store.taxRate must be between 0 and 100")
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		return errors.New("store.currency cannot be empty")
	}
	return nil
}
