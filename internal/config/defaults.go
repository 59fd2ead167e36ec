package config

import "time"

// Defaults applied after normalization.
const (
	DefaultBuildPath       = ".zephyrforge"
	DefaultI2CFrequency    = 100000
	DefaultADCReference    = "ADC_REF_INTERNAL"
	DefaultADCGain         = "ADC_GAIN_1_6"
	DefaultSettleDelay     = 2 * time.Second
	DefaultDiscoveryWindow = time.Second
	DefaultWatchDebounce   = 2 * time.Second
	DefaultHistoryKeep     = 200
)

func applyDefaults(cfg *Config) {
	if cfg.BuildPath == "" {
		cfg.BuildPath = DefaultBuildPath
	}
	if cfg.Zephyr.Framework.Version == "" {
		cfg.Zephyr.Framework.Version = DefaultFrameworkVersion
	}
	if cfg.Zephyr.Pristine == "" {
		cfg.Zephyr.Pristine = PristineAuto
	}
	for i := range cfg.I2C {
		if cfg.I2C[i].Frequency == 0 {
			cfg.I2C[i].Frequency = DefaultI2CFrequency
		}
	}
	for i := range cfg.ADC {
		if cfg.ADC[i].Reference == "" {
			cfg.ADC[i].Reference = DefaultADCReference
		}
		if cfg.ADC[i].Gain == "" {
			cfg.ADC[i].Gain = DefaultADCGain
		}
	}
	if cfg.Network != nil && cfg.Network.Hostname == "" {
		cfg.Network.Hostname = cfg.Name
	}
	if cfg.Upload.SettleDelay == 0 {
		cfg.Upload.SettleDelay = DefaultSettleDelay
	}
	if cfg.Upload.DiscoveryWindow == 0 {
		cfg.Upload.DiscoveryWindow = DefaultDiscoveryWindow
	}
	if cfg.History.Keep == 0 {
		cfg.History.Keep = DefaultHistoryKeep
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
}
