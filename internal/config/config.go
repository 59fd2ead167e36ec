// Package config loads the device YAML: which board, which peripherals,
// which radio stack, and where the Zephyr workspace and build tree live.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
	"git.home.luguber.info/inful/zephyrforge/internal/retry"
)

// DefaultFrameworkVersion is the Zephyr release the generated project targets.
const DefaultFrameworkVersion = "2.6.0"

// Config is the device configuration file.
type Config struct {
	// Name is the project and device hostname.
	Name string `yaml:"name"`
	// BuildPath is the root of the generated tree; proj/ and boot/ live below it.
	BuildPath string `yaml:"build_path,omitempty"`
	// Sources is an optional directory of user sources copied into src/.
	Sources string `yaml:"sources,omitempty"`

	Zephyr     ZephyrConfig      `yaml:"zephyr"`
	I2C        []I2CConfig       `yaml:"i2c,omitempty"`
	SPI        *SPIConfig        `yaml:"spi,omitempty"`
	ADC        []ADCConfig       `yaml:"adc,omitempty"`
	Network    *NetworkConfig    `yaml:"network,omitempty"`
	OpenThread *OpenThreadConfig `yaml:"openthread,omitempty"`
	OTA        *OTAConfig        `yaml:"ota,omitempty"`
	Upload     UploadConfig      `yaml:"upload,omitempty"`
	History    HistoryConfig     `yaml:"history,omitempty"`
	Metrics    MetricsConfig     `yaml:"metrics,omitempty"`
	Notify     *NotifyConfig     `yaml:"notify,omitempty"`
	Watch      WatchConfig       `yaml:"watch,omitempty"`

	// path is the file the config was loaded from.
	path string
}

// ZephyrConfig selects the board and the Zephyr workspace.
type ZephyrConfig struct {
	Board      string          `yaml:"board"`
	ZephyrBase string          `yaml:"zephyr_base"`
	Framework  FrameworkConfig `yaml:"framework,omitempty"`
	// FlashArgs is the west flash template; SERIAL_DEVICE and BUILD_DIR are
	// substituted at upload time.
	FlashArgs string `yaml:"flash_args"`
	// Pristine is west's -p mode: auto, always or never.
	Pristine  Pristine `yaml:"pristine,omitempty"`
	CMakeArgs []string `yaml:"cmake_args,omitempty"`
	// Kconfigs are applied after every component, in file order.
	Kconfigs KconfigList `yaml:"kconfigs,omitempty"`
}

// FrameworkConfig pins the Zephyr release.
type FrameworkConfig struct {
	Version string `yaml:"version,omitempty"`
}

// I2CConfig declares one I2C bus.
type I2CConfig struct {
	ID        string    `yaml:"id,omitempty"`
	SDA       string    `yaml:"sda,omitempty"`
	SCL       string    `yaml:"scl,omitempty"`
	Frequency Frequency `yaml:"frequency,omitempty"`
}

// SPIConfig declares the SPI bus. Empty pins use the board defaults.
type SPIConfig struct {
	CLK  string `yaml:"clk_pin,omitempty"`
	MOSI string `yaml:"mosi_pin,omitempty"`
	MISO string `yaml:"miso_pin,omitempty"`
}

// ADCConfig declares one analog input.
type ADCConfig struct {
	ID        string `yaml:"id,omitempty"`
	Pin       string `yaml:"pin"`
	Reference string `yaml:"reference,omitempty"`
	Gain      string `yaml:"gain,omitempty"`
}

// NetworkConfig enables the IP stack.
type NetworkConfig struct {
	// Hostname defaults to Name.
	Hostname string `yaml:"hostname,omitempty"`
}

// OpenThreadConfig holds the Thread network credentials.
type OpenThreadConfig struct {
	NetworkName string `yaml:"network_name"`
	Channel     int    `yaml:"network_channel"`
	NetworkKey  string `yaml:"network_key"`
	PANID       int    `yaml:"panid"`
	XPANID      string `yaml:"xpanid"`
}

// OTAConfig enables mcumgr image management over the network. Its presence
// is the switch.
type OTAConfig struct{}

// UploadConfig controls the upload command.
type UploadConfig struct {
	// Device is the default target; empty means network discovery.
	Device string `yaml:"device,omitempty"`
	// Confirm marks network-uploaded images permanent before reset.
	Confirm     bool          `yaml:"confirm,omitempty"`
	SettleDelay time.Duration `yaml:"settle_delay,omitempty"`
	// DiscoveryWindow bounds the mDNS lookup.
	DiscoveryWindow time.Duration `yaml:"discovery_window,omitempty"`
}

// HistoryConfig configures the SQLite run history.
type HistoryConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Path     string `yaml:"path,omitempty"`
	// Keep is the number of runs retained; negative keeps everything.
	Keep int `yaml:"keep,omitempty"`
}

// MetricsConfig configures Prometheus textfile export.
type MetricsConfig struct {
	// Textfile, when set, receives the run's metrics for node_exporter.
	Textfile string `yaml:"textfile,omitempty"`
}

// NotifyConfig configures NATS notifications.
type NotifyConfig struct {
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
	KVBucket      string `yaml:"kv_bucket,omitempty"`
	// Retries re-sends a failed notification; negative disables, zero
	// keeps the default.
	Retries      int        `yaml:"retries,omitempty"`
	RetryBackoff retry.Mode `yaml:"retry_backoff,omitempty"`
}

// RetryPolicy is the delivery policy for notifications.
func (n *NotifyConfig) RetryPolicy() retry.Policy {
	return retry.NewPolicy(n.RetryBackoff, 0, 0, n.Retries)
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
	// Upload deploys after every successful rebuild.
	Upload bool `yaml:"upload,omitempty"`
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string { return c.path }

// Load reads, expands, normalizes, defaults and validates the file at
// configPath. Environment files next to the working directory are loaded
// first so ${VAR} references resolve.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				WithHint("zephyrforge init writes an example configuration").
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		abs = configPath
	}
	cfg.path = abs
	cfg.resolveRelative(filepath.Dir(abs))
	return cfg, nil
}

// Parse decodes YAML content after environment expansion and runs the
// normalize, defaults and validation passes.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").Build()
	}

	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveRelative anchors relative paths at the config file's directory.
func (c *Config) resolveRelative(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.BuildPath = abs(c.BuildPath)
	c.Sources = abs(c.Sources)
	c.Zephyr.ZephyrBase = abs(expandHome(c.Zephyr.ZephyrBase))
	c.History.Path = abs(c.History.Path)
	c.Metrics.Textfile = abs(c.Metrics.Textfile)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// HistoryPath is the SQLite database location.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(c.BuildPath, "history.db")
}

// Init writes an example configuration for board to configPath.
func Init(configPath, name, boardName string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	example := Config{
		Name:      name,
		BuildPath: ".zephyrforge",
		Zephyr: ZephyrConfig{
			Board:      boardName,
			ZephyrBase: "${ZEPHYR_WORKSPACE}",
			Framework:  FrameworkConfig{Version: DefaultFrameworkVersion},
			FlashArgs:  "--hex-file BUILD_DIR/zephyr/zephyr.hex",
			Pristine:   PristineAuto,
		},
		I2C:     []I2CConfig{{ID: "bus_a", SDA: "SDA", SCL: "SCL", Frequency: 100000}},
		Network: &NetworkConfig{},
		OTA:     &OTAConfig{},
		Upload:  UploadConfig{Confirm: true},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create config directory").Build()
	}
	// #nosec G306 -- configuration is not secret
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
