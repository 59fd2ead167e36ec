package config

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/zephyrforge/internal/board"
	"git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
)

var (
	projectNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	busIDPattern       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Validate checks cross-field rules. Board pin names and bus parameters are
// checked later by the board itself when the session requests them.
func Validate(cfg *Config) error {
	v := &configurationValidator{cfg: cfg}
	for _, check := range []func() error{
		v.validateName,
		v.validateZephyr,
		v.validateI2C,
		v.validateADC,
		v.validateOpenThread,
		v.validateNotify,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

type configurationValidator struct {
	cfg *Config
}

func invalid(field, format string, args ...any) error {
	return errors.ValidationError(fmt.Sprintf(format, args...)).
		WithContext("field", field).
		Build()
}

func (v *configurationValidator) validateName() error {
	if v.cfg.Name == "" {
		return invalid("name", "name is required")
	}
	if !projectNamePattern.MatchString(v.cfg.Name) {
		return invalid("name", "name %q must be lowercase letters, digits, '-' or '_'", v.cfg.Name)
	}
	return nil
}

func (v *configurationValidator) validateZephyr() error {
	z := v.cfg.Zephyr
	if z.Board == "" {
		return invalid("zephyr.board", "zephyr.board is required (known boards: %s)", strings.Join(board.Default().Names(), ", "))
	}
	d, err := board.Lookup(z.Board)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "unsupported zephyr.board").
			WithContext("field", "zephyr.board").
			Build()
	}
	if z.ZephyrBase == "" {
		return invalid("zephyr.zephyr_base", "zephyr.zephyr_base is required")
	}
	if !strings.HasPrefix(z.Framework.Version, "2.6.") {
		return invalid("zephyr.framework.version", "can only handle zephyr version 2.6.x, got %q", z.Framework.Version)
	}
	if z.FlashArgs == "" && d.Uploader == board.UploadWired {
		return invalid("zephyr.flash_args", "zephyr.flash_args is required for %s", d.Name)
	}
	for _, kv := range z.Kconfigs {
		if !strings.HasPrefix(kv.Key, "CONFIG_") {
			return invalid("zephyr.kconfigs", "kconfig %q must start with CONFIG_", kv.Key)
		}
	}
	return nil
}

func (v *configurationValidator) validateI2C() error {
	seen := make(map[string]struct{}, len(v.cfg.I2C))
	for i, bus := range v.cfg.I2C {
		field := fmt.Sprintf("i2c[%d]", i)
		if bus.Frequency <= 0 {
			return invalid(field, "%s.frequency must be positive", field)
		}
		if bus.ID == "" {
			continue
		}
		if !busIDPattern.MatchString(bus.ID) {
			return invalid(field, "%s.id %q is not a valid identifier", field, bus.ID)
		}
		if _, dup := seen[bus.ID]; dup {
			return invalid(field, "duplicate i2c id %q", bus.ID)
		}
		seen[bus.ID] = struct{}{}
	}
	return nil
}

func (v *configurationValidator) validateADC() error {
	for i, a := range v.cfg.ADC {
		if a.Pin == "" {
			return invalid(fmt.Sprintf("adc[%d]", i), "adc[%d].pin is required", i)
		}
	}
	return nil
}

func (v *configurationValidator) validateOpenThread() error {
	ot := v.cfg.OpenThread
	if ot == nil {
		return nil
	}
	if ot.NetworkName == "" {
		return invalid("openthread.network_name", "openthread.network_name is required")
	}
	if ot.Channel < 11 || ot.Channel > 26 {
		return invalid("openthread.network_channel", "openthread.network_channel must be 11..26, got %d", ot.Channel)
	}
	if !validNetworkKey(ot.NetworkKey) {
		return invalid("openthread.network_key", "openthread.network_key must be 16 colon-separated hex bytes")
	}
	if ot.PANID < 0 || ot.PANID > 0xfffe {
		return invalid("openthread.panid", "openthread.panid must be 0..65534")
	}
	if b, err := hex.DecodeString(ot.XPANID); err != nil || len(b) != 8 {
		return invalid("openthread.xpanid", "openthread.xpanid must be 16 hex digits")
	}
	return nil
}

func validNetworkKey(key string) bool {
	parts := strings.Split(key, ":")
	if len(parts) != 16 {
		return false
	}
	for _, p := range parts {
		if len(p) != 2 {
			return false
		}
		if _, err := hex.DecodeString(p); err != nil {
			return false
		}
	}
	return true
}

func (v *configurationValidator) validateNotify() error {
	if n := v.cfg.Notify; n != nil && n.NATSURL == "" {
		return invalid("notify.nats_url", "notify.nats_url is required when notify is set")
	}
	return nil
}
