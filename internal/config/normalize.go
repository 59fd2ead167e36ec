package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/zephyrforge/internal/board"
	"git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
	"git.home.luguber.info/inful/zephyrforge/internal/foundation/normalization"
	"git.home.luguber.info/inful/zephyrforge/internal/retry"
)

// Pristine is west's -p mode.
type Pristine string

const (
	PristineAuto   Pristine = "auto"
	PristineAlways Pristine = "always"
	PristineNever  Pristine = "never"
)

var pristineNormalizer = normalization.NewNormalizer(map[string]Pristine{
	"auto":   PristineAuto,
	"always": PristineAlways,
	"never":  PristineNever,
}, PristineAuto)

var backoffNormalizer = normalization.NewNormalizer(map[string]retry.Mode{
	"fixed":       retry.ModeFixed,
	"constant":    retry.ModeFixed,
	"linear":      retry.ModeLinear,
	"exponential": retry.ModeExponential,
	"exp":         retry.ModeExponential,
}, retry.ModeExponential)

// NormalizePristine case-folds raw; unknown values fall back to auto.
func NormalizePristine(raw string) Pristine {
	return pristineNormalizer.Normalize(raw)
}

// Frequency is a bus clock in Hz. YAML accepts plain integers or values
// with a Hz, kHz or MHz suffix.
type Frequency int

// UnmarshalYAML parses 400000, "400kHz" or "0.4MHz".
func (f *Frequency) UnmarshalYAML(node *yaml.Node) error {
	hz, err := ParseFrequency(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*f = Frequency(hz)
	return nil
}

// ParseFrequency converts a frequency literal to Hz.
func ParseFrequency(raw string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "mhz"):
		mult, s = 1e6, strings.TrimSuffix(s, "mhz")
	case strings.HasSuffix(s, "khz"):
		mult, s = 1e3, strings.TrimSuffix(s, "khz")
	case strings.HasSuffix(s, "hz"):
		s = strings.TrimSuffix(s, "hz")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frequency %q", raw)
	}
	return int(v*mult + 0.5), nil
}

// normalize canonicalizes enumerations before defaults and validation.
func normalize(cfg *Config) error {
	if cfg.Zephyr.Pristine != "" {
		p, err := pristineNormalizer.NormalizeWithError(string(cfg.Zephyr.Pristine))
		if err != nil {
			return errors.ValidationError(fmt.Sprintf("invalid zephyr.pristine %q (want auto, always or never)", cfg.Zephyr.Pristine)).Build()
		}
		cfg.Zephyr.Pristine = p
	}
	if n := cfg.Notify; n != nil && n.RetryBackoff != "" {
		mode, err := backoffNormalizer.NormalizeWithError(string(n.RetryBackoff))
		if err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "invalid notify.retry_backoff").
				WithContext("field", "notify.retry_backoff").
				Build()
		}
		n.RetryBackoff = mode
	}
	cfg.Zephyr.Board = strings.TrimSpace(cfg.Zephyr.Board)
	for i := range cfg.ADC {
		a := &cfg.ADC[i]
		if a.Reference != "" {
			a.Reference = board.NormalizeADCReference(a.Reference)
		}
		if a.Gain != "" {
			a.Gain = board.NormalizeADCGain(a.Gain)
		}
	}
	if ot := cfg.OpenThread; ot != nil {
		ot.NetworkKey = strings.ToLower(strings.TrimSpace(ot.NetworkKey))
		ot.XPANID = strings.ToLower(strings.TrimSpace(ot.XPANID))
	}
	return nil
}
