package build

import (
	"fmt"

	"git.home.luguber.info/inful/zephyrforge/internal/config"
	"git.home.luguber.info/inful/zephyrforge/internal/session"
)

// Peripherals are the bindings the configuration requested, in file order.
type Peripherals struct {
	I2C []session.I2CBinding
	SPI *session.SPIBinding
	ADC []session.ADCBinding
}

// ConfigureSession applies every configuration section to s: buses first,
// then network, OpenThread and OTA components, then the user's kconfigs so
// they override anything a component set.
func ConfigureSession(s *session.Session, cfg *config.Config) (Peripherals, error) {
	var p Peripherals

	for i, bus := range cfg.I2C {
		b, err := s.RequestI2C(bus.SDA, bus.SCL, int(bus.Frequency))
		if err != nil {
			return p, fmt.Errorf("i2c[%d] %s: %w", i, bus.ID, err)
		}
		p.I2C = append(p.I2C, b)
	}

	if cfg.SPI != nil {
		b, err := s.RequestSPI(cfg.SPI.CLK, cfg.SPI.MOSI, cfg.SPI.MISO)
		if err != nil {
			return p, fmt.Errorf("spi: %w", err)
		}
		p.SPI = &b
	}

	for i, a := range cfg.ADC {
		b, err := s.RequestADC(a.Pin, a.Reference, a.Gain)
		if err != nil {
			return p, fmt.Errorf("adc[%d] %s: %w", i, a.Pin, err)
		}
		p.ADC = append(p.ADC, b)
	}

	if cfg.Network != nil {
		s.EnableNetwork(cfg.Network.Hostname)
	}
	if ot := cfg.OpenThread; ot != nil {
		// OpenThread needs the IP stack; the hostname follows the device name.
		if cfg.Network == nil {
			s.EnableNetwork(cfg.Name)
		}
		err := s.EnableOpenThread(session.OpenThreadParams{
			NetworkName: ot.NetworkName,
			Channel:     ot.Channel,
			NetworkKey:  ot.NetworkKey,
			PANID:       ot.PANID,
			XPANID:      ot.XPANID,
		})
		if err != nil {
			return p, fmt.Errorf("openthread: %w", err)
		}
	}
	if cfg.OTA != nil {
		s.EnableOTA()
	}

	for _, kv := range cfg.Zephyr.Kconfigs {
		s.SetOption(kv.Key, kv.Value)
	}
	return p, nil
}
