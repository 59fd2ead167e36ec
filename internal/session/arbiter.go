package session

import (
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/zephyrforge/internal/board"
	"git.home.luguber.info/inful/zephyrforge/internal/logfields"
)

// I2CBinding is the result of an I2C request.
type I2CBinding struct {
	Device   string
	Hardware bool
	SDA      board.ResolvedPin
	SCL      board.ResolvedPin
}

// SPIBinding is the result of an SPI request.
type SPIBinding struct {
	Device string
	CLK    board.ResolvedPin
	MOSI   board.ResolvedPin
	MISO   board.ResolvedPin
}

// ADCBinding is the result of an ADC request.
type ADCBinding struct {
	Device  string
	Channel int
}

// RequestI2C binds an I2C bus to sda/scl. The first requests get the
// board's hardware controllers in call order; once they are used up the bus
// is bit-banged over GPIO. Exhaustion is never an error.
//
// Empty names, or the literal aliases SDA and SCL, select the board defaults.
func (s *Session) RequestI2C(sda, scl string, frequencyHz int) (I2CBinding, error) {
	s.SetOptions([]KV{{"CONFIG_I2C", true}, {"CONFIG_I2C_SHELL", false}})

	defaults := s.Board.DefaultPinsFor(board.BusI2C)
	sda = pinOrDefault(sda, board.RoleSDA, defaults)
	scl = pinOrDefault(scl, board.RoleSCL, defaults)

	if device, ok := s.pool.Take(board.BusI2C); ok {
		params := board.BusParams{FrequencyHz: frequencyHz, Hardware: true}
		if err := s.Board.ValidateBusParameters(board.BusI2C, params); err != nil {
			return I2CBinding{}, err
		}
		b, err := s.resolveI2C(device, true, sda, scl)
		if err != nil {
			return I2CBinding{}, err
		}
		s.AppendOverlay(s.Board.OverlayForBus(board.BusI2C, i2cPins(b), device, params))
		if s.Board.HardwareI2COption != "" {
			s.SetOption(s.Board.HardwareI2COption, true)
		}
		s.recorder.IncPeripheralAllocation(string(board.BusI2C), true)
		s.logger.Debug("Allocated hardware I2C", logfields.Device(device), slog.String("sda", sda), slog.String("scl", scl))
		return b, nil
	}

	params := board.BusParams{FrequencyHz: frequencyHz}
	if err := s.Board.ValidateBusParameters(board.BusI2CGPIO, params); err != nil {
		return I2CBinding{}, err
	}
	device := fmt.Sprintf("gpioi2c%d", s.softI2C)
	b, err := s.resolveI2C(device, false, sda, scl)
	if err != nil {
		return I2CBinding{}, err
	}
	s.softI2C++
	s.AppendOverlay(s.Board.OverlayForBus(board.BusI2CGPIO, i2cPins(b), device, params))
	s.SetOption("CONFIG_I2C_GPIO", true)
	s.recorder.IncPeripheralAllocation(string(board.BusI2C), false)
	s.logger.Info("Hardware I2C exhausted, using GPIO I2C", logfields.Device(device))
	return b, nil
}

func (s *Session) resolveI2C(device string, hw bool, sda, scl string) (I2CBinding, error) {
	sdaPin, err := s.Board.Resolve(sda)
	if err != nil {
		return I2CBinding{}, err
	}
	sclPin, err := s.Board.Resolve(scl)
	if err != nil {
		return I2CBinding{}, err
	}
	return I2CBinding{Device: device, Hardware: hw, SDA: sdaPin, SCL: sclPin}, nil
}

func i2cPins(b I2CBinding) map[board.Role]board.ResolvedPin {
	return map[board.Role]board.ResolvedPin{board.RoleSDA: b.SDA, board.RoleSCL: b.SCL}
}

// RequestSPI binds the board's SPI controller to clk/mosi/miso. Empty names
// select the board defaults.
func (s *Session) RequestSPI(clk, mosi, miso string) (SPIBinding, error) {
	s.SetOption("CONFIG_SPI", true)

	defaults := s.Board.DefaultPinsFor(board.BusSPI)
	names := map[board.Role]string{
		board.RoleCLK:  pinOrDefault(clk, board.RoleCLK, defaults),
		board.RoleMOSI: pinOrDefault(mosi, board.RoleMOSI, defaults),
		board.RoleMISO: pinOrDefault(miso, board.RoleMISO, defaults),
	}
	pins := make(map[board.Role]board.ResolvedPin, len(names))
	for _, role := range []board.Role{board.RoleCLK, board.RoleMOSI, board.RoleMISO} {
		p, err := s.Board.Resolve(names[role])
		if err != nil {
			return SPIBinding{}, err
		}
		pins[role] = p
	}

	device := s.Board.SPIDevice
	s.AppendOverlay(s.Board.OverlayForBus(board.BusSPI, pins, device, board.BusParams{}))
	s.recorder.IncPeripheralAllocation(string(board.BusSPI), true)
	return SPIBinding{
		Device: device,
		CLK:    pins[board.RoleCLK],
		MOSI:   pins[board.RoleMOSI],
		MISO:   pins[board.RoleMISO],
	}, nil
}

// RequestADC validates reference and gain and resolves the analog channel.
func (s *Session) RequestADC(pin, reference, gain string) (ADCBinding, error) {
	s.SetOption("CONFIG_ADC", true)

	params := board.BusParams{Reference: reference, Gain: gain}
	if err := s.Board.ValidateBusParameters(board.BusADC, params); err != nil {
		return ADCBinding{}, err
	}
	ch, err := s.Board.ResolveAnalogChannel(pin)
	if err != nil {
		return ADCBinding{}, err
	}
	s.recorder.IncPeripheralAllocation(string(board.BusADC), true)
	return ADCBinding{Device: s.Board.ADCDevice, Channel: ch}, nil
}

func pinOrDefault(name string, role board.Role, defaults map[board.Role]string) string {
	if name == "" || strings.EqualFold(name, string(role)) {
		return defaults[role]
	}
	return name
}
