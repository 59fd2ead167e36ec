// Package board describes the Zephyr boards zephyrforge can target.
//
// A board is a Descriptor value: pin and analog maps, the scarce hardware
// controllers it exposes, whitelists for bus parameters and a few hook
// functions for the build. Variants are composed from shared constructors
// instead of being subclassed, and are looked up by name in a Registry.
package board

import (
	"maps"
	"slices"
	"strconv"
)

// BusKind names a peripheral family.
type BusKind string

const (
	BusI2C     BusKind = "i2c"
	BusI2CGPIO BusKind = "i2c_gpio"
	BusSPI     BusKind = "spi"
	BusADC     BusKind = "adc"
)

// Role names a signal line of a bus.
type Role string

const (
	RoleSDA  Role = "sda"
	RoleSCL  Role = "scl"
	RoleCLK  Role = "clk"
	RoleMOSI Role = "mosi"
	RoleMISO Role = "miso"
)

// Image selects one of the two firmware images.
type Image string

const (
	ImageApplication Image = "application"
	ImageBootloader  Image = "bootloader"
)

// UploadKind is how a locally attached board receives firmware.
type UploadKind string

const (
	// UploadWired flashes both images through a debug probe (west flash).
	UploadWired UploadKind = "wired"
	// UploadDetachableUSB installs the bootloader over the vendor USB DFU
	// and the application over mcumgr serial, with a manual reset in between.
	UploadDetachableUSB UploadKind = "usb"
)

// PinLocation is a pin's controller and its offset on that controller.
type PinLocation struct {
	Controller string
	Offset     int
}

// ResolvedPin is a board pin after lookup.
type ResolvedPin struct {
	Name string
	PinLocation
	// Absolute is the SoC-wide pin number used by hardware peripheral nodes.
	Absolute int
}

// BusParams carries the parameters validated per bus kind.
type BusParams struct {
	FrequencyHz int
	Hardware    bool
	Reference   string
	Gain        string
}

// Hook rewrites the CMake argument list passed to the build tool.
type Hook func(args []string) []string

// Descriptor is the capability description of one board variant.
// Treat it as read-only once returned from a Registry.
type Descriptor struct {
	Name string

	// Controllers lists GPIO ports in SoC order; PortWidth pins each.
	Controllers []string
	PortWidth   int

	Pins   map[string]PinLocation
	Analog map[string]int

	HardwareI2C       []string
	HardwareI2COption string
	SPIDevice         string
	ADCDevice         string
	ADCReferences     []string
	ADCGains          []string
	HardwareI2CFreqs  []int

	Defaults map[BusKind]map[Role]string

	OpenThread bool
	Uploader   UploadKind

	// ShellChosen is the devicetree chosen node used for the console in main().
	ShellChosen string
	// BaseOverlays are appended to every session before any peripheral.
	BaseOverlays []string

	// FlashLayout is the partition map with a CODE_PARTITION placeholder.
	// DO NOT change it without also reflashing the bootloader: partition
	// offsets are compiled into an installed mcuboot.
	FlashLayout      string
	CodePartitions   map[Image]string
	BootOverlayExtra string

	BootloaderArgs  Hook
	ApplicationArgs Hook
}

// ResolvePin looks a pin up by its board name.
func (d *Descriptor) ResolvePin(name string) (PinLocation, error) {
	loc, ok := d.Pins[name]
	if !ok {
		return PinLocation{}, &UnknownPinError{Board: d.Name, Pin: name, Known: d.PinNames()}
	}
	return loc, nil
}

// Resolve returns the pin together with its absolute number.
func (d *Descriptor) Resolve(name string) (ResolvedPin, error) {
	loc, err := d.ResolvePin(name)
	if err != nil {
		return ResolvedPin{}, err
	}
	return ResolvedPin{Name: name, PinLocation: loc, Absolute: d.AbsolutePin(loc)}, nil
}

// AbsolutePin maps a controller-local pin to the SoC pin number
// (gpio1 pin 3 on an nRF52840 is 35).
func (d *Descriptor) AbsolutePin(loc PinLocation) int {
	idx := slices.Index(d.Controllers, loc.Controller)
	if idx < 0 {
		idx = 0
	}
	return idx*d.PortWidth + loc.Offset
}

// ResolveAnalogChannel returns the ADC channel wired to a pin.
func (d *Descriptor) ResolveAnalogChannel(name string) (int, error) {
	ch, ok := d.Analog[name]
	if !ok {
		return 0, &UnsupportedAnalogPinError{Board: d.Name, Pin: name, Known: sortedKeys(d.Analog)}
	}
	return ch, nil
}

// ValidateBusParameters checks parameters against the board whitelists.
func (d *Descriptor) ValidateBusParameters(kind BusKind, p BusParams) error {
	switch kind {
	case BusI2C, BusI2CGPIO:
		if p.FrequencyHz <= 0 {
			return d.busParamError(BusI2C, "frequency", strconv.Itoa(p.FrequencyHz), nil)
		}
		if p.Hardware && kind == BusI2C && !slices.Contains(d.HardwareI2CFreqs, p.FrequencyHz) {
			allowed := make([]string, 0, len(d.HardwareI2CFreqs))
			for _, f := range d.HardwareI2CFreqs {
				allowed = append(allowed, strconv.Itoa(f))
			}
			return d.busParamError(BusI2C, "frequency", strconv.Itoa(p.FrequencyHz), allowed)
		}
	case BusADC:
		if !slices.Contains(d.ADCReferences, p.Reference) {
			return d.busParamError(BusADC, "reference", p.Reference, d.ADCReferences)
		}
		if !slices.Contains(d.ADCGains, p.Gain) {
			return d.busParamError(BusADC, "gain", p.Gain, d.ADCGains)
		}
	}
	return nil
}

func (d *Descriptor) busParamError(kind BusKind, param, value string, allowed []string) error {
	return &UnsupportedBusParameterError{Board: d.Name, Bus: kind, Parameter: param, Value: value, Allowed: allowed}
}

// DefaultPinsFor returns a copy of the default pin names for a bus kind.
func (d *Descriptor) DefaultPinsFor(kind BusKind) map[Role]string {
	if kind == BusI2CGPIO {
		kind = BusI2C
	}
	return maps.Clone(d.Defaults[kind])
}

// SupportsOpenThread reports whether the board can run the Thread radio stack.
func (d *Descriptor) SupportsOpenThread() bool { return d.OpenThread }

// PreCompileBootloaderArgs applies the board hook to the bootloader build arguments.
func (d *Descriptor) PreCompileBootloaderArgs(args []string) []string {
	args = slices.Clone(args)
	if d.BootloaderArgs == nil {
		return args
	}
	return d.BootloaderArgs(args)
}

// PreCompileApplicationArgs applies the board hook to the application build arguments.
func (d *Descriptor) PreCompileApplicationArgs(args []string) []string {
	args = slices.Clone(args)
	if d.ApplicationArgs == nil {
		return args
	}
	return d.ApplicationArgs(args)
}

// PinNames lists pin names in sorted order.
func (d *Descriptor) PinNames() []string { return sortedKeys(d.Pins) }

// Validate checks internal consistency of a descriptor: every analog name
// and every default pin must exist in the pin map.
func (d *Descriptor) Validate() error {
	for name := range d.Analog {
		if _, err := d.ResolvePin(name); err != nil {
			return err
		}
	}
	for _, roles := range d.Defaults {
		for _, pin := range roles {
			if _, err := d.ResolvePin(pin); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
