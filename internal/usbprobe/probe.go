// Package usbprobe detects nRF52840 dongles on the USB bus and reports
// which firmware is answering, so detachable-USB uploads can tell the
// operator when the device is not in the expected mode.
package usbprobe

import (
	"context"
	"fmt"

	"github.com/google/gousb"
)

// Mode is the firmware a detected dongle is running.
type Mode string

const (
	// ModeNordicDFU is the factory open bootloader (reset button held).
	ModeNordicDFU Mode = "nordic-dfu"
	// ModeZephyr is a Zephyr USB stack: the application, or mcuboot serial
	// recovery.
	ModeZephyr Mode = "zephyr"
)

// USB identifiers.
const (
	VendorNordic          = 0x1915
	ProductOpenBootloader = 0x521f
	VendorZephyr          = 0x2fe3
	ProductZephyrDefault  = 0x0100
)

// Device is one detected dongle.
type Device struct {
	Mode      Mode
	VendorID  uint16
	ProductID uint16
	Bus       int
	Address   int
}

func (d Device) String() string {
	return fmt.Sprintf("%s (%04x:%04x bus %d addr %d)", d.Mode, d.VendorID, d.ProductID, d.Bus, d.Address)
}

// Prober lists dongles currently attached.
type Prober interface {
	Probe(ctx context.Context) ([]Device, error)
}

type knownDevice struct {
	vendor, product uint16
	mode            Mode
}

var knownDevices = []knownDevice{
	{VendorNordic, ProductOpenBootloader, ModeNordicDFU},
	{VendorZephyr, ProductZephyrDefault, ModeZephyr},
}

// Classify maps a VID:PID pair to a dongle mode.
func Classify(vendor, product uint16) (Mode, bool) {
	for _, k := range knownDevices {
		if k.vendor == vendor && k.product == product {
			return k.mode, true
		}
	}
	return "", false
}

// USBProber enumerates devices through libusb.
type USBProber struct{}

func (USBProber) Probe(ctx context.Context) ([]Device, error) {
	usb := gousb.NewContext()
	defer func() { _ = usb.Close() }()

	var found []Device
	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if mode, ok := Classify(uint16(desc.Vendor), uint16(desc.Product)); ok {
			found = append(found, Device{
				Mode:      mode,
				VendorID:  uint16(desc.Vendor),
				ProductID: uint16(desc.Product),
				Bus:       desc.Bus,
				Address:   desc.Address,
			})
		}
		// Descriptors are enough; never open the device.
		return false
	})
	if err != nil && err != gousb.ErrorAccess {
		return found, fmt.Errorf("enumerate usb devices: %w", err)
	}
	return found, ctx.Err()
}

// FirstInMode returns the first device in mode.
func FirstInMode(devices []Device, mode Mode) (Device, bool) {
	for _, d := range devices {
		if d.Mode == mode {
			return d, true
		}
	}
	return Device{}, false
}
