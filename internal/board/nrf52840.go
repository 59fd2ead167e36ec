package board

import (
	"fmt"
)

const (
	gpio0 = "gpio0"
	gpio1 = "gpio1"
)

// saadcChannels maps P0 offsets to nRF52840 SAADC inputs AIN0..AIN7.
var saadcChannels = map[int]int{2: 0, 3: 1, 4: 2, 5: 3, 28: 4, 29: 5, 30: 6, 31: 7}

// cdcACMOverlay declares the USB CDC ACM UART used as shell console.
const cdcACMOverlay = `
&zephyr_udc0 {
	cdc_acm_uart0: cdc_acm_uart0 {
		compatible = "zephyr,cdc-acm-uart";
		label = "CDC_ACM_0";
	};
};
`

const shellChosenOverlay = `
/ {
	chosen {
		zephyr,shell-uart = &cdc_acm_uart0;
	};
};
`

func init() {
	defaultRegistry.MustRegister("adafruit_feather_nrf52840", newFeatherNRF52840)
	defaultRegistry.MustRegister("nrf52840dongle_nrf52840", newDongleNRF52840)
	defaultRegistry.MustRegister("nrf52840dk_nrf52840", newDKNRF52840)
}

// nrf52840Base returns the capabilities shared by every nRF52840 board.
// Variants fill in pins, analog inputs and defaults.
func nrf52840Base() *Descriptor {
	return &Descriptor{
		Controllers:       []string{gpio0, gpio1},
		PortWidth:         32,
		HardwareI2C:       []string{"i2c0"},
		HardwareI2COption: "CONFIG_I2C_NRFX",
		HardwareI2CFreqs:  []int{100000, 400000},
		SPIDevice:         "spi1",
		ADCDevice:         "adc",
		ADCReferences: []string{
			"ADC_REF_INTERNAL",
			"ADC_REF_VDD_1_2",
			"ADC_REF_VDD_1_3",
			"ADC_REF_VDD_1_4",
			"ADC_REF_EXTERNAL0",
			"ADC_REF_EXTERNAL1",
		},
		ADCGains: []string{
			"ADC_GAIN_1_6",
			"ADC_GAIN_1_5",
			"ADC_GAIN_1_4",
			"ADC_GAIN_1_3",
			"ADC_GAIN_1_2",
			"ADC_GAIN_1",
			"ADC_GAIN_2",
			"ADC_GAIN_4",
		},
		OpenThread:   true,
		Uploader:     UploadWired,
		ShellChosen:  "zephyr_shell_uart",
		BaseOverlays: []string{cdcACMOverlay, shellChosenOverlay},
	}
}

// analogFromPins derives the analog map from pins routed to SAADC inputs.
func analogFromPins(pins map[string]PinLocation) map[string]int {
	analog := make(map[string]int)
	for name, loc := range pins {
		if loc.Controller != gpio0 {
			continue
		}
		if ch, ok := saadcChannels[loc.Offset]; ok {
			analog[name] = ch
		}
	}
	return analog
}

// portPinName formats P1.05 style names.
func portPinName(port, offset int) string {
	return fmt.Sprintf("P%d.%02d", port, offset)
}
