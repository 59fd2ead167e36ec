package board

import (
	"fmt"
	"strings"
)

const codePartitionPlaceholder = "CODE_PARTITION"

// OverlayForBus renders the devicetree fragment binding pins to a bus device.
// It depends only on its arguments.
func (d *Descriptor) OverlayForBus(kind BusKind, pins map[Role]ResolvedPin, device string, p BusParams) string {
	switch kind {
	case BusI2C:
		return fmt.Sprintf(`
&%s {
	clock-frequency = < %d >;
	sda-pin = < %d >;
	scl-pin = < %d >;
	status = "okay";
};
`, device, p.FrequencyHz, pins[RoleSDA].Absolute, pins[RoleSCL].Absolute)
	case BusI2CGPIO:
		sda, scl := pins[RoleSDA], pins[RoleSCL]
		return fmt.Sprintf(`
/ {
	%s: gpio_i2c_%s {
		compatible = "gpio-i2c";
		status = "okay";
		clock-frequency = < %d >;
		sda-gpios = <&%s %d (GPIO_OPEN_DRAIN)>;
		scl-gpios = <&%s %d (GPIO_OPEN_DRAIN)>;
		label = "%s";
		#address-cells = <1>;
		#size-cells = <0>;
	};
};
`, device, strings.TrimPrefix(device, "gpioi2c"), p.FrequencyHz,
			sda.Controller, sda.Offset, scl.Controller, scl.Offset, gpioI2CLabel(device))
	case BusSPI:
		return fmt.Sprintf(`
&%s {
	sck-pin = < %d >;
	mosi-pin = < %d >;
	miso-pin = < %d >;
};
`, device, pins[RoleCLK].Absolute, pins[RoleMOSI].Absolute, pins[RoleMISO].Absolute)
	default:
		return ""
	}
}

// gpioI2CLabel turns gpioi2c1 into GPIOI2C_1.
func gpioI2CLabel(device string) string {
	return "GPIOI2C_" + strings.TrimPrefix(device, "gpioi2c")
}

// FlashLayoutOverlay returns the partition map for one image, with the code
// partition chosen for that image. Boards that keep the stock partitions
// return an empty string.
func (d *Descriptor) FlashLayoutOverlay(image Image) string {
	if d.FlashLayout == "" {
		return ""
	}
	return strings.ReplaceAll(d.FlashLayout, codePartitionPlaceholder, d.CodePartitions[image])
}

// BootOverlay is the full overlay written into the bootloader source tree.
func (d *Descriptor) BootOverlay() string {
	return d.FlashLayoutOverlay(ImageBootloader) + d.BootOverlayExtra
}
