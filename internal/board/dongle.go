package board

import "maps"

// donglePins covers the castellated pads of the nRF52840 USB dongle plus
// its LEDs and buttons. Pads on the underside are not listed.
var donglePins = map[string]PinLocation{
	"P0.13": {gpio0, 13},
	"P0.15": {gpio0, 15},
	"P0.17": {gpio0, 17},
	"P0.20": {gpio0, 20}, // UART TX
	"P0.22": {gpio0, 22}, // QSPI
	"P0.24": {gpio0, 24}, // UART RX
	"P1.00": {gpio1, 0},  // QSPI, SWO
	"P0.09": {gpio0, 9},  // NFC1
	"P0.10": {gpio0, 10}, // NFC2
	"P0.31": {gpio0, 31}, // AIN7
	"P0.29": {gpio0, 29}, // AIN5
	"P0.02": {gpio0, 2},  // AIN0
	"P1.15": {gpio1, 15},
	"P1.13": {gpio1, 13},
	"P1.10": {gpio1, 10},
	"P0.06": {gpio0, 6},  // green LED
	"P0.08": {gpio0, 8},  // RGB red
	"P1.09": {gpio1, 9},  // RGB green
	"P0.12": {gpio0, 12}, // RGB blue
	"P1.06": {gpio1, 6},  // button
	"P0.18": {gpio0, 18}, // reset
	"A0":    {gpio0, 2},
	"A5":    {gpio0, 29},
	"A7":    {gpio0, 31},
}

const dongleFlashLayout = `
/delete-node/ &boot_partition;
/delete-node/ &slot0_partition;
/delete-node/ &slot1_partition;
/delete-node/ &storage_partition;
/delete-node/ &scratch_partition;

/ {
	chosen {
		zephyr,code-partition = &CODE_PARTITION;
	};
};

&flash0 {
	partitions {
		compatible = "fixed-partitions";
		#address-cells = < 0x1 >;
		#size-cells = < 0x1 >;
		newboot_partition: partition@1000 {
			label = "mcuboot";
			reg = < 0x1000 0x000f000 >;
		};
		newcode: partition@10000 {
			label = "image-0";
			reg = < 0x10000 0x66000 >;
		};
		partition@76000 {
			label = "image-1";
			reg = < 0x76000 0x66000 >;
		};
		partition@dc000 {
			label = "storage";
			reg = < 0xdc000 0x4000 >;
		};
	};
};
`

func newDongleNRF52840() *Descriptor {
	d := nrf52840Base()
	d.Pins = maps.Clone(donglePins)
	d.Analog = analogFromPins(donglePins)
	d.Defaults = map[BusKind]map[Role]string{
		BusI2C: {RoleSDA: "P0.13", RoleSCL: "P0.15"},
		BusSPI: {RoleCLK: "P1.15", RoleMOSI: "P1.13", RoleMISO: "P1.10"},
	}
	d.Uploader = UploadDetachableUSB
	// mcuboot replaces the Nordic open bootloader at 0x1000.
	d.FlashLayout = dongleFlashLayout
	d.CodePartitions = map[Image]string{
		ImageApplication: "newcode",
		ImageBootloader:  "newboot_partition",
	}
	d.BootOverlayExtra = cdcACMOverlay
	d.BootloaderArgs = func(args []string) []string {
		return append(args,
			"-DCONFIG_BOOT_ERASE_PROGRESSIVELY=n",
			"-DCONFIG_BOOT_UPGRADE_ONLY=y",
		)
	}
	d.ApplicationArgs = func(args []string) []string {
		// Flash is tight: keep only error and warning log strings.
		return append(args, "-DCONFIG_LOG_MAX_LEVEL=2")
	}
	return d
}
