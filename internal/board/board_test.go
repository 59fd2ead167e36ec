package board

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(t *testing.T, name string) *Descriptor {
	t.Helper()
	d, err := Lookup(name)
	require.NoError(t, err)
	return d
}

func TestBuiltinBoardsAreConsistent(t *testing.T) {
	names := Default().Names()
	require.Equal(t, []string{"adafruit_feather_nrf52840", "nrf52840dk_nrf52840", "nrf52840dongle_nrf52840"}, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			d := lookup(t, name)
			assert.Equal(t, name, d.Name)
			require.NoError(t, d.Validate())
			for _, kind := range []BusKind{BusI2C, BusSPI} {
				assert.NotEmpty(t, d.DefaultPinsFor(kind))
			}
		})
	}
}

func TestResolvePinSucceedsOnlyForMappedNames(t *testing.T) {
	for _, name := range Default().Names() {
		d := lookup(t, name)
		for pin, want := range d.Pins {
			got, err := d.ResolvePin(pin)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
		for _, bogus := range []string{"", "D99", "P9.99", "SDA", "p0.13"} {
			_, err := d.ResolvePin(bogus)
			require.Error(t, err, "%s: %q", name, bogus)
			assert.True(t, errors.Is(err, ErrUnknownPin))
			var upe *UnknownPinError
			require.ErrorAs(t, err, &upe)
			assert.Equal(t, bogus, upe.Pin)
		}
	}
}

func TestAbsolutePinOffsetsSecondPort(t *testing.T) {
	d := lookup(t, "adafruit_feather_nrf52840")

	p, err := d.Resolve("D3")
	require.NoError(t, err)
	assert.Equal(t, gpio1, p.Controller)
	assert.Equal(t, 15, p.Offset)
	assert.Equal(t, 47, p.Absolute)

	p, err = d.Resolve("D22")
	require.NoError(t, err)
	assert.Equal(t, 12, p.Absolute)
}

func TestResolveAnalogChannel(t *testing.T) {
	feather := lookup(t, "adafruit_feather_nrf52840")
	ch, err := feather.ResolveAnalogChannel("A0")
	require.NoError(t, err)
	assert.Equal(t, 2, ch)

	_, err = feather.ResolveAnalogChannel("D14")
	assert.ErrorIs(t, err, ErrUnsupportedAnalogPin)

	dongle := lookup(t, "nrf52840dongle_nrf52840")
	for pin, want := range map[string]int{"A0": 0, "A5": 5, "A7": 7, "P0.02": 0, "P0.29": 5, "P0.31": 7} {
		got, err := dongle.ResolveAnalogChannel(pin)
		require.NoError(t, err, pin)
		assert.Equal(t, want, got, pin)
	}
	_, err = dongle.ResolveAnalogChannel("P0.13")
	assert.ErrorIs(t, err, ErrUnsupportedAnalogPin)
}

func TestValidateBusParameters(t *testing.T) {
	d := lookup(t, "nrf52840dk_nrf52840")

	tests := []struct {
		name    string
		kind    BusKind
		params  BusParams
		wantErr bool
	}{
		{"hardware 100k", BusI2C, BusParams{FrequencyHz: 100000, Hardware: true}, false},
		{"hardware 400k", BusI2C, BusParams{FrequencyHz: 400000, Hardware: true}, false},
		{"hardware 250k", BusI2C, BusParams{FrequencyHz: 250000, Hardware: true}, true},
		{"software 250k", BusI2CGPIO, BusParams{FrequencyHz: 250000}, false},
		{"software zero", BusI2CGPIO, BusParams{FrequencyHz: 0}, true},
		{"adc ok", BusADC, BusParams{Reference: "ADC_REF_INTERNAL", Gain: "ADC_GAIN_1_6"}, false},
		{"adc vdd reference", BusADC, BusParams{Reference: "ADC_REF_VDD_1", Gain: "ADC_GAIN_1_6"}, true},
		{"adc 2/3 gain", BusADC, BusParams{Reference: "ADC_REF_INTERNAL", Gain: "ADC_GAIN_2_3"}, true},
		{"spi", BusSPI, BusParams{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.ValidateBusParameters(tt.kind, tt.params)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedBusParam)
		})
	}
}

func TestDefaultPinsForReturnsCopy(t *testing.T) {
	d := lookup(t, "adafruit_feather_nrf52840")

	spi := d.DefaultPinsFor(BusSPI)
	assert.Equal(t, map[Role]string{RoleCLK: "D26", RoleMOSI: "D25", RoleMISO: "D24"}, spi)

	spi[RoleCLK] = "D0"
	assert.Equal(t, "D26", d.DefaultPinsFor(BusSPI)[RoleCLK])
	assert.Equal(t, d.DefaultPinsFor(BusI2C), d.DefaultPinsFor(BusI2CGPIO))
}

func TestOverlayForBus(t *testing.T) {
	d := lookup(t, "adafruit_feather_nrf52840")
	sda, _ := d.Resolve("D22")
	scl, _ := d.Resolve("D3")

	pins := map[Role]ResolvedPin{RoleSDA: sda, RoleSCL: scl}
	hw := d.OverlayForBus(BusI2C, pins, "i2c0", BusParams{FrequencyHz: 400000})
	assert.Contains(t, hw, "&i2c0 {")
	assert.Contains(t, hw, "clock-frequency = < 400000 >;")
	assert.Contains(t, hw, "sda-pin = < 12 >;")
	assert.Contains(t, hw, "scl-pin = < 47 >;")
	assert.Equal(t, hw, d.OverlayForBus(BusI2C, pins, "i2c0", BusParams{FrequencyHz: 400000}))

	sw := d.OverlayForBus(BusI2CGPIO, pins, "gpioi2c1", BusParams{FrequencyHz: 100000})
	assert.Contains(t, sw, `compatible = "gpio-i2c";`)
	assert.Contains(t, sw, "sda-gpios = <&gpio0 12 (GPIO_OPEN_DRAIN)>;")
	assert.Contains(t, sw, "scl-gpios = <&gpio1 15 (GPIO_OPEN_DRAIN)>;")
	assert.Contains(t, sw, `label = "GPIOI2C_1";`)

	clk, _ := d.Resolve("D26")
	mosi, _ := d.Resolve("D25")
	miso, _ := d.Resolve("D24")
	spi := d.OverlayForBus(BusSPI, map[Role]ResolvedPin{RoleCLK: clk, RoleMOSI: mosi, RoleMISO: miso}, "spi1", BusParams{})
	assert.Contains(t, spi, "&spi1 {")
	assert.Contains(t, spi, "sck-pin = < 14 >;")
	assert.Contains(t, spi, "mosi-pin = < 13 >;")
	assert.Contains(t, spi, "miso-pin = < 15 >;")
}

func TestFlashLayoutOverlay(t *testing.T) {
	feather := lookup(t, "adafruit_feather_nrf52840")
	assert.Empty(t, feather.FlashLayoutOverlay(ImageApplication))

	dongle := lookup(t, "nrf52840dongle_nrf52840")
	app := dongle.FlashLayoutOverlay(ImageApplication)
	assert.Contains(t, app, "zephyr,code-partition = &newcode;")
	assert.NotContains(t, app, codePartitionPlaceholder)
	assert.Contains(t, app, "reg = < 0x10000 0x66000 >;")

	boot := dongle.BootOverlay()
	assert.Contains(t, boot, "zephyr,code-partition = &newboot_partition;")
	assert.Contains(t, boot, "cdc_acm_uart0")
}

func TestMainEntrypointIsIdempotent(t *testing.T) {
	d := lookup(t, "nrf52840dongle_nrf52840")
	src := "#include \"esphome.h\"\n\nvoid setup() {}\nvoid loop() {}"

	once := d.EmitMainEntrypoint(src, EntrypointOptions{OTA: true})
	twice := d.EmitMainEntrypoint(once, EntrypointOptions{OTA: true})
	assert.Equal(t, once, twice)
	assert.Equal(t, 1, strings.Count(twice, MainBlockBegin))
	assert.Contains(t, once, "img_mgmt_register_group();")
	assert.Contains(t, once, "DT_CHOSEN(zephyr_shell_uart)")

	// Regenerating with OTA off replaces, never duplicates.
	noOTA := d.EmitMainEntrypoint(once, EntrypointOptions{})
	assert.Equal(t, 1, strings.Count(noOTA, MainBlockBegin))
	assert.NotContains(t, noOTA, "img_mgmt_register_group();")
	assert.True(t, strings.HasPrefix(noOTA, src+"\n"))
}

func TestMainEntrypointDeclaresWhatItCalls(t *testing.T) {
	d := lookup(t, "nrf52840dongle_nrf52840")

	out := d.EmitMainEntrypoint("", EntrypointOptions{})
	assert.Contains(t, out, "#include <device.h>\n")
	assert.Contains(t, out, "#include <usb/usb_device.h>\n")
	assert.Less(t, strings.Index(out, "#include <usb/usb_device.h>"), strings.Index(out, "usb_enable(NULL)"))
	assert.NotContains(t, out, "smp_udp")
}

func TestMainEntrypointKeepsTextAfterBlock(t *testing.T) {
	d := lookup(t, "adafruit_feather_nrf52840")
	src := "head\n" + MainBlockBegin + "\nold\n" + MainBlockEnd + "\ntail\n"

	out := d.EmitMainEntrypoint(src, EntrypointOptions{})
	assert.True(t, strings.HasPrefix(out, "head\n"+MainBlockBegin))
	assert.True(t, strings.HasSuffix(out, MainBlockEnd+"\ntail\n"))
	assert.NotContains(t, out, "old")
}

func TestCompileHooks(t *testing.T) {
	dongle := lookup(t, "nrf52840dongle_nrf52840")
	in := []string{"-DFOO=1"}

	boot := dongle.PreCompileBootloaderArgs(in)
	assert.Equal(t, []string{"-DFOO=1", "-DCONFIG_BOOT_ERASE_PROGRESSIVELY=n", "-DCONFIG_BOOT_UPGRADE_ONLY=y"}, boot)
	app := dongle.PreCompileApplicationArgs(in)
	assert.Equal(t, []string{"-DFOO=1", "-DCONFIG_LOG_MAX_LEVEL=2"}, app)
	assert.Equal(t, []string{"-DFOO=1"}, in)

	feather := lookup(t, "adafruit_feather_nrf52840")
	assert.Equal(t, in, feather.PreCompileApplicationArgs(in))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("custom", nrf52840Base))

	err := r.Register("custom", nrf52840Base)
	require.ErrorIs(t, err, ErrDuplicateBoard)
	assert.Panics(t, func() { r.MustRegister("custom", nrf52840Base) })

	d, err := r.Lookup("custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", d.Name)

	_, err = r.Lookup("esp32")
	var ube *UnknownBoardError
	require.ErrorAs(t, err, &ube)
	assert.Equal(t, []string{"custom"}, ube.Known)
}

func TestLookupReturnsIndependentValues(t *testing.T) {
	a := lookup(t, "nrf52840dongle_nrf52840")
	b := lookup(t, "nrf52840dongle_nrf52840")
	delete(a.Pins, "P0.13")
	_, err := b.ResolvePin("P0.13")
	assert.NoError(t, err)
}

func TestNormalizeADC(t *testing.T) {
	assert.Equal(t, "ADC_REF_INTERNAL", NormalizeADCReference("internal"))
	assert.Equal(t, "ADC_REF_VDD_1_4", NormalizeADCReference("VDD_1/4"))
	assert.Equal(t, "ADC_REF_EXTERNAL0", NormalizeADCReference("adc_ref_external0"))
	assert.Equal(t, "ADC_GAIN_1_6", NormalizeADCGain("1/6"))
	assert.Equal(t, "ADC_GAIN_2_3", NormalizeADCGain("2/3"))
	assert.Equal(t, "BOGUS", NormalizeADCGain("bogus"))
}

func TestSupportsOpenThread(t *testing.T) {
	assert.True(t, lookup(t, "nrf52840dongle_nrf52840").SupportsOpenThread())
	d := nrf52840Base()
	d.OpenThread = false
	assert.False(t, d.SupportsOpenThread())
}
