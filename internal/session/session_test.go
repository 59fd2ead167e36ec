package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/zephyrforge/internal/board"
)

func newTestSession(t *testing.T, boardName string) *Session {
	t.Helper()
	d, err := board.Lookup(boardName)
	require.NoError(t, err)
	clock := func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	return New("livingroom", d, WithClock(clock), WithID("test-session"))
}

func countLines(text, prefix string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

func TestNewSeedsBusesDisabledAndBaseRuntime(t *testing.T) {
	s := newTestSession(t, "adafruit_feather_nrf52840")

	keys := s.Options().Keys()
	require.GreaterOrEqual(t, len(keys), 2)
	assert.Equal(t, []string{"CONFIG_SPI", "CONFIG_I2C"}, keys[:2])
	v, _ := s.Options().Get("CONFIG_SPI")
	assert.Equal(t, "n", v)

	v, ok := s.Options().Get("CONFIG_MCUBOOT_EXTRA_IMGTOOL_ARGS")
	require.True(t, ok)
	assert.Equal(t, `"--version 26.3.4+50607"`, v)
	v, _ = s.Options().Get("CONFIG_USB_DEVICE_PRODUCT")
	assert.Equal(t, `"livingroom USB Device"`, v)

	assert.Equal(t, s.Board.BaseOverlays, s.Overlays())
	assert.Equal(t, "test-session", s.ID)
}

func TestOptionsLastWriteWinsInFirstInsertionOrder(t *testing.T) {
	o := NewOptions()
	o.Set("CONFIG_A", true)
	o.Set("CONFIG_B", 3)
	o.Set("CONFIG_A", true)
	assert.Equal(t, "CONFIG_A=y\nCONFIG_B=3\n", o.Render())

	o.Set("CONFIG_A", false)
	o.Set("CONFIG_C", `"x"`)
	assert.Equal(t, []string{"CONFIG_A", "CONFIG_B", "CONFIG_C"}, o.Keys())
	assert.Equal(t, "CONFIG_A=n\nCONFIG_B=3\nCONFIG_C=\"x\"\n", o.Render())
	assert.Equal(t, 3, o.Len())
}

func TestRequestI2CHardwareThenGPIOFallback(t *testing.T) {
	s := newTestSession(t, "adafruit_feather_nrf52840")
	before := len(s.Overlays())

	first, err := s.RequestI2C("D22", "D23", 100000)
	require.NoError(t, err)
	assert.Equal(t, "i2c0", first.Device)
	assert.True(t, first.Hardware)
	assert.Equal(t, 0, s.Pool().Remaining(board.BusI2C))

	overlays := s.Overlays()
	require.Len(t, overlays, before+1)
	assert.Contains(t, overlays[before], "&i2c0 {")
	v, _ := s.Options().Get("CONFIG_I2C_NRFX")
	assert.Equal(t, "y", v)

	second, err := s.RequestI2C("D0", "D1", 100000)
	require.NoError(t, err)
	assert.Equal(t, "gpioi2c0", second.Device)
	assert.False(t, second.Hardware)

	overlays = s.Overlays()
	require.Len(t, overlays, before+2)
	assert.Contains(t, overlays[before+1], `compatible = "gpio-i2c";`)
	v, _ = s.Options().Get("CONFIG_I2C_GPIO")
	assert.Equal(t, "y", v)

	conf := s.Options().Render()
	assert.Equal(t, 1, countLines(conf, "CONFIG_I2C="))
	assert.Contains(t, conf, "CONFIG_I2C=y\n")
	assert.Contains(t, conf, "CONFIG_I2C_SHELL=n\n")
}

func TestRequestI2CFallbackIgnoresPinsAndCountsDevices(t *testing.T) {
	s := newTestSession(t, "nrf52840dk_nrf52840")

	_, err := s.RequestI2C("", "", 400000)
	require.NoError(t, err)
	// Same pins as the hardware bus still degrade to software.
	b, err := s.RequestI2C("SDA", "SCL", 400000)
	require.NoError(t, err)
	assert.Equal(t, "gpioi2c0", b.Device)
	assert.Equal(t, "P0.26", b.SDA.Name)

	b, err = s.RequestI2C("P1.01", "P1.02", 50000)
	require.NoError(t, err)
	assert.Equal(t, "gpioi2c1", b.Device)
	assert.Equal(t, []string{"i2c0"}, s.Pool().Allocated(board.BusI2C))
}

func TestRequestI2CErrorsPropagate(t *testing.T) {
	s := newTestSession(t, "adafruit_feather_nrf52840")

	_, err := s.RequestI2C("D22", "D23", 250000)
	require.ErrorIs(t, err, board.ErrUnsupportedBusParam)

	_, err = s.RequestI2C("D99", "D23", 100000)
	var upe *board.UnknownPinError
	require.ErrorAs(t, err, &upe)
	assert.Equal(t, "D99", upe.Pin)
}

func TestRequestSPIFillsDefaults(t *testing.T) {
	s := newTestSession(t, "adafruit_feather_nrf52840")
	before := len(s.Overlays())

	b, err := s.RequestSPI("", "D6", "")
	require.NoError(t, err)
	assert.Equal(t, "spi1", b.Device)
	assert.Equal(t, "D26", b.CLK.Name)
	assert.Equal(t, "D6", b.MOSI.Name)
	assert.Equal(t, "D24", b.MISO.Name)
	assert.Equal(t, 14, b.CLK.Absolute)

	v, _ := s.Options().Get("CONFIG_SPI")
	assert.Equal(t, "y", v)
	require.Len(t, s.Overlays(), before+1)
	assert.Contains(t, s.Overlays()[before], "mosi-pin = < 7 >;")
}

func TestRequestADC(t *testing.T) {
	s := newTestSession(t, "nrf52840dongle_nrf52840")

	b, err := s.RequestADC("P0.29", "ADC_REF_INTERNAL", "ADC_GAIN_1_6")
	require.NoError(t, err)
	assert.Equal(t, ADCBinding{Device: "adc", Channel: 5}, b)
	v, _ := s.Options().Get("CONFIG_ADC")
	assert.Equal(t, "y", v)

	_, err = s.RequestADC("P0.29", "ADC_REF_VDD_1", "ADC_GAIN_1_6")
	assert.ErrorIs(t, err, board.ErrUnsupportedBusParam)
	_, err = s.RequestADC("P0.13", "ADC_REF_INTERNAL", "ADC_GAIN_1_6")
	assert.ErrorIs(t, err, board.ErrUnsupportedAnalogPin)
}

func TestApplicationOverlayIsFragmentsPlusFlashLayoutOnce(t *testing.T) {
	s := newTestSession(t, "nrf52840dongle_nrf52840")
	s.AppendOverlay("/* a */\n")
	s.AppendOverlay("/* b */\n")

	want := strings.Join(s.Overlays(), "") + s.Board.FlashLayoutOverlay(board.ImageApplication)
	got := s.ApplicationOverlay()
	assert.Equal(t, want, got)
	assert.Equal(t, 1, strings.Count(got, "newcode: partition@10000"))
	assert.Less(t, strings.Index(got, "/* a */"), strings.Index(got, "/* b */"))
	assert.Contains(t, s.BootloaderOverlay(), "&newboot_partition;")
}

func TestComponents(t *testing.T) {
	s := newTestSession(t, "nrf52840dongle_nrf52840")

	s.EnableNetwork("livingroom")
	v, _ := s.Options().Get("CONFIG_NET_HOSTNAME")
	assert.Equal(t, `"livingroom"`, v)

	require.NoError(t, s.EnableOpenThread(OpenThreadParams{
		NetworkName: "OpenThread-1234",
		Channel:     15,
		NetworkKey:  "00:11:22:33:44:55:66:77:88:99:aa:bb:cc:dd:ee:ff",
		PANID:       4660,
		XPANID:      "dead00beef00cafe",
	}))
	v, _ = s.Options().Get("CONFIG_OPENTHREAD_CHANNEL")
	assert.Equal(t, "15", v)
	v, _ = s.Options().Get("CONFIG_NET_IPV4")
	assert.Equal(t, "n", v)

	assert.False(t, s.OTAEnabled())
	s.EnableOTA()
	assert.True(t, s.OTAEnabled())
}

func TestMCUMgrAgentOnlyWithOTA(t *testing.T) {
	s := newTestSession(t, "nrf52840dongle_nrf52840")
	_, set := s.Options().Get("CONFIG_MCUMGR_SMP_UDP")
	assert.False(t, set)

	s.EnableOTA()
	v, _ := s.Options().Get("CONFIG_MCUMGR_SMP_UDP")
	assert.Equal(t, "y", v)
	v, _ = s.Options().Get("CONFIG_MCUMGR_CMD_IMG_MGMT")
	assert.Equal(t, "y", v)
}

func TestEnableOpenThreadRequiresCapability(t *testing.T) {
	d, err := board.Lookup("adafruit_feather_nrf52840")
	require.NoError(t, err)
	d.OpenThread = false
	s := New("x", d)

	err = s.EnableOpenThread(OpenThreadParams{})
	assert.ErrorIs(t, err, board.ErrUnsupportedCapability)
	_, set := s.Options().Get("CONFIG_OPENTHREAD_CHANNEL")
	assert.False(t, set)
}

func TestPoolNeverReplenishes(t *testing.T) {
	d := &board.Descriptor{HardwareI2C: []string{"i2c0", "i2c1"}}
	p := NewPool(d)

	a, ok := p.Take(board.BusI2C)
	require.True(t, ok)
	b, ok := p.Take(board.BusI2C)
	require.True(t, ok)
	assert.Equal(t, []string{"i2c0", "i2c1"}, []string{a, b})

	for range 3 {
		_, ok = p.Take(board.BusI2C)
		assert.False(t, ok)
	}
	_, ok = p.Take(board.BusSPI)
	assert.False(t, ok)
	assert.Equal(t, 0, p.Remaining(board.BusI2C))
	assert.Equal(t, []string{"i2c0", "i2c1"}, d.HardwareI2C)
}
