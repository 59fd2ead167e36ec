package usbprobe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	mode, ok := Classify(0x1915, 0x521f)
	assert.True(t, ok)
	assert.Equal(t, ModeNordicDFU, mode)

	mode, ok = Classify(0x2fe3, 0x0100)
	assert.True(t, ok)
	assert.Equal(t, ModeZephyr, mode)

	_, ok = Classify(0x1915, 0xc00a)
	assert.False(t, ok)
}

func TestFirstInMode(t *testing.T) {
	devices := []Device{
		{Mode: ModeZephyr, VendorID: VendorZephyr, ProductID: ProductZephyrDefault, Bus: 1, Address: 4},
		{Mode: ModeNordicDFU, VendorID: VendorNordic, ProductID: ProductOpenBootloader, Bus: 1, Address: 7},
	}
	d, ok := FirstInMode(devices, ModeNordicDFU)
	assert.True(t, ok)
	assert.Equal(t, 7, d.Address)
	assert.Equal(t, "nordic-dfu (1915:521f bus 1 addr 7)", d.String())

	_, ok = FirstInMode(devices[:1], ModeNordicDFU)
	assert.False(t, ok)
}
