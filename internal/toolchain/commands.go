package toolchain

import (
	"net"
	"regexp"
	"strconv"
)

// Pristine is west's -p mode.
type Pristine string

const (
	PristineAuto   Pristine = "auto"
	PristineAlways Pristine = "always"
	PristineNever  Pristine = "never"
)

// WestBuild builds sourceDir for board into buildDir. CMake arguments follow
// a "--" separator.
func WestBuild(board, sourceDir, buildDir string, pristine Pristine, cmakeArgs []string) Command {
	if pristine == "" {
		pristine = PristineAuto
	}
	args := []string{"build", "-b", board, "-p", string(pristine), "-d", buildDir, sourceDir}
	if len(cmakeArgs) > 0 {
		args = append(args, "--")
		args = append(args, cmakeArgs...)
	}
	return Command{Name: "west", Args: args}
}

// WestFlash flashes the image in buildDir with runner-specific extra args.
func WestFlash(buildDir string, extra []string) Command {
	args := append([]string{"flash", "-d", buildDir}, extra...)
	return Command{Name: "west", Args: args}
}

// ImgtoolKeygen creates an RSA-2048 signing key.
func ImgtoolKeygen(keyFile string) Command {
	return Command{Name: "imgtool", Args: []string{"keygen", "-k", keyFile, "-t", "rsa-2048"}}
}

// NrfutilPkgGenerate packages a bootloader hex for the Nordic serial DFU
// bootloader.
func NrfutilPkgGenerate(hexFile, zipFile string) Command {
	return Command{Name: "nrfutil", Args: []string{
		"pkg", "generate",
		"--hw-version", "52",
		"--sd-req=0x00",
		"--application", hexFile,
		"--application-version", "1",
		zipFile,
	}}
}

// NrfutilDFU installs a package over the USB CDC serial DFU transport.
func NrfutilDFU(zipFile, port string) Command {
	return Command{Name: "nrfutil", Args: []string{"dfu", "usb-serial", "-pkg", zipFile, "-p", port, "-b", "1000000"}}
}

// SMPPort is the UDP port of the mcumgr SMP server on the device.
const SMPPort = 1337

// MCUMgr builds mcumgr commands for one connection.
type MCUMgr struct {
	ConnType   string
	ConnString string
}

// SerialMCUMgr talks to dev at 115200 baud. mtu <= 0 leaves mcumgr's default.
func SerialMCUMgr(dev string, mtu int) MCUMgr {
	conn := "dev=" + dev + ",baud=115200"
	if mtu > 0 {
		conn += ",mtu=" + strconv.Itoa(mtu)
	}
	return MCUMgr{ConnType: "serial", ConnString: conn}
}

// UDPMCUMgr talks to the SMP server at addr. IPv6 addresses are bracketed.
func UDPMCUMgr(addr string) MCUMgr {
	return MCUMgr{ConnType: "udp", ConnString: net.JoinHostPort(addr, strconv.Itoa(SMPPort))}
}

func (m MCUMgr) command(args ...string) Command {
	base := []string{"--conntype=" + m.ConnType, "--connstring=" + m.ConnString}
	return Command{Name: "mcumgr", Args: append(base, args...)}
}

// ImageUpload uploads image, erasing the secondary slot first.
func (m MCUMgr) ImageUpload(image string) Command { return m.command("image", "upload", "-e", image) }

// ImageList prints the image slots.
func (m MCUMgr) ImageList() Command { return m.command("image", "list") }

// ImageConfirm marks hash as the permanent image.
func (m MCUMgr) ImageConfirm(hash string) Command { return m.command("image", "confirm", hash) }

// Reset reboots the device.
func (m MCUMgr) Reset() Command { return m.command("reset") }

var imageHashRe = regexp.MustCompile(`(?m)^.*hash: ([A-Za-z0-9]*)\r?$`)

// ParseImageHashes extracts the slot hashes from "mcumgr image list" output
// in slot order.
func ParseImageHashes(out []byte) []string {
	var hashes []string
	for _, m := range imageHashRe.FindAllSubmatch(out, -1) {
		hashes = append(hashes, string(m[1]))
	}
	return hashes
}
