package toolchain

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
)

func TestWestBuild(t *testing.T) {
	c := WestBuild("nrf52840dongle_nrf52840", "/b/proj/app", "/b/proj/build", "", []string{"-DCONFIG_LOG_MAX_LEVEL=2"})
	assert.Equal(t, "west build -b nrf52840dongle_nrf52840 -p auto -d /b/proj/build /b/proj/app -- -DCONFIG_LOG_MAX_LEVEL=2", c.String())

	c = WestBuild("x", "src", "out", PristineAlways, nil)
	assert.Equal(t, []string{"build", "-b", "x", "-p", "always", "-d", "out", "src"}, c.Args)
}

func TestToolCommands(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"flash", WestFlash("/b/boot/build", []string{"--runner", "jlink"}), "west flash -d /b/boot/build --runner jlink"},
		{"keygen", ImgtoolKeygen("/b/app.pem"), "imgtool keygen -k /b/app.pem -t rsa-2048"},
		{"pkg", NrfutilPkgGenerate("z.hex", "m.zip"), "nrfutil pkg generate --hw-version 52 --sd-req=0x00 --application z.hex --application-version 1 m.zip"},
		{"dfu", NrfutilDFU("m.zip", "/dev/ttyACM0"), "nrfutil dfu usb-serial -pkg m.zip -p /dev/ttyACM0 -b 1000000"},
		{"serial upload", SerialMCUMgr("/dev/ttyACM0", 512).ImageUpload("a.bin"), "mcumgr --conntype=serial --connstring=dev=/dev/ttyACM0,baud=115200,mtu=512 image upload -e a.bin"},
		{"serial reset", SerialMCUMgr("/dev/ttyACM0", 0).Reset(), "mcumgr --conntype=serial --connstring=dev=/dev/ttyACM0,baud=115200 reset"},
		{"udp v6", UDPMCUMgr("fd00::1").ImageList(), "mcumgr --conntype=udp --connstring=[fd00::1]:1337 image list"},
		{"udp v4", UDPMCUMgr("192.168.1.20").ImageConfirm("abc"), "mcumgr --conntype=udp --connstring=192.168.1.20:1337 image confirm abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.String())
		})
	}
}

func TestParseImageHashes(t *testing.T) {
	out := []byte(`Images:
 image=0 slot=0
    version: 26.3.4
    bootable: true
    flags: active confirmed
    hash: 4b1e9c0d
 image=0 slot=1
    version: 26.3.5
    bootable: true
    flags: pending
    hash: 77aa10ff
Split status: N/A (0)
`)
	assert.Equal(t, []string{"4b1e9c0d", "77aa10ff"}, ParseImageHashes(out))
	assert.Empty(t, ParseImageHashes([]byte("Error: NMP timeout\n")))
}

func TestFakeRunnerScripts(t *testing.T) {
	f := NewFakeRunner().
		Fail("west build", 2).
		Script("mcumgr --conntype=udp", FakeResult{Output: []byte("ok")})
	f.Missing["nrfutil"] = true

	err := f.Run(context.Background(), WestBuild("b", "s", "d", "", nil))
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.ExitCode())
	assert.Equal(t, ferrors.CategoryToolchain, exitErr.Category())

	out, err := f.Output(context.Background(), UDPMCUMgr("::1").ImageList())
	require.NoError(t, err)
	assert.Equal(t, "ok", string(out))

	require.NoError(t, f.Run(context.Background(), WestFlash("d", nil)))
	assert.Equal(t, 2, f.Count("west"))
	assert.Len(t, f.Calls(), 3)

	_, err = f.LookPath("nrfutil")
	assert.Error(t, err)
	_, err = f.LookPath("mcumgr")
	assert.NoError(t, err)
}

func TestFakeRunnerOnRun(t *testing.T) {
	boom := errors.New("boom")
	f := NewFakeRunner()
	f.OnRun = func(c Command) error {
		if c.Name == "imgtool" {
			return boom
		}
		return nil
	}
	assert.ErrorIs(t, f.Run(context.Background(), ImgtoolKeygen("k")), boom)
	assert.NoError(t, f.Run(context.Background(), WestFlash("d", nil)))
}

func newShellRunner(t *testing.T) (*ExecRunner, *bytes.Buffer) {
	t.Helper()
	r := NewExecRunner()
	if _, err := r.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	var stdout bytes.Buffer
	r.Stdout = &stdout
	r.Stderr = &bytes.Buffer{}
	return r, &stdout
}

func TestExecRunnerPassesExitCodeThrough(t *testing.T) {
	r, _ := newShellRunner(t)

	err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, 3, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestExecRunnerEnvAndDir(t *testing.T) {
	r, stdout := newShellRunner(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), nil, 0o644))

	err := r.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", `printf "%s " "$ZEPHYR_BASE"; ls`},
		Dir:  dir,
		Env:  []string{"ZEPHYR_BASE=/opt/zephyr/zephyr"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/opt/zephyr/zephyr marker\n", stdout.String())

	out, err := r.Output(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo captured"}})
	require.NoError(t, err)
	assert.Equal(t, "captured\n", string(out))
}

func TestExecRunnerMissingBinary(t *testing.T) {
	r := NewExecRunner()
	err := r.Run(context.Background(), Command{Name: "zephyrforge-no-such-tool"})
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryToolchain, ferrors.GetCategory(err))
}

func TestExecRunnerHonorsContext(t *testing.T) {
	r, _ := newShellRunner(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Run(ctx, Command{Name: "sh", Args: []string{"-c", "sleep 5"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInWorkspace(t *testing.T) {
	c := WestFlash("/b/proj/build", nil).InWorkspace("/opt/zephyrproject")
	assert.Equal(t, "/opt/zephyrproject", c.Dir)
	assert.Equal(t, []string{"ZEPHYR_BASE=/opt/zephyrproject/zephyr"}, c.Env)
}
