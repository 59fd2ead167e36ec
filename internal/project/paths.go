package project

import "path/filepath"

// Paths is the on-disk layout of one project under its build path.
type Paths struct {
	Root          string
	ProjectDir    string
	SourceDir     string
	AppBuildDir   string
	BootDir       string
	MCUbootDir    string
	BootSourceDir string
	BootBuildDir  string
	KeyFile       string
	Sentinel      string
}

// NewPaths lays out project name under buildPath. buildPath is made absolute
// because every path is handed to tools running in the Zephyr workspace.
func NewPaths(buildPath, name string) Paths {
	root, err := filepath.Abs(buildPath)
	if err != nil {
		root = filepath.Clean(buildPath)
	}
	proj := filepath.Join(root, "proj")
	boot := filepath.Join(root, "boot")
	mcuboot := filepath.Join(boot, "mcuboot")
	return Paths{
		Root:          root,
		ProjectDir:    filepath.Join(proj, name),
		SourceDir:     filepath.Join(proj, name, "src"),
		AppBuildDir:   filepath.Join(proj, "build"),
		BootDir:       boot,
		MCUbootDir:    mcuboot,
		BootSourceDir: filepath.Join(mcuboot, "boot", "zephyr"),
		BootBuildDir:  filepath.Join(boot, "build"),
		KeyFile:       filepath.Join(root, name+".pem"),
		Sentinel:      filepath.Join(root, "boot_flashed.info"),
	}
}

// MainSource is the generated firmware entry point.
func (p Paths) MainSource() string { return filepath.Join(p.SourceDir, "main.cpp") }

// AppSignedBin is the signed application image for serial mcumgr upload.
func (p Paths) AppSignedBin() string {
	return filepath.Join(p.AppBuildDir, "zephyr", "zephyr.signed.bin")
}

// AppSignedConfirmedBin is the pre-confirmed signed image for network upload.
func (p Paths) AppSignedConfirmedBin() string {
	return filepath.Join(p.AppBuildDir, "zephyr", "zephyr.signed.confirmed.bin")
}

// BootHex is the bootloader hex produced by the mcuboot build.
func (p Paths) BootHex() string { return filepath.Join(p.BootBuildDir, "zephyr", "zephyr.hex") }

// BootPackage is the nrfutil DFU package generated from BootHex.
func (p Paths) BootPackage() string { return filepath.Join(p.BootBuildDir, "zephyr", "mcuboot.zip") }
