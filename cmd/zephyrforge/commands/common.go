package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/zephyrforge/internal/config"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Device configuration file" default:"zephyrforge.yaml" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format" enum:"text,json" default:"text"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Compile          CompileCmd          `cmd:"" help:"Generate the project and build the application and bootloader images"`
	Upload           UploadCmd           `cmd:"" help:"Upload previously built images to a device"`
	Run              RunCmd              `cmd:"" help:"Compile and upload in one step"`
	Watch            WatchCmd            `cmd:"" help:"Rebuild (and optionally upload) when the configuration or sources change"`
	Boards           BoardsCmd           `cmd:"" help:"List supported boards"`
	History          HistoryCmd          `cmd:"" help:"Show recent compile and upload runs"`
	Init             InitCmd             `cmd:"" help:"Write an example device configuration"`
	ForgetBootloader ForgetBootloaderCmd `cmd:"" name:"forget-bootloader" help:"Forget that the bootloader was flashed so the next upload installs it again"`
	Info             VersionCmd          `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(c.Logger())
	return nil
}

// Logger builds the process logger from the global flags.
func (c *CLI) Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// parseLogLevel honours --verbose first, then ZEPHYRFORGE_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv("ZEPHYRFORGE_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadConfig(root *CLI) (*config.Config, error) {
	return config.Load(root.Config)
}
