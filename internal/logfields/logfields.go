package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySessionID  = "session_id"
	KeyProject    = "project"
	KeyBoard      = "board"
	KeyStage      = "stage"
	KeyTool       = "tool"
	KeyExitCode   = "exit_code"
	KeyImage      = "image"
	KeyDevice     = "device"
	KeyBus        = "bus"
	KeyPin        = "pin"
	KeyAddress    = "address"
	KeyStrategy   = "strategy"
	KeyPath       = "path"
	KeyRevision   = "revision"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func SessionID(id string) slog.Attr   { return slog.String(KeySessionID, id) }
func Project(name string) slog.Attr   { return slog.String(KeyProject, name) }
func Board(name string) slog.Attr     { return slog.String(KeyBoard, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Tool(name string) slog.Attr      { return slog.String(KeyTool, name) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func Image(kind string) slog.Attr     { return slog.String(KeyImage, kind) }
func Device(id string) slog.Attr      { return slog.String(KeyDevice, id) }
func Bus(kind string) slog.Attr       { return slog.String(KeyBus, kind) }
func Pin(name string) slog.Attr       { return slog.String(KeyPin, name) }
func Address(addr string) slog.Attr   { return slog.String(KeyAddress, addr) }
func Strategy(name string) slog.Attr  { return slog.String(KeyStrategy, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Revision(rev string) slog.Attr   { return slog.String(KeyRevision, rev) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
