package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPartialPath = "partial_path"
	KeyPartialID   = "partial_id"
	KeyDocument    = "document"
	KeyLocation    = "location"
	KeyPriority    = "priority"
	KeyStage       = "stage"
	KeyDurationMS  = "duration_ms"
	KeyBuildID     = "build_id"
	KeyCompiler    = "compiler"
	KeyAsset       = "asset"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func PartialPath(p string) slog.Attr  { return slog.String(KeyPartialPath, p) }
func PartialID(id string) slog.Attr   { return slog.String(KeyPartialID, id) }
func Document(name string) slog.Attr  { return slog.String(KeyDocument, name) }
func Location(l string) slog.Attr     { return slog.String(KeyLocation, l) }
func Priority(p string) slog.Attr     { return slog.String(KeyPriority, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Compiler(name string) slog.Attr  { return slog.String(KeyCompiler, name) }
func Asset(name string) slog.Attr     { return slog.String(KeyAsset, name) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
