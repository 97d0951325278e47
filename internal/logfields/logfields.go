package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyURL        = "url"
	KeyFile       = "file"
	KeySection    = "section"
	KeyLine       = "line"
	KeyTarget     = "target"
	KeyPages      = "pages"
	KeyWarnings   = "warnings"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Section(s string) slog.Attr       { return slog.String(KeySection, s) }
func Line(n int) slog.Attr             { return slog.Int(KeyLine, n) }
func Target(t string) slog.Attr        { return slog.String(KeyTarget, t) }
func Pages(n int) slog.Attr            { return slog.Int(KeyPages, n) }
func Warnings(n int) slog.Attr         { return slog.Int(KeyWarnings, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
