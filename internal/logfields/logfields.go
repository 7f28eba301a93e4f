package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyKey        = "key"
	KeyOrigin     = "origin"
	KeyBackend    = "backend"
	KeyTransport  = "transport"
	KeyEntryID    = "entry_id"
	KeySource     = "source"
	KeyPath       = "path"
	KeyBucket     = "bucket"
	KeySubject    = "subject"
	KeyState      = "state"
	KeyMode       = "mode"
	KeyRemaining  = "remaining_s"
	KeyAttempt    = "attempt"
	KeyDurationMS = "duration_ms"
	KeySize       = "size_bytes"
	KeyError      = "error"
)

func Key(k string) slog.Attr { return slog.String(KeyKey, k) }
func Origin(o string) slog.Attr { return slog.String(KeyOrigin, o) }
func Backend(b string) slog.Attr { return slog.String(KeyBackend, b) }
func Transport(t string) slog.Attr { return slog.String(KeyTransport, t) }
func EntryID(id string) slog.Attr { return slog.String(KeyEntryID, id) }
func Source(s string) slog.Attr { return slog.String(KeySource, s) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func Bucket(b string) slog.Attr { return slog.String(KeyBucket, b) }
func Subject(s string) slog.Attr { return slog.String(KeySubject, s) }
func State(s string) slog.Attr { return slog.String(KeyState, s) }
func Mode(m string) slog.Attr { return slog.String(KeyMode, m) }
func Remaining(secs int) slog.Attr { return slog.Int(KeyRemaining, secs) }
func Attempt(n int) slog.Attr { return slog.Int(KeyAttempt, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Size(n int) slog.Attr { return slog.Int(KeySize, n) }

// Error renders err as a string attribute; nil yields an empty value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
