package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPage        = "page"
	KeySourcePage  = "source_page"
	KeyTargetTitle = "target_title"
	KeyNamespace   = "namespace"
	KeyBudget      = "budget"
	KeyRevisionID  = "revision_id"
	KeyUser        = "user"
	KeyEvent       = "event"
	KeyPath        = "path"
	KeyMethod      = "method"
	KeyRequestID   = "request_id"
	KeyStatus      = "status"
	KeyUserAgent   = "user_agent"
	KeyRemoteAddr  = "remote_addr"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Page(title string) slog.Attr        { return slog.String(KeyPage, title) }
func SourcePage(title string) slog.Attr  { return slog.String(KeySourcePage, title) }
func TargetTitle(title string) slog.Attr { return slog.String(KeyTargetTitle, title) }
func Namespace(ns int) slog.Attr         { return slog.Int(KeyNamespace, ns) }
func Budget(n int) slog.Attr             { return slog.Int(KeyBudget, n) }
func RevisionID(id int64) slog.Attr      { return slog.Int64(KeyRevisionID, id) }
func User(name string) slog.Attr         { return slog.String(KeyUser, name) }
func Event(name string) slog.Attr        { return slog.String(KeyEvent, name) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Method(m string) slog.Attr          { return slog.String(KeyMethod, m) }
func RequestID(id string) slog.Attr      { return slog.String(KeyRequestID, id) }
func Status(code int) slog.Attr          { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr      { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr   { return slog.String(KeyRemoteAddr, addr) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
