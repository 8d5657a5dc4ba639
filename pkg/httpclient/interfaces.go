package httpclient

import (
	"context"
	"time"

	"github.com/dutydesk/dutydesk-console/internal/session"
)

// SessionStore is the session capability the client reads credentials from
// and clears when the backend rejects them.
type SessionStore interface {
	Get(ctx context.Context) (session.Session, error)
	Set(ctx context.Context, s session.Session) error
	Clear(ctx context.Context) error
}

// Doer abstracts request dispatch so callers can inject fakes.
type Doer interface {
	Do(ctx context.Context, method, path string, opts ...RequestOption) ([]byte, error)
}

// SessionExpired describes a request the backend answered with 401.
type SessionExpired struct {
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ExpiredHandler is invoked once per 401 response, after the session was cleared.
// The surrounding application decides where the user goes next.
type ExpiredHandler func(ctx context.Context, evt SessionExpired)

// Logger defines the logging surface the client relies on.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

// LoggerOrDiscard returns log, or a logger that drops everything when log is nil.
func LoggerOrDiscard(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
