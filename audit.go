package rotauth

import (
	"context"
	"time"
)

// AuditEventKind names one auditable engine outcome.
type AuditEventKind string

const (
	AuditRegister      AuditEventKind = "register"
	AuditLoginSuccess  AuditEventKind = "login_success"
	AuditLoginFailure  AuditEventKind = "login_failure"
	AuditRefresh       AuditEventKind = "refresh"
	AuditReuseDetected AuditEventKind = "reuse_detected"
	AuditLogout        AuditEventKind = "logout"
)

// AuditEvent is one security-relevant engine outcome. SubjectID and Email are
// set when known; Sessions carries the revocation count on the containment
// path.
type AuditEvent struct {
	Kind      AuditEventKind
	SubjectID string
	Email     string
	Sessions  int
	At        time.Time
}

// AuditSink receives audit events from the engine's async dispatcher. Emit
// must be safe for concurrent use; a slow sink delays or drops events per
// [AuditConfig], never the request path.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards all events.
type NoOpSink struct{}

// Emit discards the event.
func (NoOpSink) Emit(context.Context, AuditEvent) {}
