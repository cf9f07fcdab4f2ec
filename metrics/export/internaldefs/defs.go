package internaldefs

import (
	"github.com/fenrirsec/rotauth"
)

// CounterDef binds an engine counter to its exported name and help string.
type CounterDef struct {
	ID   rotauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in export order.
var CounterDefs = []CounterDef{
	{ID: rotauth.MetricRegisterSuccess, Name: "rotauth_register_success_total", Help: "Successful registrations."},
	{ID: rotauth.MetricRegisterDuplicate, Name: "rotauth_register_duplicate_total", Help: "Registrations rejected as duplicate email."},
	{ID: rotauth.MetricLoginSuccess, Name: "rotauth_login_success_total", Help: "Successful login attempts."},
	{ID: rotauth.MetricLoginFailure, Name: "rotauth_login_failure_total", Help: "Failed login attempts."},
	{ID: rotauth.MetricRefreshSuccess, Name: "rotauth_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: rotauth.MetricRefreshFailure, Name: "rotauth_refresh_failure_total", Help: "Refresh attempts rejected as invalid."},
	{ID: rotauth.MetricRefreshExpired, Name: "rotauth_refresh_expired_total", Help: "Refresh attempts rejected as expired."},
	{ID: rotauth.MetricReuseDetected, Name: "rotauth_reuse_detected_total", Help: "Detected refresh token reuses."},
	{ID: rotauth.MetricSessionsMassRevoked, Name: "rotauth_sessions_mass_revoked_total", Help: "Sessions revoked by reuse containment."},
	{ID: rotauth.MetricSessionCreated, Name: "rotauth_session_created_total", Help: "Created session records."},
	{ID: rotauth.MetricDigestUpgraded, Name: "rotauth_digest_upgraded_total", Help: "Password digests rehashed after login."},
	{ID: rotauth.MetricLogout, Name: "rotauth_logout_total", Help: "Single-session logout operations."},
	{ID: rotauth.MetricLogoutAll, Name: "rotauth_logout_all_total", Help: "Logout-all operations."},
}

// AuditDroppedName is the exported counter for audit dispatcher drops,
// published alongside the engine counters.
const AuditDroppedName = "rotauth_audit_dropped_total"

// AuditDroppedHelp documents the dropped-audit counter.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
