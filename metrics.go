package rotauth

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	MetricRegisterSuccess MetricID = iota
	MetricRegisterDuplicate
	MetricLoginSuccess
	MetricLoginFailure
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshExpired
	MetricReuseDetected
	MetricSessionsMassRevoked
	MetricSessionCreated
	MetricDigestUpgraded
	MetricLogout
	MetricLogoutAll

	metricCount
)

var metricNames = [metricCount]string{
	MetricRegisterSuccess:     "register_success",
	MetricRegisterDuplicate:   "register_duplicate",
	MetricLoginSuccess:        "login_success",
	MetricLoginFailure:        "login_failure",
	MetricRefreshSuccess:      "refresh_success",
	MetricRefreshFailure:      "refresh_failure",
	MetricRefreshExpired:      "refresh_expired",
	MetricReuseDetected:       "reuse_detected",
	MetricSessionsMassRevoked: "sessions_mass_revoked",
	MetricSessionCreated:      "session_created",
	MetricDigestUpgraded:      "digest_upgraded",
	MetricLogout:              "logout",
	MetricLogoutAll:           "logout_all",
}

// Name returns the stable snake_case identifier used by metric exporters.
func (id MetricID) Name() string {
	if id >= metricCount {
		return "unknown"
	}
	return metricNames[id]
}

// MetricIDs lists every engine counter, in stable order.
func MetricIDs() []MetricID {
	out := make([]MetricID, metricCount)
	for i := range out {
		out[i] = MetricID(i)
	}
	return out
}

// Metrics is the engine's lock-free counter set. All methods are safe for
// concurrent use and are no-ops on a nil or disabled receiver.
type Metrics struct {
	enabled  bool
	counters [metricCount]atomic.Uint64
}

func newMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

func (m *Metrics) inc(id MetricID) {
	m.add(id, 1)
}

func (m *Metrics) add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricCount {
		return
	}
	m.counters[id].Add(n)
}

// Snapshot returns a point-in-time copy of all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var snap MetricsSnapshot
	if m == nil || !m.enabled {
		return snap
	}
	for i := range m.counters {
		snap.Counters[i] = m.counters[i].Load()
	}
	return snap
}

// MetricsSnapshot is a point-in-time copy of the engine counters, indexed by
// [MetricID].
type MetricsSnapshot struct {
	Counters [metricCount]uint64
}

// Value returns the counter for id at snapshot time.
func (s MetricsSnapshot) Value(id MetricID) uint64 {
	if id >= metricCount {
		return 0
	}
	return s.Counters[id]
}
