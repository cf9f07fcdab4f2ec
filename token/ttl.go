package token

import (
	"strconv"
	"strings"
	"time"
)

// Default TTLs applied when no explicit configuration is provided: short-lived
// access tokens, week-long refresh tokens.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// ParseTTL converts a TTL expression into a duration. Accepted forms are a
// raw integer number of seconds ("900") or a shorthand "<number><unit>" with
// unit one of s, m, h, d ("15m", "7d"). Anything unparsable falls back to
// fallback rather than failing the request.
func ParseTTL(expr string, fallback time.Duration) time.Duration {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return fallback
	}

	if secs, err := strconv.ParseInt(expr, 10, 64); err == nil {
		if secs <= 0 {
			return fallback
		}
		return time.Duration(secs) * time.Second
	}

	unit := expr[len(expr)-1]
	value, err := strconv.ParseInt(expr[:len(expr)-1], 10, 64)
	if err != nil || value <= 0 {
		return fallback
	}

	switch unit {
	case 's':
		return time.Duration(value) * time.Second
	case 'm':
		return time.Duration(value) * time.Minute
	case 'h':
		return time.Duration(value) * time.Hour
	case 'd':
		return time.Duration(value) * 24 * time.Hour
	default:
		return fallback
	}
}
