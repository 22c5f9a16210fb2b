package worker

import "strings"

// transientOracleMarkers are substrings an OracleClient implementation is
// expected to surface on rate-limit, timeout, and 5xx failures, when it
// doesn't already return a *simerrors.SimulationError itself. Adapted from
// the teacher's RetryExecutor.isRetryable substring match in retry.go.
var transientOracleMarkers = []string{
	"rate limit",
	"rate_limit",
	"429",
	"timeout",
	"deadline exceeded",
	"connection reset",
	"500",
	"502",
	"503",
	"504",
}

func isTransientOracleError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientOracleMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
