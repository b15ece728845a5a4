package accounting

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MirrorFailures counts external accounting calls that failed and were
// swallowed. Failed mirrors leave local state authoritative; the
// counter exists so the gap is visible for manual reconciliation.
var MirrorFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "accounting_mirror_failures_total",
	Help: "External accounting calls that failed and were skipped.",
})
