// Package prometheus exports goSession engine metrics through a
// client_golang Collector.
//
// Register [NewCollector] with any registry, or mount [Handler] for a
// standalone /metrics endpoint.
package prometheus
