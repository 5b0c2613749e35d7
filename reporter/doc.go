// Package reporter contains the built-in destinations for ended units.
//
// A reporter is anything implementing tracer.Reporter. The tracer calls
// Report on the goroutine that ended the unit, so implementations hand the
// event off quickly:
//
//   - Collector buffers events in memory behind a bounded queue and counts
//     what it had to drop. Tests use it in sync mode.
//   - LogReporter writes one structured line per unit through the logger.
//
// Subpackages bridge events to OpenTelemetry (otelbridge) and to Kafka
// (kafka). Every reporter registers itself with the tracer through the
// "reporters" fx value group.
package reporter
