// Package api serves the worker's monitoring surface: the aggregate health
// report, the raw worker health snapshot, a database probe and the Prometheus
// exposition endpoint. The worker has no business API; everything here is
// read-only.
package api
