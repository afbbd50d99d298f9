// Package main (cmd/httpserver) serves the publish API described in package
// httpserver, using the same YAML configuration as the publisher CLI.
//
// The server implements graceful shutdown on SIGINT/SIGTERM and supports
// health checks, drain control, Prometheus metrics and optional pprof.
//
// Example usage:
//
//	p8e-publisher-server --config p8e.yaml --listen-addr 0.0.0.0:8080 --metrics-addr 0.0.0.0:8090 --log-json
package main
