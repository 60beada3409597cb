// Package observability holds the process-level error reporting and
// request logging shared by the HTTP server: Sentry setup, panic recovery
// and access logging.
package observability
