// Package middleware provides HTTP middleware for the shareplay API.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with identifier-normalized paths
//   - Response compression (gzip) for text and JSON payloads
//   - Configurable filtering for static files and health checks
package middleware
