// Package middleware provides the HTTP middleware of the control server:
// access logging through the leveled logger and Prometheus request metrics
// labelled by route template. Both are installed with mux.Router.Use.
package middleware
