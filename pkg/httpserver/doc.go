// Package httpserver runs an http.Server until its context is cancelled and
// then drains in-flight requests within the shutdown timeout.
package httpserver
