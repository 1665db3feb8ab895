// Package server exposes the query service, the review queue and the
// memory store over HTTP with gin, and serves Prometheus metrics.
package server
