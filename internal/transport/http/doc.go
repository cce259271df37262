// Package http is the dashboard transport: a chi router serving the
// stored run reports and alerts as JSON, a health endpoint and the
// Prometheus scrape handler, with request logging, panic recovery and
// rate limiting middleware.
package http
