// Package metrics defines the Prometheus metrics exposed by the catalog
// daemon and its maintenance tools. All metrics are registered at init time
// via promauto and served from the /metrics endpoint.
package metrics
