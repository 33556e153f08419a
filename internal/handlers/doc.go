// Package handlers implements the daemon's HTTP API: health and status
// endpoints, folder management, full-text search over image descriptions,
// and a manual scan trigger.
package handlers
