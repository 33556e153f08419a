// Package scanner keeps the image catalog in sync with the filesystem. A
// background loop sweeps all enabled folders on a configurable interval,
// skipping folders scanned within the last hour, and publishes progress
// through the notification hub.
package scanner
