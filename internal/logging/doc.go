// Package logging provides leveled logging for the image catalog tools.
//
// The level is read from the LOG_LEVEL environment variable (debug, info,
// warn, error) with DEBUG=1 as a shortcut for debug. Maintenance commands
// can additionally mirror output to a per-run log file with TeeToFile.
package logging
