// Package notify carries user-facing feedback without a GUI toolkit.
//
// A Hub fans scan lifecycle and error events out to channel subscribers
// and callback listeners; a StatusLine holds a transient, auto-clearing
// status message; HandleError maps an error to logs, an event, and a
// one-line summary; Confirm implements a y/n prompt for interactive
// commands.
package notify
