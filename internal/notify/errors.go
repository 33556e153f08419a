package notify

import (
	"bufio"
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"starbrowse/internal/logging"
)

// HandleError logs err with a stack trace, publishes an error event, and
// returns a one-line summary suitable for display. The hub and status line
// may be nil when no UI surface is attached (maintenance commands).
func HandleError(hub *Hub, status *StatusLine, operation string, err error) string {
	summary := fmt.Sprintf("Error during %s: %v", operation, err)
	stack := string(debug.Stack())

	logging.Error("%s", summary)
	logging.Error("Stack trace: %s", stack)

	if status != nil {
		status.Set(summary, SeverityError, DefaultStatusTimeout)
	}
	if hub != nil {
		hub.Error(operation+" failed", summary, stack)
	}

	return summary
}

// Confirm prompts for a yes/no answer on w and reads the reply from r.
// Only "y" or "yes" (case-insensitive) count as confirmation; everything
// else, including a read error, is a refusal.
func Confirm(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s (y/n): ", prompt)

	reader := bufio.NewReader(r)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
