package notify

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestHubPublishAndSubscribe(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	hub.Info("Scan started", "scanning 3 folders")

	select {
	case event := <-ch:
		if event.Severity != SeverityInfo {
			t.Errorf("severity = %q, want info", event.Severity)
		}
		if event.Title != "Scan started" {
			t.Errorf("title = %q, want %q", event.Title, "Scan started")
		}
		if event.ID == "" {
			t.Error("event ID not filled in")
		}
		if event.Time.IsZero() {
			t.Error("event time not filled in")
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestHubListeners(t *testing.T) {
	hub := NewHub()

	var (
		mu       sync.Mutex
		received []Event
	)
	hub.AddListener(func(e Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	})

	hub.Success("Scan complete", "added 5 images")
	hub.Error("Scan failed", "disk unreadable", "stack")

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("listener received %d events, want 2", len(received))
	}
	if received[1].Detail != "stack" {
		t.Errorf("error detail = %q, want %q", received[1].Detail, "stack")
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	// Fill the buffer and then some; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Info("event", "spam")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestHubHistory(t *testing.T) {
	hub := NewHub()

	for i := 0; i < historySize+10; i++ {
		hub.Info("event", "msg")
	}

	history := hub.History()
	if len(history) != historySize {
		t.Errorf("history holds %d events, want capped at %d", len(history), historySize)
	}
}

func TestStatusLineAutoClear(t *testing.T) {
	s := NewStatusLine()

	s.Set("Scan complete", SeveritySuccess, 50*time.Millisecond)
	if msg, sev := s.Get(); msg != "Scan complete" || sev != SeveritySuccess {
		t.Fatalf("Get() = %q/%q immediately after Set", msg, sev)
	}

	time.Sleep(150 * time.Millisecond)
	if msg, _ := s.Get(); msg != "" {
		t.Errorf("message %q still present after timeout", msg)
	}
}

func TestStatusLineNewerMessageWins(t *testing.T) {
	s := NewStatusLine()

	s.Set("first", SeverityInfo, 50*time.Millisecond)
	s.Set("second", SeverityWarning, 0)

	// The first message's expired timer must not clear the second.
	time.Sleep(150 * time.Millisecond)
	if msg, _ := s.Get(); msg != "second" {
		t.Errorf("message = %q, want %q", msg, "second")
	}

	s.Clear()
	if msg, _ := s.Get(); msg != "" {
		t.Errorf("message = %q after Clear, want empty", msg)
	}
}

func TestHandleError(t *testing.T) {
	hub := NewHub()
	status := NewStatusLine()

	summary := HandleError(hub, status, "database repair", errTest)

	if !strings.Contains(summary, "database repair") || !strings.Contains(summary, "boom") {
		t.Errorf("summary = %q, want operation and error included", summary)
	}

	if msg, sev := status.Get(); msg != summary || sev != SeverityError {
		t.Errorf("status line = %q/%q, want summary with error severity", msg, sev)
	}

	history := hub.History()
	if len(history) != 1 {
		t.Fatalf("hub has %d events, want 1", len(history))
	}
	if history[0].Severity != SeverityError {
		t.Errorf("event severity = %q, want error", history[0].Severity)
	}
}

func TestHandleErrorNilSurfaces(t *testing.T) {
	// Maintenance commands pass nil hub and status line.
	if summary := HandleError(nil, nil, "export", errTest); summary == "" {
		t.Error("HandleError() with nil surfaces returned empty summary")
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "yes\n", true},
		{"y", "y\n", true},
		{"uppercase Y", "Y\n", true},
		{"no", "no\n", false},
		{"n", "n\n", false},
		{"empty line", "\n", false},
		{"garbage", "maybe\n", false},
		{"eof", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			got := Confirm(strings.NewReader(tt.input), &out, "Continue?")
			if got != tt.want {
				t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if !strings.Contains(out.String(), "Continue?") {
				t.Error("prompt not written")
			}
		})
	}
}

var errTest = errBoom{}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
