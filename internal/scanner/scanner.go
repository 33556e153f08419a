package scanner

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"starbrowse/internal/database"
	"starbrowse/internal/logging"
	"starbrowse/internal/metrics"
	"starbrowse/internal/notify"
)

const (
	// DefaultInterval is the pause between scan passes when the settings
	// don't specify one.
	DefaultInterval = 30 * time.Minute

	// folderFreshness is how recently a folder must have been scanned to be
	// skipped during a pass.
	folderFreshness = time.Hour

	// pollSlice keeps the wait loop responsive to Stop without busy
	// spinning.
	pollSlice = 100 * time.Millisecond

	// errorBackoff is the pause after a failed pass before the loop
	// resumes.
	errorBackoff = 5 * time.Second

	// stopTimeout bounds how long Stop waits for the loop goroutine.
	stopTimeout = 2 * time.Second
)

// Settings controls the background scanner's behavior.
type Settings struct {
	Enabled  bool
	Interval time.Duration
}

// Status is a snapshot of the scanner's state for the status API.
type Status struct {
	Enabled  bool          `json:"enabled"`
	Running  bool          `json:"running"`
	Scanning bool          `json:"scanning"`
	LastRun  *time.Time    `json:"lastRun,omitempty"`
	Interval time.Duration `json:"interval"`
}

// Scanner periodically sweeps all enabled folders for new images. One loop
// goroutine waits out the configured interval in short slices so Stop takes
// effect quickly.
type Scanner struct {
	db  *database.Database
	hub *notify.Hub
	fs  FolderScanner

	mu       sync.Mutex
	settings Settings
	running  bool
	scanning bool
	lastRun  *time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a scanner. It does not start until Start is called.
func New(db *database.Database, hub *notify.Hub, fs FolderScanner, settings Settings) *Scanner {
	if settings.Interval <= 0 {
		settings.Interval = DefaultInterval
	}
	return &Scanner{db: db, hub: hub, fs: fs, settings: settings}
}

// Start launches the scan loop. It is a no-op when scanning is disabled or
// the loop is already running.
func (s *Scanner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || !s.settings.Enabled {
		return
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.running = true

	go s.loop(s.stopCh, s.doneCh)
	logging.Info("Background scanner started (interval: %s)", s.settings.Interval)
}

// Stop signals the loop to exit and waits up to two seconds for it to
// finish. Returns false if the loop did not stop in time; in that case it
// will still exit at its next poll slice.
func (s *Scanner) Stop() bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return true
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.running = false
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		logging.Info("Background scanner stopped")
		return true
	case <-time.After(stopTimeout):
		logging.Warn("Background scanner did not stop within %s", stopTimeout)
		return false
	}
}

// UpdateSettings applies new settings, starting or stopping the loop as the
// enabled flag requires. An interval change takes effect at the next wait.
func (s *Scanner) UpdateSettings(settings Settings) {
	if settings.Interval <= 0 {
		settings.Interval = DefaultInterval
	}

	s.mu.Lock()
	s.settings = settings
	running := s.running
	s.mu.Unlock()

	logging.Info("Scanner settings updated: enabled=%v interval=%s", settings.Enabled, settings.Interval)

	switch {
	case settings.Enabled && !running:
		s.Start()
	case !settings.Enabled && running:
		s.Stop()
	}
}

// Status returns a snapshot of the scanner's current state.
func (s *Scanner) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Enabled:  s.settings.Enabled,
		Running:  s.running,
		Scanning: s.scanning,
		LastRun:  s.lastRun,
		Interval: s.settings.Interval,
	}
}

// ScanNow runs one scan pass immediately, outside the loop's schedule.
// Returns an error if a pass is already in progress.
func (s *Scanner) ScanNow(ctx context.Context) error {
	if !s.beginPass() {
		return fmt.Errorf("a scan is already in progress")
	}
	defer s.endPass()

	return s.runPass(ctx, nil)
}

// beginPass claims the scanning flag. Both the loop and ScanNow go through
// it so at most one pass runs at a time.
func (s *Scanner) beginPass() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanning {
		return false
	}
	s.scanning = true
	return true
}

func (s *Scanner) endPass() {
	s.mu.Lock()
	s.scanning = false
	s.mu.Unlock()
}

func (s *Scanner) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	// Zero lastPass makes the first interval check fire immediately; the
	// per-folder freshness window prevents pointless rescans after a
	// restart.
	var lastPass time.Time

	for {
		s.mu.Lock()
		interval := s.settings.Interval
		s.mu.Unlock()

		if time.Since(lastPass) >= interval && s.beginPass() {
			err := s.runPass(context.Background(), stopCh)
			s.endPass()

			lastPass = time.Now()

			if err != nil {
				metrics.ScannerErrors.Inc()
				logging.Error("Scan pass failed: %v", err)
				s.hub.Error("Scan failed", err.Error(), "")
				if !sleep(errorBackoff, stopCh) {
					return
				}
			}
		}

		if !sleep(pollSlice, stopCh) {
			return
		}
	}
}

// runPass scans every enabled folder that exists on disk and has not been
// scanned within the freshness window. stopCh may be nil for manual passes.
func (s *Scanner) runPass(ctx context.Context, stopCh chan struct{}) error {
	runID := uuid.NewString()
	start := time.Now()

	metrics.ScannerRunsTotal.Inc()
	metrics.ScannerIsRunning.Set(1)
	defer metrics.ScannerIsRunning.Set(0)

	folders, err := s.db.GetFolders(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}

	s.hub.Publish(notify.Event{
		RunID:    runID,
		Severity: notify.SeverityInfo,
		Title:    "Scan started",
		Message:  fmt.Sprintf("Scanning %d folders for new images", len(folders)),
	})
	logging.Info("Scan pass %s: %d folders", runID, len(folders))

	totalAdded := 0
	folderErrors := 0
	for _, folder := range folders {
		if stopped(stopCh) {
			logging.Info("Scan pass interrupted by stop request")
			return nil
		}

		if _, err := os.Stat(folder.Path); err != nil {
			logging.Warn("folder %s is not accessible, skipping", folder.Path)
			metrics.ScannerFoldersSkipped.WithLabelValues("missing").Inc()
			continue
		}

		if folder.LastScanTime != nil && time.Since(*folder.LastScanTime) < folderFreshness {
			logging.Debug("folder %s scanned recently, skipping", folder.Path)
			metrics.ScannerFoldersSkipped.WithLabelValues("recent").Inc()
			continue
		}

		added, err := s.fs.ScanFolder(ctx, folder, func(folderPath string, current, total int) {
			s.hub.Publish(notify.Event{
				RunID:    runID,
				Severity: notify.SeverityInfo,
				Title:    "Scanning",
				Message:  fmt.Sprintf("Processing %d/%d in %s", current, total, folderPath),
				Folder:   folderPath,
				Current:  current,
				Total:    total,
			})
		})
		if err != nil {
			// One bad folder must not end the pass.
			folderErrors++
			metrics.ScannerErrors.Inc()
			logging.Error("failed to scan %s: %v", folder.Path, err)
			s.hub.Publish(notify.Event{
				RunID:    runID,
				Severity: notify.SeverityError,
				Title:    "Folder scan failed",
				Message:  fmt.Sprintf("failed to scan %s: %v", folder.Path, err),
				Folder:   folder.Path,
			})
			continue
		}

		if err := s.db.UpdateFolderScanTime(ctx, folder.ID, time.Now()); err != nil {
			folderErrors++
			metrics.ScannerErrors.Inc()
			logging.Error("failed to record scan time for %s: %v", folder.Path, err)
			continue
		}

		metrics.ScannerFoldersScanned.Inc()
		totalAdded += added
	}

	now := time.Now()
	s.mu.Lock()
	s.lastRun = &now
	s.mu.Unlock()
	metrics.ScannerLastRunTimestamp.Set(float64(now.Unix()))

	severity := notify.SeveritySuccess
	message := fmt.Sprintf("Added %d new images in %s", totalAdded, time.Since(start).Round(time.Millisecond))
	if folderErrors > 0 {
		severity = notify.SeverityWarning
		message = fmt.Sprintf("%s (%d folders failed)", message, folderErrors)
	}
	s.hub.Publish(notify.Event{
		RunID:    runID,
		Severity: severity,
		Title:    "Scan complete",
		Message:  message,
	})
	logging.Info("Scan pass %s complete: %d images added, %d folders failed", runID, totalAdded, folderErrors)
	return nil
}

// sleep waits for d in short slices, returning false if stopCh fires first.
func sleep(d time.Duration, stopCh chan struct{}) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if stopped(stopCh) {
			return false
		}
		remaining := time.Until(deadline)
		if remaining > pollSlice {
			remaining = pollSlice
		}
		time.Sleep(remaining)
	}
	return !stopped(stopCh)
}

func stopped(stopCh chan struct{}) bool {
	if stopCh == nil {
		return false
	}
	select {
	case <-stopCh:
		return true
	default:
		return false
	}
}
