package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"starbrowse/internal/database"
	"starbrowse/internal/notify"
)

// fakeFolderScanner records which folders it was asked to scan. Folders
// matching failPath return an error instead.
type fakeFolderScanner struct {
	mu       sync.Mutex
	scanned  []string
	failPath string
	err      error
}

func (f *fakeFolderScanner) ScanFolder(_ context.Context, folder database.Folder, _ Progress) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if f.failPath != "" && folder.Path == f.failPath {
		return 0, errors.New("permission denied")
	}
	f.scanned = append(f.scanned, folder.Path)
	return 1, nil
}

func (f *fakeFolderScanner) scannedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.scanned))
	copy(out, f.scanned)
	return out
}

func TestScanNowSkipsFreshAndMissingFolders(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Stale folder: exists on disk, never scanned.
	staleDir := t.TempDir()
	if _, err := db.AddFolder(ctx, staleDir); err != nil {
		t.Fatalf("AddFolder() failed: %v", err)
	}

	// Fresh folder: scanned moments ago.
	freshDir := t.TempDir()
	fresh, err := db.AddFolder(ctx, freshDir)
	if err != nil {
		t.Fatalf("AddFolder() failed: %v", err)
	}
	if err := db.UpdateFolderScanTime(ctx, fresh.ID, time.Now()); err != nil {
		t.Fatalf("UpdateFolderScanTime() failed: %v", err)
	}

	// Missing folder: registered but gone from disk.
	if _, err := db.AddFolder(ctx, "/nonexistent/folder/path"); err != nil {
		t.Fatalf("AddFolder() failed: %v", err)
	}

	fake := &fakeFolderScanner{}
	sc := New(db, notify.NewHub(), fake, Settings{Enabled: true})

	if err := sc.ScanNow(ctx); err != nil {
		t.Fatalf("ScanNow() failed: %v", err)
	}

	scanned := fake.scannedPaths()
	if len(scanned) != 1 {
		t.Fatalf("scanned %d folders, want 1 (got %v)", len(scanned), scanned)
	}
	if scanned[0] != staleDir {
		t.Errorf("scanned %q, want the stale folder %q", scanned[0], staleDir)
	}

	// The scanned folder's scan time was updated, so a second pass skips it.
	if err := sc.ScanNow(ctx); err != nil {
		t.Fatalf("second ScanNow() failed: %v", err)
	}
	if got := len(fake.scannedPaths()); got != 1 {
		t.Errorf("after second pass scanned %d folders total, want still 1", got)
	}

	status := sc.Status()
	if status.LastRun == nil {
		t.Error("LastRun not recorded after pass")
	}
}

func TestScanNowFreshnessWindow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Two hours is past the one-hour freshness window; ten minutes is not.
	staleDir := t.TempDir()
	stale, err := db.AddFolder(ctx, staleDir)
	if err != nil {
		t.Fatalf("AddFolder() failed: %v", err)
	}
	if err := db.UpdateFolderScanTime(ctx, stale.ID, time.Now().Add(-2*time.Hour)); err != nil {
		t.Fatalf("UpdateFolderScanTime() failed: %v", err)
	}

	freshDir := t.TempDir()
	fresh, err := db.AddFolder(ctx, freshDir)
	if err != nil {
		t.Fatalf("AddFolder() failed: %v", err)
	}
	if err := db.UpdateFolderScanTime(ctx, fresh.ID, time.Now().Add(-10*time.Minute)); err != nil {
		t.Fatalf("UpdateFolderScanTime() failed: %v", err)
	}

	fake := &fakeFolderScanner{}
	sc := New(db, notify.NewHub(), fake, Settings{Enabled: true})
	if err := sc.ScanNow(ctx); err != nil {
		t.Fatalf("ScanNow() failed: %v", err)
	}

	scanned := fake.scannedPaths()
	if len(scanned) != 1 || scanned[0] != staleDir {
		t.Errorf("scanned %v, want only the two-hour-old folder %q", scanned, staleDir)
	}
}

func TestScanNowContinuesAfterFolderError(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	badDir := t.TempDir()
	if _, err := db.AddFolder(ctx, badDir); err != nil {
		t.Fatalf("AddFolder() failed: %v", err)
	}
	goodDir := t.TempDir()
	if _, err := db.AddFolder(ctx, goodDir); err != nil {
		t.Fatalf("AddFolder() failed: %v", err)
	}

	hub := notify.NewHub()
	fake := &fakeFolderScanner{failPath: badDir}
	sc := New(db, hub, fake, Settings{Enabled: true})

	if err := sc.ScanNow(ctx); err != nil {
		t.Fatalf("ScanNow() failed: %v", err)
	}

	// The failing folder must not end the pass early.
	scanned := fake.scannedPaths()
	if len(scanned) != 1 || scanned[0] != goodDir {
		t.Fatalf("scanned %v, want only %q", scanned, goodDir)
	}

	events := hub.History()
	foundError := false
	for _, e := range events {
		if e.Severity == notify.SeverityError && e.Folder == badDir {
			foundError = true
			break
		}
	}
	if !foundError {
		t.Fatal("no error event published for the failing folder")
	}

	last := events[len(events)-1]
	if last.Severity != notify.SeverityWarning {
		t.Errorf("completion severity = %q, want warning when folders failed", last.Severity)
	}
	if sc.Status().LastRun == nil {
		t.Error("LastRun not recorded after a pass with folder errors")
	}
}

func TestScanNowPublishesEvents(t *testing.T) {
	db := setupTestDB(t)
	hub := notify.NewHub()

	dir := t.TempDir()
	if _, err := db.AddFolder(context.Background(), dir); err != nil {
		t.Fatalf("AddFolder() failed: %v", err)
	}

	sc := New(db, hub, &fakeFolderScanner{}, Settings{Enabled: true})
	if err := sc.ScanNow(context.Background()); err != nil {
		t.Fatalf("ScanNow() failed: %v", err)
	}

	events := hub.History()
	if len(events) < 2 {
		t.Fatalf("got %d events, want at least start and complete", len(events))
	}
	first, last := events[0], events[len(events)-1]
	if first.Severity != notify.SeverityInfo {
		t.Errorf("first event severity = %q, want info", first.Severity)
	}
	if last.Severity != notify.SeveritySuccess {
		t.Errorf("last event severity = %q, want success", last.Severity)
	}
	if first.RunID == "" || first.RunID != last.RunID {
		t.Error("events of one pass should share a RunID")
	}
}

// blockingFolderScanner parks inside ScanFolder until released so tests can
// hold a pass open.
type blockingFolderScanner struct {
	entered chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (b *blockingFolderScanner) ScanFolder(context.Context, database.Folder, Progress) (int, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.entered <- struct{}{}
	<-b.release
	return 0, nil
}

func (b *blockingFolderScanner) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestLoopSkipsTickDuringManualScan(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	if _, err := db.AddFolder(ctx, t.TempDir()); err != nil {
		t.Fatalf("AddFolder() failed: %v", err)
	}

	fake := &blockingFolderScanner{
		entered: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
	sc := New(db, notify.NewHub(), fake, Settings{
		Enabled:  true,
		Interval: 10 * time.Millisecond,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- sc.ScanNow(ctx) }()

	select {
	case <-fake.entered:
	case <-time.After(time.Second):
		t.Fatal("manual pass did not reach the folder scanner")
	}

	// The interval elapses many times while the manual pass holds the
	// scanning flag; the loop must not start a second pass.
	sc.Start()
	time.Sleep(100 * time.Millisecond)
	if got := fake.callCount(); got != 1 {
		t.Errorf("folder scanned %d times during manual pass, want 1", got)
	}
	if err := sc.ScanNow(ctx); err == nil {
		t.Error("second ScanNow() should fail while a pass is in flight")
	}

	close(fake.release)
	if err := <-errCh; err != nil {
		t.Fatalf("ScanNow() failed: %v", err)
	}
	sc.Stop()
}

func TestStartStop(t *testing.T) {
	db := setupTestDB(t)

	// A long interval keeps the loop idle in its poll slices.
	sc := New(db, notify.NewHub(), &fakeFolderScanner{}, Settings{
		Enabled:  true,
		Interval: time.Hour,
	})

	sc.Start()
	if !sc.Status().Running {
		t.Fatal("scanner not running after Start()")
	}

	// Start is idempotent.
	sc.Start()

	stopStart := time.Now()
	if !sc.Stop() {
		t.Error("Stop() did not join the loop in time")
	}
	if elapsed := time.Since(stopStart); elapsed > stopTimeout {
		t.Errorf("Stop() took %v, want under %v", elapsed, stopTimeout)
	}
	if sc.Status().Running {
		t.Error("scanner still reports running after Stop()")
	}

	// Stopping a stopped scanner is a no-op.
	if !sc.Stop() {
		t.Error("Stop() on stopped scanner should succeed")
	}
}

func TestStartDisabled(t *testing.T) {
	db := setupTestDB(t)

	sc := New(db, notify.NewHub(), &fakeFolderScanner{}, Settings{Enabled: false})
	sc.Start()
	if sc.Status().Running {
		t.Error("disabled scanner should not start")
	}
}

func TestUpdateSettingsTogglesLoop(t *testing.T) {
	db := setupTestDB(t)

	sc := New(db, notify.NewHub(), &fakeFolderScanner{}, Settings{
		Enabled:  false,
		Interval: time.Hour,
	})
	sc.Start()
	if sc.Status().Running {
		t.Fatal("scanner should be idle while disabled")
	}

	sc.UpdateSettings(Settings{Enabled: true, Interval: time.Hour})
	if !sc.Status().Running {
		t.Fatal("scanner should run after enabling")
	}

	sc.UpdateSettings(Settings{Enabled: false, Interval: time.Hour})
	if sc.Status().Running {
		t.Error("scanner should stop after disabling")
	}
}

func TestDefaultInterval(t *testing.T) {
	db := setupTestDB(t)

	sc := New(db, notify.NewHub(), &fakeFolderScanner{}, Settings{Enabled: true})
	if got := sc.Status().Interval; got != DefaultInterval {
		t.Errorf("interval = %v, want default %v", got, DefaultInterval)
	}
}

func TestSleepInterruptible(t *testing.T) {
	stopCh := make(chan struct{})
	close(stopCh)

	start := time.Now()
	if sleep(time.Second, stopCh) {
		t.Error("sleep should report interruption when stop is signaled")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("interrupted sleep took %v, want near-immediate return", elapsed)
	}
}
