package config_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/dictsy/internal/config"
)

const watcherInitial = `
server:
  log_level: info
answer:
  fold_contractions: false
`

const watcherUpdated = `
server:
  log_level: debug
answer:
  fold_contractions: true
`

type changeRecorder struct {
	mu    sync.Mutex
	diffs []config.ConfigDiff
	news  []*config.Config
}

func (r *changeRecorder) onChange(_, updated *config.Config, d config.ConfigDiff) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diffs = append(r.diffs, d)
	r.news = append(r.news, updated)
}

func (r *changeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.diffs)
}

// writeConfig writes data and bumps the mtime so that coarse filesystem
// timestamps still register a change.
func writeConfig(t *testing.T, path, data string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func startWatcher(t *testing.T, path string, rec *changeRecorder) *config.Watcher {
	t.Helper()
	w, err := config.NewWatcher(path, rec.onChange, config.WithInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run returned %v", err)
		}
	})
	return w
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcher_DetectsChange(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "dictsy.yaml")
	base := time.Now().Add(-time.Hour)
	writeConfig(t, path, watcherInitial, base)

	rec := &changeRecorder{}
	w := startWatcher(t, path, rec)
	if w.Current().Server.LogLevel != config.LogInfo {
		t.Fatalf("initial log level = %q", w.Current().Server.LogLevel)
	}

	writeConfig(t, path, watcherUpdated, base.Add(time.Minute))
	waitFor(t, func() bool { return rec.count() == 1 })

	rec.mu.Lock()
	d := rec.diffs[0]
	rec.mu.Unlock()
	if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
		t.Errorf("diff log level = %+v", d)
	}
	if !d.AnswerChanged || !d.NewAnswer.FoldContractions {
		t.Errorf("diff answer = %+v", d)
	}
	if w.Current().Server.LogLevel != config.LogDebug {
		t.Errorf("Current() not updated")
	}
}

func TestWatcher_InvalidEditKeepsPrevious(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "dictsy.yaml")
	base := time.Now().Add(-time.Hour)
	writeConfig(t, path, watcherInitial, base)

	rec := &changeRecorder{}
	w := startWatcher(t, path, rec)

	writeConfig(t, path, "server:\n  log_level: bananas\n", base.Add(time.Minute))
	time.Sleep(100 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("onChange called %d times for invalid config", rec.count())
	}
	if w.Current().Server.LogLevel != config.LogInfo {
		t.Errorf("Current() replaced by invalid config")
	}

	writeConfig(t, path, watcherUpdated, base.Add(2*time.Minute))
	waitFor(t, func() bool { return rec.count() == 1 })
}

func TestWatcher_TouchWithoutChange(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "dictsy.yaml")
	base := time.Now().Add(-time.Hour)
	writeConfig(t, path, watcherInitial, base)

	rec := &changeRecorder{}
	startWatcher(t, path, rec)

	writeConfig(t, path, watcherInitial, base.Add(time.Minute))
	time.Sleep(100 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("onChange called %d times for identical content", rec.count())
	}
}

func TestNewWatcher_InitialLoadFails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	if _, err := config.NewWatcher(filepath.Join(dir, "missing.yaml"), nil); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	writeConfig(t, bad, "audio:\n  sink: speaker\n", time.Now())
	if _, err := config.NewWatcher(bad, nil); err == nil {
		t.Error("expected error for invalid file")
	}
}
