package coordinator

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blackwell-systems/waybridge/internal/config"
	"github.com/blackwell-systems/waybridge/internal/sampler"
	"github.com/blackwell-systems/waybridge/internal/store"
	"github.com/blackwell-systems/waybridge/internal/waydroid"
)

// fakeRuntime is an instrumented RuntimeClient. Every mutating call records
// its name and tracks how many mutations were in flight at once, so tests
// can prove external invocations never interleave. Archive calls snapshot
// the apps directory in memory and restore calls write it back, standing in
// for the tar invocations the real client makes.
type fakeRuntime struct {
	mu          sync.Mutex
	status      waydroid.Status
	calls       []string
	inFlight    int
	maxInFlight int
	hold        time.Duration

	appsDir string
	// archives maps archive path to the apps tree captured at archive time.
	archives       map[string]map[string][]byte
	lastRestoreSrc string

	startErr       error
	stopErr        error
	freezeErr      error
	unfreezeErr    error
	upgradeErr     error
	archiveDataErr error
	archiveAppsErr error
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		status:   waydroid.StatusStopped,
		archives: make(map[string]map[string][]byte),
	}
}

func (f *fakeRuntime) setStatus(s waydroid.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

// track records one mutating invocation and holds it open briefly so that
// an unserialized caller would be observed as overlapping.
func (f *fakeRuntime) track(name string) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.calls = append(f.calls, name)
	hold := f.hold
	f.mu.Unlock()

	if hold > 0 {
		time.Sleep(hold)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func (f *fakeRuntime) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRuntime) Status(ctx context.Context) waydroid.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeRuntime) Start(ctx context.Context) error {
	f.track("start")
	if f.startErr != nil {
		return f.startErr
	}
	f.setStatus(waydroid.StatusRunning)
	return nil
}

func (f *fakeRuntime) Stop(ctx context.Context) error {
	f.track("stop")
	if f.stopErr != nil {
		return f.stopErr
	}
	f.setStatus(waydroid.StatusStopped)
	return nil
}

func (f *fakeRuntime) Freeze(ctx context.Context) error {
	f.track("freeze")
	return f.freezeErr
}

func (f *fakeRuntime) Unfreeze(ctx context.Context) error {
	f.track("unfreeze")
	return f.unfreezeErr
}

func (f *fakeRuntime) Upgrade(ctx context.Context) error {
	f.track("upgrade")
	return f.upgradeErr
}

func (f *fakeRuntime) ArchiveData(ctx context.Context, destPath string) error {
	f.track("archiveData")
	if f.archiveDataErr != nil {
		return f.archiveDataErr
	}
	return os.WriteFile(destPath, []byte("data"), 0644)
}

func (f *fakeRuntime) RestoreArchive(ctx context.Context, archivePath string) error {
	f.track("restoreData")
	return nil
}

func (f *fakeRuntime) ArchiveAppEntries(ctx context.Context, destPath string) error {
	f.track("archiveApps")
	if f.archiveAppsErr != nil {
		return f.archiveAppsErr
	}
	tree, err := readTree(f.appsDir)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.archives[destPath] = tree
	f.mu.Unlock()
	return os.WriteFile(destPath, []byte("apps"), 0644)
}

func (f *fakeRuntime) RestoreAppEntries(ctx context.Context, srcPath string) error {
	f.track("restoreApps")
	f.mu.Lock()
	f.lastRestoreSrc = srcPath
	tree, ok := f.archives[srcPath]
	f.mu.Unlock()
	if !ok {
		return errors.New("unknown archive " + srcPath)
	}
	return writeTree(f.appsDir, tree)
}

func readTree(root string) (map[string][]byte, error) {
	tree := make(map[string][]byte)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		tree[rel] = data
		return nil
	})
	return tree, err
}

func writeTree(root string, tree map[string][]byte) error {
	for rel, data := range tree {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// fakeSampler returns a fixed snapshot and counts calls.
type fakeSampler struct {
	mu    sync.Mutex
	usage sampler.Usage
	calls int
}

func (f *fakeSampler) Sample(ctx context.Context) sampler.Usage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.usage
}

func (f *fakeSampler) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fixture struct {
	coord   *Coordinator
	runtime *fakeRuntime
	sampler *fakeSampler
	store   *store.Store
	cfg     *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	root := t.TempDir()
	cfg := &config.Config{
		DataDir:         filepath.Join(root, "data"),
		AppsDir:         filepath.Join(root, "applications"),
		BackupDir:       filepath.Join(root, "backups"),
		MonitorInterval: 5 * time.Millisecond,
		RestartSettle:   time.Millisecond,
		UpdateInterval:  24 * time.Hour,
	}

	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := st.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	runtime := newFakeRuntime()
	runtime.appsDir = cfg.AppsDir
	smp := &fakeSampler{usage: sampler.Usage{CPUPercent: 12.5, RAMUsedMB: 256, StorageUsedGB: 1.5}}

	return &fixture{
		coord:   New(cfg, st, runtime, smp, nil),
		runtime: runtime,
		sampler: smp,
		store:   st,
		cfg:     cfg,
	}
}

func writeDesktopEntry(t *testing.T, dir, name, pkg string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create apps dir: %v", err)
	}
	path := filepath.Join(dir, name)
	content := "[Desktop Entry]\nName=" + pkg + " app\nExec=waydroid app launch " + pkg + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write desktop entry: %v", err)
	}
	return path
}

func TestStartStopSerialize(t *testing.T) {
	f := newFixture(t)
	f.runtime.hold = 10 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				f.coord.Start(context.Background())
			} else {
				f.coord.Stop(context.Background())
			}
		}(i)
	}
	wg.Wait()

	if f.runtime.maxInFlight != 1 {
		t.Errorf("max concurrent runtime invocations = %d, want 1", f.runtime.maxInFlight)
	}
	if got := len(f.runtime.callLog()); got != 8 {
		t.Errorf("runtime call count = %d, want 8", got)
	}
}

func TestStartError(t *testing.T) {
	f := newFixture(t)
	f.runtime.startErr = errors.New("session refused")

	err := f.coord.Start(context.Background())
	if err == nil {
		t.Fatal("Start() should propagate runtime failure")
	}
	if !strings.Contains(err.Error(), "session refused") {
		t.Errorf("Start() error = %v, want cause preserved", err)
	}
}

func TestRestart(t *testing.T) {
	f := newFixture(t)
	f.runtime.setStatus(waydroid.StatusRunning)

	res := f.coord.Restart(context.Background())
	if !res.StopOK || !res.StartOK {
		t.Errorf("Restart() = %+v, want both legs ok", res)
	}
	if !res.OK() {
		t.Error("OK() = false for a clean restart")
	}
	if got := f.runtime.callLog(); len(got) != 2 || got[0] != "stop" || got[1] != "start" {
		t.Errorf("call order = %v, want [stop start]", got)
	}
}

func TestRestartStopFailureStillStarts(t *testing.T) {
	f := newFixture(t)
	f.runtime.stopErr = errors.New("container wedged")

	res := f.coord.Restart(context.Background())
	if res.StopOK {
		t.Error("StopOK = true, want false")
	}
	if !res.StartOK {
		t.Error("StartOK = false, want start attempted and succeeding")
	}
	if res.OK() {
		t.Error("OK() = true for a half-failed restart")
	}
}

func TestFreezeUnfreeze(t *testing.T) {
	f := newFixture(t)

	if err := f.coord.Freeze(context.Background()); err != nil {
		t.Fatalf("Freeze() error = %v", err)
	}
	if err := f.coord.Unfreeze(context.Background()); err != nil {
		t.Fatalf("Unfreeze() error = %v", err)
	}
	if got := f.runtime.callLog(); len(got) != 2 || got[0] != "freeze" || got[1] != "unfreeze" {
		t.Errorf("call order = %v, want [freeze unfreeze]", got)
	}
}

func TestSetAppVisibility(t *testing.T) {
	f := newFixture(t)
	path := writeDesktopEntry(t, f.cfg.AppsDir, "calc.desktop", "com.example.calc")

	if err := f.coord.SetAppVisibility(context.Background(), "com.example.calc", "Calculator", false); err != nil {
		t.Fatalf("SetAppVisibility() error = %v", err)
	}

	rec, err := f.store.GetVisibility("com.example.calc")
	if err != nil {
		t.Fatalf("GetVisibility() error = %v", err)
	}
	if rec == nil || rec.Visible {
		t.Errorf("stored visibility = %+v, want hidden record", rec)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read desktop entry: %v", err)
	}
	if !strings.Contains(string(data), "NoDisplay=true") {
		t.Errorf("desktop entry not rewritten:\n%s", data)
	}
}

func TestSetAppVisibilityStoreFailureSkipsRewrite(t *testing.T) {
	f := newFixture(t)
	path := writeDesktopEntry(t, f.cfg.AppsDir, "calc.desktop", "com.example.calc")
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read desktop entry: %v", err)
	}

	f.store.Close()

	if err := f.coord.SetAppVisibility(context.Background(), "com.example.calc", "Calculator", false); err == nil {
		t.Fatal("SetAppVisibility() should fail when the store write fails")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read desktop entry: %v", err)
	}
	if string(after) != string(before) {
		t.Error("desktop entry was rewritten despite the store failure")
	}
}

func TestInstalledAppsMergesVisibility(t *testing.T) {
	f := newFixture(t)
	writeDesktopEntry(t, f.cfg.AppsDir, "calc.desktop", "com.example.calc")
	writeDesktopEntry(t, f.cfg.AppsDir, "mail.desktop", "com.example.mail")

	if err := f.store.SetVisibility("com.example.mail", "Mail", false); err != nil {
		t.Fatalf("SetVisibility() error = %v", err)
	}

	apps, err := f.coord.InstalledApps(context.Background())
	if err != nil {
		t.Fatalf("InstalledApps() error = %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("InstalledApps() returned %d apps, want 2", len(apps))
	}

	byPkg := make(map[string]App, len(apps))
	for _, app := range apps {
		byPkg[app.PackageName] = app
	}
	if !byPkg["com.example.calc"].Visible {
		t.Error("app without a stored record should default to visible")
	}
	if byPkg["com.example.mail"].Visible {
		t.Error("hidden app reported as visible")
	}
	if byPkg["com.example.calc"].DesktopFile != "calc.desktop" {
		t.Errorf("DesktopFile = %q, want calc.desktop", byPkg["com.example.calc"].DesktopFile)
	}
}

func TestInstalledAppsMissingDir(t *testing.T) {
	f := newFixture(t)

	apps, err := f.coord.InstalledApps(context.Background())
	if err != nil {
		t.Fatalf("InstalledApps() error = %v", err)
	}
	if len(apps) != 0 {
		t.Errorf("InstalledApps() = %v, want empty for a missing directory", apps)
	}
}

func TestResourceUsage(t *testing.T) {
	f := newFixture(t)

	usage := f.coord.ResourceUsage(context.Background())
	if usage != f.sampler.usage {
		t.Errorf("ResourceUsage() = %+v, want %+v", usage, f.sampler.usage)
	}

	samples, err := f.store.RecentSamples(10)
	if err != nil {
		t.Fatalf("RecentSamples() error = %v", err)
	}
	if len(samples) != 0 {
		t.Error("ResourceUsage() must not persist a sample")
	}
}
