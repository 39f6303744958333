package waydroid

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/waybridge/internal/config"
)

// testConfig returns a config with short timeouts suitable for tests.
func testConfig() *config.Config {
	return &config.Config{
		DataDir:          "/var/lib/waydroid",
		AppsDir:          "/home/user/.local/share/applications/waydroid",
		WaydroidBin:      "waydroid",
		SudoBin:          "sudo",
		TarBin:           "tar",
		StatusTimeout:    time.Second,
		LifecycleTimeout: time.Second,
		ArchiveTimeout:   time.Second,
	}
}

// recordedCall captures one runner invocation.
type recordedCall struct {
	name string
	args []string
}

// newRecordingClient returns a client whose runner records invocations and
// replies with the given output and error.
func newRecordingClient(t *testing.T, out string, err error) (*Client, *[]recordedCall) {
	t.Helper()
	var calls []recordedCall
	c := New(testConfig(), nil)
	c.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, recordedCall{name: name, args: args})
		return []byte(out), err
	}
	return c, &calls
}

func TestStatusRunning(t *testing.T) {
	c, calls := newRecordingClient(t, "Session:\tRUNNING\nContainer:\tRUNNING\n", nil)

	status := c.Status(context.Background())
	if status != StatusRunning {
		t.Errorf("Status() = %v, want running", status)
	}

	if len(*calls) != 1 {
		t.Fatalf("runner called %d times, want 1", len(*calls))
	}
	call := (*calls)[0]
	if call.name != "waydroid" || len(call.args) != 1 || call.args[0] != "status" {
		t.Errorf("Status() invoked %s %v, want waydroid status", call.name, call.args)
	}
}

func TestStatusStopped(t *testing.T) {
	c, _ := newRecordingClient(t, "Session:\tSTOPPED\n", nil)

	if status := c.Status(context.Background()); status != StatusStopped {
		t.Errorf("Status() = %v, want stopped", status)
	}
}

func TestStatusCommandFailure(t *testing.T) {
	c, _ := newRecordingClient(t, "", errors.New("exit status 1"))

	if status := c.Status(context.Background()); status != StatusStopped {
		t.Errorf("Status() = %v, want stopped on command failure", status)
	}
}

func TestStatusMissingBinary(t *testing.T) {
	c, _ := newRecordingClient(t, "", &exec.Error{Name: "waydroid", Err: exec.ErrNotFound})

	if status := c.Status(context.Background()); status != StatusUnknown {
		t.Errorf("Status() = %v, want unknown when the binary is missing", status)
	}
}

func TestLifecycleCommands(t *testing.T) {
	tests := []struct {
		name string
		call func(*Client, context.Context) error
		want []string
	}{
		{"stop", (*Client).Stop, []string{"session", "stop"}},
		{"freeze", (*Client).Freeze, []string{"container", "freeze"}},
		{"unfreeze", (*Client).Unfreeze, []string{"container", "unfreeze"}},
	}

	for _, tt := range tests {
		c, calls := newRecordingClient(t, "", nil)
		if err := tt.call(c, context.Background()); err != nil {
			t.Errorf("%s failed: %v", tt.name, err)
			continue
		}

		call := (*calls)[0]
		if call.name != "waydroid" {
			t.Errorf("%s invoked %s, want waydroid", tt.name, call.name)
		}
		if strings.Join(call.args, " ") != strings.Join(tt.want, " ") {
			t.Errorf("%s args = %v, want %v", tt.name, call.args, tt.want)
		}
	}
}

func TestUpgradeElevates(t *testing.T) {
	c, calls := newRecordingClient(t, "", nil)

	if err := c.Upgrade(context.Background()); err != nil {
		t.Fatalf("Upgrade() failed: %v", err)
	}

	call := (*calls)[0]
	if call.name != "sudo" {
		t.Errorf("Upgrade() invoked %s, want sudo", call.name)
	}
	if strings.Join(call.args, " ") != "waydroid upgrade" {
		t.Errorf("Upgrade() args = %v, want waydroid upgrade", call.args)
	}
}

func TestInvokeWrapsOutput(t *testing.T) {
	c, _ := newRecordingClient(t, "container is not even installed\n", errors.New("exit status 1"))

	err := c.Stop(context.Background())
	if err == nil {
		t.Fatal("Stop() should fail when the command fails")
	}
	if !strings.Contains(err.Error(), "session stop") {
		t.Errorf("error %q should name the command", err)
	}
	if !strings.Contains(err.Error(), "container is not even installed") {
		t.Errorf("error %q should carry the command output", err)
	}
}

func TestInvokeTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.LifecycleTimeout = 50 * time.Millisecond
	cfg.WaydroidBin = "sleep"

	c := New(cfg, nil)

	// "sleep 2" stands in for a hung waydroid call; the timeout must kill it.
	start := time.Now()
	err := c.invoke(context.Background(), cfg.LifecycleTimeout, "sleep", "2")
	if err == nil {
		t.Fatal("invoke() should fail when the command outlives its timeout")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("invoke() took %v, want prompt cancellation", elapsed)
	}
}

func TestStartSpawnFailure(t *testing.T) {
	cfg := testConfig()
	cfg.WaydroidBin = "waybridge-test-no-such-binary"
	c := New(cfg, nil)

	if err := c.Start(context.Background()); err == nil {
		t.Error("Start() should fail when the binary does not exist")
	}
}

func TestStartSpawns(t *testing.T) {
	cfg := testConfig()
	cfg.WaydroidBin = "true"
	c := New(cfg, nil)

	if err := c.Start(context.Background()); err != nil {
		t.Errorf("Start() failed: %v", err)
	}
}

func TestStartHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig()
	cfg.WaydroidBin = "true"
	c := New(cfg, nil)

	if err := c.Start(ctx); err == nil {
		t.Error("Start() should fail on an already-cancelled context")
	}
}
