package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/blackwell-systems/waybridge/internal/sampler"
	"github.com/blackwell-systems/waybridge/internal/waydroid"
)

func TestMonitorTickWhileStopped(t *testing.T) {
	f := newFixture(t)

	var notified int
	f.coord.monitorTick(context.Background(), func(sampler.Usage) { notified++ })

	if notified != 0 {
		t.Errorf("notify called %d times while stopped, want 0", notified)
	}
	if f.sampler.callCount() != 0 {
		t.Error("sampler invoked while stopped")
	}
	samples, err := f.store.RecentSamples(10)
	if err != nil {
		t.Fatalf("RecentSamples() error = %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("persisted %d samples while stopped, want 0", len(samples))
	}
}

func TestMonitorTickWhileRunning(t *testing.T) {
	f := newFixture(t)
	f.runtime.setStatus(waydroid.StatusRunning)

	var got []sampler.Usage
	f.coord.monitorTick(context.Background(), func(u sampler.Usage) { got = append(got, u) })

	if len(got) != 1 {
		t.Fatalf("notify called %d times, want exactly 1", len(got))
	}
	if got[0] != f.sampler.usage {
		t.Errorf("notified usage = %+v, want %+v", got[0], f.sampler.usage)
	}

	samples, err := f.store.RecentSamples(10)
	if err != nil {
		t.Fatalf("RecentSamples() error = %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("persisted %d samples, want exactly 1", len(samples))
	}
	if samples[0].CPUUsage != 12.5 || samples[0].RAMUsage != 256 || samples[0].StorageUsage != 1.5 {
		t.Errorf("persisted sample = %+v, want the sampled figures", samples[0])
	}
}

func TestMonitorTickNilNotify(t *testing.T) {
	f := newFixture(t)
	f.runtime.setStatus(waydroid.StatusRunning)

	f.coord.monitorTick(context.Background(), nil)

	samples, err := f.store.RecentSamples(10)
	if err != nil {
		t.Fatalf("RecentSamples() error = %v", err)
	}
	if len(samples) != 1 {
		t.Errorf("persisted %d samples, want 1", len(samples))
	}
}

func TestMonitorTickSkipsDuringLifecycleOperation(t *testing.T) {
	f := newFixture(t)
	f.runtime.setStatus(waydroid.StatusRunning)

	f.coord.mu.Lock()
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.coord.monitorTick(context.Background(), func(sampler.Usage) {
			t.Error("notify called while the lifecycle lock was held")
		})
	}()
	<-done
	f.coord.mu.Unlock()

	if f.sampler.callCount() != 0 {
		t.Error("sampler invoked while the lifecycle lock was held")
	}
}

func TestMonitorLifecycle(t *testing.T) {
	f := newFixture(t)
	f.runtime.setStatus(waydroid.StatusRunning)

	var mu sync.Mutex
	notified := 0
	f.coord.StartMonitor(func(sampler.Usage) {
		mu.Lock()
		notified++
		mu.Unlock()
	})
	// Second call must not spawn a second loop.
	f.coord.StartMonitor(nil)

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := notified
		mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("monitor produced no ticks before the deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}

	f.coord.Close()

	mu.Lock()
	after := notified
	mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	final := notified
	mu.Unlock()
	if final != after {
		t.Errorf("monitor ticked after Close(): %d -> %d", after, final)
	}
}

func TestCloseWithoutStart(t *testing.T) {
	f := newFixture(t)
	f.coord.Close()
}
