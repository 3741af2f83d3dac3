//go:build integration

package e2e_test

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jb-io/wbec-client/client"
	"github.com/jb-io/wbec-client/emulator"
	"github.com/jb-io/wbec-client/queue"
)

// -------------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------------

func newDevice(t *testing.T, latency time.Duration) (*emulator.Device, string) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	dev, err := emulator.NewDevice(2)
	if err != nil {
		t.Fatalf("creating device: %v", err)
	}

	srv := httptest.NewServer(emulator.Handler(dev, emulator.WithLogger(log), emulator.WithLatency(latency)))
	t.Cleanup(srv.Close)

	return dev, srv.URL
}

func newClient(t *testing.T, host string, interval time.Duration) *client.Client {
	t.Helper()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	c, err := client.New(host, client.WithRequestInterval(interval), client.WithLogger(log))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	return c
}

func waitPending(t *testing.T, c *client.Client, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for c.Pending() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d pending requests; have %d", n, c.Pending())
		}
		time.Sleep(time.Millisecond)
	}
}

// waitRequests blocks until dev has started serving n requests.
func waitRequests(t *testing.T, dev *emulator.Device, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for len(dev.Requests()) < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d device requests", n)
		}
		time.Sleep(time.Millisecond)
	}
}

// -------------------------------------------------------------------------
// Tests
// -------------------------------------------------------------------------

func TestE2E_SingleFlight(t *testing.T) {
	dev, host := newDevice(t, 20*time.Millisecond)
	c := newClient(t, host, 0)

	calls := []func() error{
		func() error { _, err := c.Config(t.Context()); return err },
		func() error { _, err := c.JSON(t.Context()); return err },
		func() error { _, err := c.BoxJSON(t.Context(), 1); return err },
		func() error { _, err := c.PV(t.Context()); return err },
		func() error { _, err := c.Status(t.Context(), 0); return err },
		func() error { _, err := c.Status(t.Context(), 1); return err },
		func() error { _, err := c.ChargeLog(t.Context(), 0, 0); return err },
		func() error { _, err := c.SetCurrentLimit(t.Context(), 0, 60); return err },
	}

	var wg sync.WaitGroup
	for _, call := range calls {
		wg.Go(func() {
			if err := call(); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	wg.Wait()

	if got := dev.MaxConcurrent(); got != 1 {
		t.Errorf("exp the device to serve one request at a time; got %d at once", got)
	}
	if got := len(dev.Requests()); got != len(calls) {
		t.Errorf("exp %d requests; got %d", len(calls), got)
	}
}

func TestE2E_CoalescedLimit(t *testing.T) {
	dev, host := newDevice(t, 300*time.Millisecond)
	c := newClient(t, host, 0)

	go c.Config(t.Context())
	waitRequests(t, dev, 1)

	const callers = 5
	results := make([]*client.JSONResponse, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Go(func() {
			resp, err := c.SetCurrentLimit(t.Context(), 0, 60+10*i)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = resp
		})
	}
	wg.Wait()

	if t.Failed() {
		return
	}

	sent := dev.Requests()
	if len(sent) != 2 {
		t.Fatalf("exp /cfg and one coalesced write; got %v", sent)
	}

	snap, _ := dev.Snapshot(nil)
	final := snap.Box[0].CurrLim
	if !strings.Contains(sent[1], "currLim=") {
		t.Errorf("exp a current limit write; got %s", sent[1])
	}
	for i, r := range results {
		if got := r.Box[0].CurrLim; got != final {
			t.Errorf("caller %d: exp limit %d shared by all callers; got %d", i, final, got)
		}
	}
}

func TestE2E_ClientReset(t *testing.T) {
	dev, host := newDevice(t, 150*time.Millisecond)
	c := newClient(t, host, 0)

	cfg := make(chan error, 1)
	go func() {
		_, err := c.Config(t.Context())
		cfg <- err
	}()
	waitRequests(t, dev, 1)

	queued := make(chan error, 2)
	go func() { _, err := c.Status(t.Context(), 0); queued <- err }()
	go func() { _, err := c.PV(t.Context()); queued <- err }()
	waitPending(t, c, 2)

	c.ClientReset()

	for range 2 {
		if err := <-queued; !errors.Is(err, queue.ErrReset) {
			t.Errorf("exp ErrReset; got %v", err)
		}
	}
	if err := <-cfg; err != nil {
		t.Errorf("exp in-flight request to complete; got %v", err)
	}

	if diff := cmp.Diff([]string{"/cfg"}, dev.Requests()); diff != "" {
		t.Errorf("requests mismatch (-exp +got):\n%s", diff)
	}
}

func TestE2E_Spacing(t *testing.T) {
	const interval = 100 * time.Millisecond

	_, host := newDevice(t, 0)
	c := newClient(t, host, interval)

	start := time.Now()
	for range 3 {
		if _, err := c.PV(t.Context()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if took := time.Since(start); took < 2*interval {
		t.Errorf("exp at least %v for three spaced requests; took %v", 2*interval, took)
	}
}

func TestE2E_DeviceError(t *testing.T) {
	_, host := newDevice(t, 0)
	c := newClient(t, host, 0)

	// Box 5 passes client validation but the device only has two.
	_, err := c.Status(t.Context(), 5)

	statusErr, ok := errors.AsType[*client.UnexpectedStatusError](err)
	if !ok {
		t.Fatalf("exp *UnexpectedStatusError; got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest {
		t.Errorf("exp status 400; got %d", statusErr.StatusCode)
	}
	if !strings.Contains(statusErr.Body, "unknown box") {
		t.Errorf("exp unknown box in body; got %s", statusErr.Body)
	}
}

func TestE2E_ResetDevice(t *testing.T) {
	dev, host := newDevice(t, 0)
	c := newClient(t, host, 0)

	if _, err := c.SetCurrentLimit(t.Context(), 0, 120); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.ResetDevice(t.Context()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := dev.Resets(); got != 1 {
		t.Errorf("exp 1 reset; got %d", got)
	}

	state, err := c.JSON(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := state.Box[0].CurrLim; got != 0 {
		t.Errorf("exp limit cleared by reset; got %d", got)
	}
}
