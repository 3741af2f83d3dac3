package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jb-io/wbec-client/client"
	"github.com/jb-io/wbec-client/emulator"
)

func newEmulator(t *testing.T) (*emulator.Device, string) {
	t.Helper()

	dev, err := emulator.NewDevice(2)
	if err != nil {
		t.Fatalf("failed to create device: %v", err)
	}

	ts := httptest.NewServer(emulator.Handler(dev, emulator.WithLogger(slog.New(slog.DiscardHandler))))
	t.Cleanup(ts.Close)

	return dev, ts.URL
}

func runCtl(t *testing.T, host string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	argv := append([]string{"wbecctl", "--host", host, "--interval", "0s"}, args...)
	err := run(t.Context(), argv, &out, io.Discard)

	return out.String(), err
}

func TestRun_Reads(t *testing.T) {
	_, host := newEmulator(t)

	tests := []struct {
		args     []string
		expBoxes int
	}{
		{args: []string{"json"}, expBoxes: 2},
		{args: []string{"json", "1"}, expBoxes: 1},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := runCtl(t, host, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var state client.JSONResponse
			if err := json.Unmarshal([]byte(out), &state); err != nil {
				t.Fatalf("decoding output: %v\n%s", err, out)
			}
			if len(state.Box) != tt.expBoxes {
				t.Errorf("exp %d boxes; got %d", tt.expBoxes, len(state.Box))
			}
		})
	}

	for _, args := range [][]string{{"config"}, {"pv"}, {"status", "0"}, {"chargelog", "1", "5"}} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			out, err := runCtl(t, host, args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !json.Valid([]byte(out)) {
				t.Errorf("exp JSON output; got %s", out)
			}
		})
	}
}

func TestRun_SetLimit(t *testing.T) {
	dev, host := newEmulator(t)

	if _, err := runCtl(t, host, "set-limit", "1", "100"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, err := dev.Snapshot(client.Ptr(client.BoxID(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := snap.Box[0].CurrLim; got != 100 {
		t.Errorf("exp limit 100; got %d", got)
	}
}

func TestRun_SetPV(t *testing.T) {
	dev, host := newEmulator(t)

	if _, err := runCtl(t, host, "set-pv", "--watt", "-500", "--mode", "2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pv := dev.PV().PV
	if pv.Watt != -500 || pv.Mode != client.PVModePV {
		t.Errorf("exp -500 W in pv mode; got %d W in %v", pv.Watt, pv.Mode)
	}
}

func TestRun_Reset(t *testing.T) {
	dev, host := newEmulator(t)

	out, err := runCtl(t, host, "reset")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "reset sent") {
		t.Errorf("exp confirmation; got %q", out)
	}
	if got := dev.Resets(); got != 1 {
		t.Errorf("exp 1 reset; got %d", got)
	}
}

func TestRun_Errors(t *testing.T) {
	_, host := newEmulator(t)

	tests := []struct {
		name   string
		args   []string
		expErr error
	}{
		{name: "missing box", args: []string{"status"}, expErr: errMissingArg},
		{name: "missing limit", args: []string{"set-limit", "0"}, expErr: errMissingArg},
		{name: "limit out of range", args: []string{"set-limit", "0", "200"}, expErr: client.ErrInvalidParams},
		{name: "no pv values", args: []string{"set-pv"}, expErr: client.ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCtl(t, host, tt.args...); !errors.Is(err, tt.expErr) {
				t.Errorf("exp %v; got %v", tt.expErr, err)
			}
		})
	}

	t.Run("not an integer", func(t *testing.T) {
		if _, err := runCtl(t, host, "status", "one"); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("missing host", func(t *testing.T) {
		t.Setenv("WBEC_HOST", "")
		err := run(t.Context(), []string{"wbecctl", "pv"}, io.Discard, io.Discard)
		if !errors.Is(err, client.ErrMissingHost) {
			t.Errorf("exp ErrMissingHost; got %v", err)
		}
	})
}
