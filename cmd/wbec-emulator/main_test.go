package main

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/jb-io/wbec-client/emulator"
)

func TestRun_InvalidBoxes(t *testing.T) {
	err := run(t.Context(), []string{"wbec-emulator", "--boxes", "0"}, io.Discard)
	if !errors.Is(err, emulator.ErrBoxCount) {
		t.Errorf("exp ErrBoxCount; got %v", err)
	}
}

func TestRun_StopsWithContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if err := run(ctx, []string{"wbec-emulator", "--addr", addr}, io.Discard); err != nil {
		t.Errorf("exp clean shutdown; got %v", err)
	}
}
