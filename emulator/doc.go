// Package emulator serves the HTTP API of a wbec wallbox controller from
// in-memory state, for tests and local development without hardware.
//
//	dev, err := emulator.NewDevice(2)
//	srv := httptest.NewServer(emulator.Handler(dev, emulator.WithLatency(20*time.Millisecond)))
//
// The emulated device accepts concurrent requests, unlike the real one,
// and records how many it served at once in [Device.MaxConcurrent].
package emulator
