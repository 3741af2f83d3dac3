// Package throttle provides an [http.RoundTripper] that rate-limits
// outbound HTTP requests per device host using a token-bucket
// algorithm from [golang.org/x/time/rate].
//
// # Usage
//
// Wrap an existing transport with [NewRoundTripper]:
//
//	rt, err := throttle.NewRoundTripper(
//		throttle.Config{Every: time.Second, Burst: 1},
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//	httpClient := &http.Client{Transport: rt}
//
// Every host gets its own bucket, so one transport can be shared by
// clients for several devices. When a bucket is empty, requests block
// until a token becomes available or the request context ends.
package throttle
