package throttle_test

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jb-io/wbec-client/client/throttle"
)

func ExampleNewRoundTripper() {
	rt, err := throttle.NewRoundTripper(
		throttle.Config{Every: 500 * time.Millisecond, Burst: 1},
		func() *slog.Logger { return slog.Default() },
		http.DefaultTransport,
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	_ = &http.Client{Transport: rt}

	fmt.Println("throttled transport created")
	// Output: throttled transport created
}
