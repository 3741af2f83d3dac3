package emulator_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"

	"github.com/jb-io/wbec-client/client"
	"github.com/jb-io/wbec-client/emulator"
)

func ExampleHandler() {
	dev, err := emulator.NewDevice(2)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	ts := httptest.NewServer(emulator.Handler(dev, emulator.WithLogger(slog.New(slog.DiscardHandler))))
	defer ts.Close()

	c, err := client.New(ts.URL, client.WithRequestInterval(0))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	state, err := c.SetCurrentLimit(context.Background(), 0, 120)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	st, err := c.Status(context.Background(), 0)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("boxes:", len(state.Box))
	fmt.Println("limit:", state.Box[0].CurrLim)
	fmt.Println("car:", st.Car, "amp:", st.Amp)
	// Output:
	// boxes: 2
	// limit: 120
	// car: 2 amp: 12
}
