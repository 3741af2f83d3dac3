// Command wbec-emulator serves an emulated wbec device over HTTP.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/jb-io/wbec-client/emulator"
	"github.com/jb-io/wbec-client/emulator/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "wbec-emulator: %s\n", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, logOut io.Writer) error {
	app := cli.App{
		Name:      "wbec-emulator",
		Usage:     "serve an emulated wbec wallbox controller",
		UsageText: "wbec-emulator [--addr :8080] [--boxes 2]",
		ErrWriter: logOut,
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:   "addr",
				Usage:  "listen address",
				Value:  ":8080",
				EnvVar: "WBEC_EMULATOR_ADDR",
			},
			cli.IntFlag{
				Name:  "boxes",
				Usage: "number of emulated wallboxes",
				Value: 2,
			},
			cli.DurationFlag{
				Name:  "latency",
				Usage: "delay added to every answer",
			},
			cli.BoolFlag{
				Name:  "debug",
				Usage: "log at debug level",
			},
		},
		Action: func(c *cli.Context) error {
			level := slog.LevelInfo
			if c.Bool("debug") {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

			dev, err := emulator.NewDevice(c.Int("boxes"))
			if err != nil {
				return err
			}

			h := emulator.Handler(dev,
				emulator.WithLogger(logger),
				emulator.WithLatency(c.Duration("latency")),
			)

			srv := server.New(h, server.WithAddr(c.String("addr")), server.WithLogger(logger))

			return srv.Run(ctx)
		},
	}

	return app.Run(args)
}
