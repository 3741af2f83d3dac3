package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/urfave/cli"

	"github.com/jb-io/wbec-client/client"
)

var errMissingArg = errors.New("missing argument")

// app carries what every command needs besides its flags.
type app struct {
	ctx    context.Context
	out    io.Writer
	logOut io.Writer
}

func run(ctx context.Context, args []string, out, logOut io.Writer) error {
	a := app{ctx: ctx, out: out, logOut: logOut}

	cliApp := cli.App{
		Name:      "wbecctl",
		Usage:     "read and control a wbec wallbox controller",
		UsageText: "wbecctl --host <host> <command> [arguments...]",
		Writer:    out,
		ErrWriter: logOut,
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:   "host",
				Usage:  "device address as host[:port]",
				EnvVar: "WBEC_HOST",
			},
			cli.DurationFlag{
				Name:  "timeout",
				Usage: "per request timeout once sent",
				Value: client.DefaultTimeout,
			},
			cli.DurationFlag{
				Name:  "interval",
				Usage: "minimum pause between two requests",
				Value: client.DefaultRequestInterval,
			},
			cli.BoolFlag{
				Name:  "debug",
				Usage: "log every request",
			},
		},
		Commands: []cli.Command{
			{
				Name:   "config",
				Usage:  "show the device configuration",
				Action: a.config,
			},
			{
				Name:      "json",
				Usage:     "show the device state, optionally of one box",
				ArgsUsage: "[box]",
				Action:    a.json,
			},
			{
				Name:   "pv",
				Usage:  "show the PV-coupling state",
				Action: a.pv,
			},
			{
				Name:      "status",
				Usage:     "show the go-eCharger compatible status of a box",
				ArgsUsage: "<box>",
				Action:    a.status,
			},
			{
				Name:      "chargelog",
				Usage:     "show the last charging sessions of a box",
				ArgsUsage: "<box> [length]",
				Action:    a.chargeLog,
			},
			{
				Name:  "set-pv",
				Usage: "change PV-coupling values",
				Flags: []cli.Flag{
					cli.IntFlag{Name: "box", Usage: "wallbox used for PV charging"},
					cli.IntFlag{Name: "watt", Usage: "current grid power in W, negative when exporting"},
					cli.IntFlag{Name: "batt", Usage: "battery charging power in W"},
					cli.IntFlag{Name: "mode", Usage: "0 disabled, 1 off, 2 pv, 3 pv with minimum current"},
				},
				Action: a.setPV,
			},
			{
				Name:      "set-limit",
				Usage:     "set the current limit of a box in 0.1 A",
				ArgsUsage: "<box> <limit>",
				Action:    a.setLimit,
			},
			{
				Name:   "reset",
				Usage:  "reboot the device",
				Action: a.reset,
			},
		},
	}

	return cliApp.Run(args)
}

func (a app) client(c *cli.Context) (*client.Client, error) {
	level := slog.LevelInfo
	if c.GlobalBool("debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(a.logOut, &slog.HandlerOptions{Level: level}))

	return client.New(c.GlobalString("host"),
		client.WithTimeout(c.GlobalDuration("timeout")),
		client.WithRequestInterval(c.GlobalDuration("interval")),
		client.WithUserAgent("wbecctl"),
		client.WithLogger(logger),
	)
}

func (a app) print(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}

	_, err = fmt.Fprintln(a.out, string(b))

	return err
}

func (a app) config(c *cli.Context) error {
	wc, err := a.client(c)
	if err != nil {
		return err
	}

	cfg, err := wc.Config(a.ctx)
	if err != nil {
		return err
	}

	return a.print(cfg)
}

func (a app) json(c *cli.Context) error {
	wc, err := a.client(c)
	if err != nil {
		return err
	}

	if !c.Args().Present() {
		state, err := wc.JSON(a.ctx)
		if err != nil {
			return err
		}
		return a.print(state)
	}

	id, err := boxArg(c, 0)
	if err != nil {
		return err
	}

	state, err := wc.BoxJSON(a.ctx, id)
	if err != nil {
		return err
	}

	return a.print(state)
}

func (a app) pv(c *cli.Context) error {
	wc, err := a.client(c)
	if err != nil {
		return err
	}

	pv, err := wc.PV(a.ctx)
	if err != nil {
		return err
	}

	return a.print(pv)
}

func (a app) status(c *cli.Context) error {
	id, err := boxArg(c, 0)
	if err != nil {
		return err
	}

	wc, err := a.client(c)
	if err != nil {
		return err
	}

	st, err := wc.Status(a.ctx, id)
	if err != nil {
		return err
	}

	return a.print(st)
}

func (a app) chargeLog(c *cli.Context) error {
	id, err := boxArg(c, 0)
	if err != nil {
		return err
	}

	var length int
	if c.NArg() > 1 {
		if length, err = intArg(c, 1, "length"); err != nil {
			return err
		}
	}

	wc, err := a.client(c)
	if err != nil {
		return err
	}

	log, err := wc.ChargeLog(a.ctx, id, length)
	if err != nil {
		return err
	}

	return a.print(log)
}

func (a app) setPV(c *cli.Context) error {
	var params client.PVParams
	if c.IsSet("box") {
		params.BoxID = client.Ptr(client.BoxID(c.Int("box")))
	}
	if c.IsSet("watt") {
		params.Watt = client.Ptr(c.Int("watt"))
	}
	if c.IsSet("batt") {
		params.Batt = client.Ptr(c.Int("batt"))
	}
	if c.IsSet("mode") {
		params.Mode = client.Ptr(client.PVMode(c.Int("mode")))
	}

	wc, err := a.client(c)
	if err != nil {
		return err
	}

	pv, err := wc.SetPV(a.ctx, params)
	if err != nil {
		return err
	}

	return a.print(pv)
}

func (a app) setLimit(c *cli.Context) error {
	id, err := boxArg(c, 0)
	if err != nil {
		return err
	}

	limit, err := intArg(c, 1, "limit")
	if err != nil {
		return err
	}

	wc, err := a.client(c)
	if err != nil {
		return err
	}

	state, err := wc.SetCurrentLimit(a.ctx, id, limit)
	if err != nil {
		return err
	}

	return a.print(state)
}

func (a app) reset(c *cli.Context) error {
	wc, err := a.client(c)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := wc.ResetDevice(a.ctx); err != nil {
		return err
	}

	_, err = fmt.Fprintf(a.out, "reset sent (%s)\n", time.Since(start).Round(time.Millisecond))

	return err
}

func boxArg(c *cli.Context, i int) (client.BoxID, error) {
	id, err := intArg(c, i, "box")
	return client.BoxID(id), err
}

func intArg(c *cli.Context, i int, name string) (int, error) {
	if c.NArg() <= i {
		return 0, fmt.Errorf("%s: %w", name, errMissingArg)
	}

	v, err := strconv.Atoi(c.Args().Get(i))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}

	return v, nil
}
