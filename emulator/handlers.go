package emulator

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jb-io/wbec-client/client"
)

const defaultChargeLogLength = 10

// Handler serves the HTTP API of dev.
func Handler(dev *Device, optFns ...Option) http.Handler {
	var opts options
	for _, opt := range optFns {
		opt(&opts)
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	if opts.tracer == nil {
		opts.tracer = noop.NewTracerProvider().Tracer("no-op tracer")
	}

	rt := &router{
		mux:    http.NewServeMux(),
		logger: opts.logger,
		tracer: opts.tracer,
		mw: []Middleware{
			Logger(opts.logger),
			Errors(opts.logger),
			Panics(),
			probe(dev, opts.latency),
		},
	}

	h := handlers{dev: dev}
	rt.get("/cfg", h.config)
	rt.get("/json", h.json)
	rt.get("/pv", h.pv)
	rt.get("/status", h.status)
	rt.get("/chargelog", h.chargeLog)
	rt.get("/reset", h.reset)

	return rt
}

type handlers struct {
	dev *Device
}

func (h handlers) config(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return respondJSON(ctx, w, http.StatusOK, h.dev.Config())
}

type jsonQuery struct {
	ID      *int `query:"id" validate:"omitempty,gte=0,lte=15"`
	CurrLim *int `query:"currLim" validate:"omitempty,gte=0,lte=160"`
}

// json renders the device state. With currLim it first sets the limit
// of box id (box 0 when id is missing).
func (h handlers) json(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var q jsonQuery
	if err := queryInts(r, &q); err != nil {
		return err
	}

	if q.CurrLim != nil {
		id := client.BoxID(or(q.ID, 0))
		if err := h.dev.SetCurrentLimit(id, *q.CurrLim); err != nil {
			return boxErr(err)
		}

		// The device answers a write with the full state.
		q.ID = nil
	}

	var id *client.BoxID
	if q.ID != nil {
		id = client.Ptr(client.BoxID(*q.ID))
	}

	resp, err := h.dev.Snapshot(id)
	if err != nil {
		return boxErr(err)
	}

	return respondJSON(ctx, w, http.StatusOK, resp)
}

type pvQuery struct {
	WbID *int `query:"pvWbId" validate:"omitempty,gte=0,lte=15"`
	Watt *int `query:"pvWatt"`
	Batt *int `query:"pvBatt" validate:"omitempty,gte=0"`
	Mode *int `query:"pvMode" validate:"omitempty,gte=0,lte=3"`
}

func (h handlers) pv(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var q pvQuery
	if err := queryInts(r, &q); err != nil {
		return err
	}

	if q == (pvQuery{}) {
		return respondJSON(ctx, w, http.StatusOK, h.dev.PV())
	}

	u := PVUpdate{Watt: q.Watt, Batt: q.Batt}
	if q.WbID != nil {
		u.WbID = client.Ptr(client.BoxID(*q.WbID))
	}
	if q.Mode != nil {
		u.Mode = client.Ptr(client.PVMode(*q.Mode))
	}

	resp, err := h.dev.SetPV(u)
	if err != nil {
		return boxErr(err)
	}

	return respondJSON(ctx, w, http.StatusOK, resp)
}

type statusQuery struct {
	Box *int `query:"box" validate:"omitempty,gte=0,lte=15"`
}

func (h handlers) status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var q statusQuery
	if err := queryInts(r, &q); err != nil {
		return err
	}

	resp, err := h.dev.Status(client.BoxID(or(q.Box, 0)))
	if err != nil {
		return boxErr(err)
	}

	return respondJSON(ctx, w, http.StatusOK, resp)
}

type chargeLogQuery struct {
	ID  *int `query:"id" validate:"omitempty,gte=0,lte=15"`
	Len *int `query:"len" validate:"omitempty,gte=1,lte=100"`
}

func (h handlers) chargeLog(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var q chargeLogQuery
	if err := queryInts(r, &q); err != nil {
		return err
	}

	resp, err := h.dev.ChargeLog(client.BoxID(or(q.ID, 0)), or(q.Len, defaultChargeLogLength))
	if err != nil {
		return boxErr(err)
	}

	return respondJSON(ctx, w, http.StatusOK, resp)
}

func (h handlers) reset(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.dev.Reset()

	return respondText(ctx, w, http.StatusOK, "Reset initiated")
}

// boxErr answers an unknown box with 400 and anything else as internal.
func boxErr(err error) error {
	if errors.Is(err, ErrUnknownBox) {
		return NewError(http.StatusBadRequest, err)
	}
	return err
}
