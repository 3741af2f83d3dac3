package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jb-io/wbec-client/queue"
)

// Requests with the same key coalesce while they wait in the queue,
// so only the most recent read or write of a value reaches the device.
const (
	keyConfig       = "cfg"
	keyJSON         = "json"
	keyPV           = "pv"
	keyStatus       = "status"
	keyChargeLog    = "chargelog"
	keyPVSet        = "pvset-"
	keyCurrentLimit = "jsonset"
	keyReset        = "reset"
)

type boxParams struct {
	ID BoxID `query:"id" validate:"gte=0,lte=15"`
}

type statusParams struct {
	ID BoxID `query:"box" validate:"gte=0,lte=15"`
}

type chargeLogParams struct {
	ID     BoxID `query:"id" validate:"gte=0,lte=15"`
	Length int   `query:"len" validate:"gte=1,lte=100"`
}

type currentLimitParams struct {
	ID    BoxID `query:"id" validate:"gte=0,lte=15"`
	Limit int   `query:"currLim" validate:"gte=0,lte=160"`
}

// PVParams holds the PV-coupling values to change. Only non-nil
// fields are sent; at least one must be set.
type PVParams struct {
	BoxID *BoxID  `query:"pvWbId" validate:"omitempty,gte=0,lte=15"`
	Watt  *int    `query:"pvWatt"`
	Batt  *int    `query:"pvBatt" validate:"omitempty,gte=0"`
	Mode  *PVMode `query:"pvMode" validate:"omitempty,gte=0,lte=3"`
}

// Ptr returns a pointer to v, for filling in [PVParams].
func Ptr[T any](v T) *T {
	return &v
}

// query returns the query parameters and the coalescing key for p.
// The key lists the parameter names, so two writes of the same set of
// values coalesce while writes of different values do not.
func (p PVParams) query() (map[string]string, string) {
	q := make(map[string]string, 4)
	var names []string

	if p.BoxID != nil {
		q["pvWbId"] = strconv.Itoa(int(*p.BoxID))
		names = append(names, "pvWbId")
	}
	if p.Watt != nil {
		q["pvWatt"] = strconv.Itoa(*p.Watt)
		names = append(names, "pvWatt")
	}
	if p.Batt != nil {
		q["pvBatt"] = strconv.Itoa(*p.Batt)
		names = append(names, "pvBatt")
	}
	if p.Mode != nil {
		q["pvMode"] = strconv.Itoa(int(*p.Mode))
		names = append(names, "pvMode")
	}

	return q, keyPVSet + strings.Join(names, "+")
}

// Config reads the device configuration.
func (c *Client) Config(ctx context.Context) (*ConfigResponse, error) {
	return get[ConfigResponse](ctx, c, "/cfg", nil, keyConfig)
}

// JSON reads the state of the device and all of its wallboxes.
func (c *Client) JSON(ctx context.Context) (*JSONResponse, error) {
	return get[JSONResponse](ctx, c, "/json", nil, keyJSON)
}

// BoxJSON reads the state of the device restricted to wallbox id.
func (c *Client) BoxJSON(ctx context.Context, id BoxID) (*JSONResponse, error) {
	if err := validateParams(boxParams{ID: id}); err != nil {
		return nil, err
	}

	query := map[string]string{"id": strconv.Itoa(int(id))}

	return get[JSONResponse](ctx, c, "/json", query, fmt.Sprintf("%s%d", keyJSON, id))
}

// PV reads the PV-coupling state.
func (c *Client) PV(ctx context.Context) (*PVResponse, error) {
	return get[PVResponse](ctx, c, "/pv", nil, keyPV)
}

// Status reads the go-eCharger compatible status of wallbox id.
func (c *Client) Status(ctx context.Context, id BoxID) (*StatusResponse, error) {
	if err := validateParams(statusParams{ID: id}); err != nil {
		return nil, err
	}

	query := map[string]string{"box": strconv.Itoa(int(id))}

	return get[StatusResponse](ctx, c, "/status", query, fmt.Sprintf("%s%d", keyStatus, id))
}

// ChargeLog reads the last length charging sessions of wallbox id.
// A length of zero requests [DefaultChargeLogLength] entries.
func (c *Client) ChargeLog(ctx context.Context, id BoxID, length int) (*ChargeLogResponse, error) {
	if length == 0 {
		length = DefaultChargeLogLength
	}
	if err := validateParams(chargeLogParams{ID: id, Length: length}); err != nil {
		return nil, err
	}

	query := map[string]string{
		"id":  strconv.Itoa(int(id)),
		"len": strconv.Itoa(length),
	}

	return get[ChargeLogResponse](ctx, c, "/chargelog", query, fmt.Sprintf("%s%d-%d", keyChargeLog, id, length))
}

// SetPV changes PV-coupling values. Pending writes of the same set of
// fields are replaced by this one.
func (c *Client) SetPV(ctx context.Context, params PVParams) (*PVResponse, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	query, key := params.query()
	if len(query) == 0 {
		return nil, FieldErrors{{Field: "pv", Err: "at least one value must be set"}}
	}

	return get[PVResponse](ctx, c, "/pv", query, key)
}

// SetCurrentLimit sets the current limit of wallbox id in 0.1 A
// (160 is 16 A, 0 stops charging). A pending limit for the same box
// is replaced, so only the latest value is sent.
func (c *Client) SetCurrentLimit(ctx context.Context, id BoxID, limit int) (*JSONResponse, error) {
	if err := validateParams(currentLimitParams{ID: id, Limit: limit}); err != nil {
		return nil, err
	}

	query := map[string]string{
		"currLim": strconv.Itoa(limit),
		"id":      strconv.Itoa(int(id)),
	}

	return get[JSONResponse](ctx, c, "/json", query, fmt.Sprintf("%s%d", keyCurrentLimit, id))
}

// ResetDevice asks the device to reboot. The response body is ignored.
func (c *Client) ResetDevice(ctx context.Context) error {
	u := URL(c.scheme, c.host, "/reset")

	r := c.queue.Enqueue(func() (any, error) {
		return nil, c.send(ctx, u, keyReset)
	}, queue.WithKey(keyReset))

	_, err := r.Wait(ctx)

	return err
}
