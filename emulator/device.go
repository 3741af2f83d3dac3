package emulator

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/jb-io/wbec-client/client"
)

const (
	// MaxBoxes is the number of wallboxes a wbec can address on its Modbus.
	MaxBoxes = 16

	firmwareVersion = "v0.5.2-emu"
	boxFirmware     = "0x108"
	mainsVoltage    = 230
)

// Charging states reported by Heidelberg wallboxes in chgStat.
const (
	chgStatNoVehicle    = 2
	chgStatVehicleReady = 5
	chgStatCharging     = 7
)

var (
	ErrBoxCount   = fmt.Errorf("box count must be between 1 and %d", MaxBoxes)
	ErrUnknownBox = errors.New("unknown box")
)

// Device is the in-memory state of an emulated wbec.
type Device struct {
	mu       sync.Mutex
	started  time.Time
	cfg      client.ConfigResponse
	boxes    []client.Box
	pv       client.PVState
	pvWbID   client.BoxID
	logs     [][]client.ChargeLogEntry
	resets   int
	requests []string

	inFlight    int
	maxInFlight int
}

// NewDevice returns a device with the given number of wallboxes. Box 0
// has a vehicle plugged in; the others are idle.
func NewDevice(boxes int) (*Device, error) {
	if boxes < 1 || boxes > MaxBoxes {
		return nil, ErrBoxCount
	}

	d := Device{
		started: time.Now(),
		cfg:     defaultConfig(boxes),
		boxes:   make([]client.Box, boxes),
		logs:    make([][]client.ChargeLogEntry, boxes),
	}
	d.restore()

	// A finished session per box so /chargelog has something to show.
	base := d.started.Add(-24 * time.Hour).Unix()
	for i := range d.logs {
		d.logs[i] = append(d.logs[i], client.ChargeLogEntry{
			Timestamp: base + int64(i)*3600,
			Duration:  5400,
			Energy:    11.2,
			Box:       i,
		})
	}

	return &d, nil
}

func defaultConfig(boxes int) client.ConfigResponse {
	return client.ConfigResponse{
		CfgApSsid:          "wbec",
		CfgApPass:          "wbec1234",
		CfgCntWb:           boxes,
		CfgMbCycleTime:     3,
		CfgMbDelay:         100,
		CfgMbTimeout:       60000,
		CfgStandby:         4,
		CfgFailsafeCurrent: 0,
		CfgNtpServer:       "europe.pool.ntp.org",
		CfgPvCycleTime:     30,
		CfgPvLimStart:      61,
		CfgPvLimStop:       50,
		CfgPvPhFactor:      69,
		CfgPvMinTime:       30,
		CfgTotalCurrMax:    0,
		CfgHwVersion:       15,
		CfgLoopDelay:       255,
		CfgBootlogSize:     2000,
		CfgChargeLog:       1,
	}
}

// restore puts boxes and PV coupling back to their power-on state.
func (d *Device) restore() {
	for i := range d.boxes {
		d.boxes[i] = client.Box{
			BusID:   i + 1,
			Version: boxFirmware,
			ChgStat: chgStatNoVehicle,
			PCBTemp: 300,
			VoltL1:  mainsVoltage,
			VoltL2:  mainsVoltage,
			VoltL3:  mainsVoltage,
			CurrMax: 160,
			CurrMin: 60,
			WdTmOut: d.cfg.CfgMbTimeout,
			Standby: d.cfg.CfgStandby,
			CurrFs:  d.cfg.CfgFailsafeCurrent,
		}
	}
	d.boxes[0].ChgStat = chgStatVehicleReady

	d.pv = client.PVState{Mode: client.PVModeDisabled}
	d.pvWbID = 0
}

func (d *Device) box(id client.BoxID) (*client.Box, error) {
	if id < 0 || int(id) >= len(d.boxes) {
		return nil, fmt.Errorf("box %d: %w", id, ErrUnknownBox)
	}

	return &d.boxes[id], nil
}

// Boxes returns the number of emulated wallboxes.
func (d *Device) Boxes() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.boxes)
}

// Config returns the device configuration.
func (d *Device) Config() client.ConfigResponse {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.cfg
}

// Snapshot renders /json. A nil id includes every box; otherwise only
// the addressed one.
func (d *Device) Snapshot(id *client.BoxID) (client.JSONResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	resp := client.JSONResponse{
		Wbec: client.Wbec{
			Version: firmwareVersion,
			BldDate: d.started.Format("Jan 02 2006"),
			TimeNow: time.Now().Format("15:04:05"),
		},
		Modbus: client.Modbus{State: client.ModbusState{
			LastTm: 2900,
			Millis: time.Since(d.started).Milliseconds(),
		}},
		RFID: client.RFID{},
		PV:   client.PV{Mode: d.pv.Mode, Watt: d.pv.Watt, WbID: d.pvWbID},
		WiFi: client.WiFi{MAC: "24:0A:C4:00:00:01", RSSI: -58, Signal: 84, Channel: 6},
	}

	if id != nil {
		b, err := d.box(*id)
		if err != nil {
			return client.JSONResponse{}, err
		}
		cpy := *b
		resp.Box = []*client.Box{&cpy}
		return resp, nil
	}

	resp.Box = make([]*client.Box, len(d.boxes))
	for i := range d.boxes {
		cpy := d.boxes[i]
		resp.Box[i] = &cpy
	}

	return resp, nil
}

// SetCurrentLimit applies limit (0.1 A) to box id. A box with a vehicle
// starts charging when the limit is positive and pauses at zero.
func (d *Device) SetCurrentLimit(id client.BoxID, limit int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.box(id)
	if err != nil {
		return err
	}

	b.CurrLim = limit
	b.LmReq = limit
	b.LmLim = limit

	if b.ChgStat == chgStatNoVehicle {
		return nil
	}

	if limit == 0 {
		b.ChgStat = chgStatVehicleReady
		b.CurrL1, b.CurrL2, b.CurrL3, b.Power = 0, 0, 0, 0
		return nil
	}

	b.ChgStat = chgStatCharging
	b.CurrL1, b.CurrL2, b.CurrL3 = limit, limit, limit
	b.Power = 3 * mainsVoltage * limit / 10

	return nil
}

// PVUpdate holds the PV-coupling values to change; nil fields are kept.
type PVUpdate struct {
	WbID *client.BoxID
	Watt *int
	Batt *int
	Mode *client.PVMode
}

// PV renders /pv.
func (d *Device) PV() client.PVResponse {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.pvResponse()
}

// SetPV changes the PV-coupling values present in u.
func (d *Device) SetPV(u PVUpdate) (client.PVResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u.WbID != nil {
		if _, err := d.box(*u.WbID); err != nil {
			return client.PVResponse{}, err
		}
		d.pvWbID = *u.WbID
	}
	if u.Watt != nil {
		d.pv.Watt = *u.Watt
	}
	if u.Batt != nil {
		d.pv.Batt = *u.Batt
	}
	if u.Mode != nil {
		d.pv.Mode = *u.Mode
	}

	return d.pvResponse(), nil
}

func (d *Device) pvResponse() client.PVResponse {
	b := d.boxes[d.pvWbID]

	return client.PVResponse{
		Box: client.PVBox{
			ChgStat: b.ChgStat,
			Power:   b.Power,
			CurrLim: b.CurrLim,
			ResCode: b.ResCode,
		},
		Modbus: client.PVModbus{Millis: time.Since(d.started).Milliseconds()},
		PV:     d.pv,
	}
}

// Status renders the go-eCharger compatible /status of box id.
func (d *Device) Status(id client.BoxID) (client.StatusResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.box(id)
	if err != nil {
		return client.StatusResponse{}, err
	}

	car := "3"
	switch b.ChgStat {
	case chgStatNoVehicle:
		car = "1"
	case chgStatCharging:
		car = "2"
	}

	alw := "0"
	if b.CurrLim > 0 {
		alw = "1"
	}

	nrg := make([]int, 16)
	nrg[0], nrg[1], nrg[2] = b.VoltL1, b.VoltL2, b.VoltL3
	nrg[4], nrg[5], nrg[6] = b.CurrL1, b.CurrL2, b.CurrL3
	nrg[11] = b.Power / 10

	return client.StatusResponse{
		OEM:     "Heidelberg",
		Typ:     "Energy Control",
		Box:     strconv.Itoa(int(id)),
		Version: "V",
		Car:     car,
		Err:     "0",
		Alw:     alw,
		Amp:     strconv.Itoa(b.CurrLim / 10),
		Amx:     strconv.Itoa(b.CurrLim / 10),
		Stp:     "0",
		Pha:     "63",
		Tmp:     strconv.Itoa(b.PCBTemp / 10),
		Dws:     "0",
		Dwo:     "0",
		Uby:     "0",
		Eto:     strconv.Itoa(int(b.EnergyI * 10)),
		Nrg:     nrg,
		Fwv:     firmwareVersion,
		Sse:     fmt.Sprintf("%06d", id),
		Ama:     strconv.Itoa(b.CurrMax / 10),
		Ust:     "0",
		Ast:     "0",
	}, nil
}

// ChargeLog returns the newest n sessions of box id, newest first.
func (d *Device) ChargeLog(id client.BoxID, n int) (client.ChargeLogResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.box(id); err != nil {
		return client.ChargeLogResponse{}, err
	}

	lines := slices.Clone(d.logs[id])
	slices.Reverse(lines)
	if len(lines) > n {
		lines = lines[:n]
	}
	if lines == nil {
		lines = []client.ChargeLogEntry{}
	}

	return client.ChargeLogResponse{Line: lines}, nil
}

// AddChargeSession appends a finished charging session to box id's log.
func (d *Device) AddChargeSession(id client.BoxID, e client.ChargeLogEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.box(id); err != nil {
		return err
	}
	e.Box = int(id)
	d.logs[id] = append(d.logs[id], e)

	return nil
}

// Reset reboots the device: limits and PV coupling return to their
// power-on values. Configuration and charge logs survive.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.resets++
	d.started = time.Now()
	d.restore()
}

// Resets returns how often the device was reset.
func (d *Device) Resets() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.resets
}

// Requests returns the request URIs the device served, oldest first.
func (d *Device) Requests() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return slices.Clone(d.requests)
}

// MaxConcurrent returns the highest number of requests the device was
// ever serving at the same time.
func (d *Device) MaxConcurrent() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.maxInFlight
}

// enter records the start of a request; the returned func records its end.
func (d *Device) enter(uri string) func() {
	d.mu.Lock()
	d.requests = append(d.requests, uri)
	d.inFlight++
	d.maxInFlight = max(d.maxInFlight, d.inFlight)
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		d.inFlight--
		d.mu.Unlock()
	}
}
