package client

// BoxID addresses one wallbox on the device's Modbus, 0 through 15.
type BoxID int

// PVMode is the photovoltaic coupling mode of the device.
type PVMode int

const (
	PVModeDisabled PVMode = iota
	PVModeOff
	PVModePV
	PVModePVWithMin
)

func (m PVMode) String() string {
	switch m {
	case PVModeDisabled:
		return "disabled"
	case PVModeOff:
		return "off"
	case PVModePV:
		return "pv"
	case PVModePVWithMin:
		return "pv+min"
	default:
		return "unknown"
	}
}

// JSONResponse is returned by /json.
// Box entries are nil for boxes the device could not reach.
type JSONResponse struct {
	Wbec   Wbec   `json:"wbec"`
	Box    []*Box `json:"box"`
	Modbus Modbus `json:"modbus"`
	RFID   RFID   `json:"rfid"`
	PV     PV     `json:"pv"`
	WiFi   WiFi   `json:"wifi"`
}

type Wbec struct {
	Version string `json:"version"`
	BldDate string `json:"bldDate"`
	TimeNow string `json:"timeNow"`
	Enwg14a int    `json:"enwg14a"`
	EnwgErr int    `json:"enwgErr"`
}

// Box is the live state of one wallbox. Currents are in 0.1 A,
// energies in kWh as reported by the wallbox firmware.
type Box struct {
	BusID   int     `json:"busId"`
	Version string  `json:"version"`
	ChgStat int     `json:"chgStat"`
	CurrL1  int     `json:"currL1"`
	CurrL2  int     `json:"currL2"`
	CurrL3  int     `json:"currL3"`
	PCBTemp int     `json:"pcbTemp"`
	VoltL1  int     `json:"voltL1"`
	VoltL2  int     `json:"voltL2"`
	VoltL3  int     `json:"voltL3"`
	ExtLock int     `json:"extLock"`
	Power   int     `json:"power"`
	EnergyP float64 `json:"energyP"`
	EnergyI float64 `json:"energyI"`
	EnergyC float64 `json:"energyC"`
	CurrMax int     `json:"currMax"`
	CurrMin int     `json:"currMin"`
	LogStr  string  `json:"logStr"`
	WdTmOut int     `json:"wdTmOut"`
	Standby int     `json:"standby"`
	RemLock int     `json:"remLock"`
	CurrLim int     `json:"currLim"`
	CurrFs  int     `json:"currFs"`
	LmReq   int     `json:"lmReq"`
	LmLim   int     `json:"lmLim"`
	ResCode string  `json:"resCode"`
	FailCnt int     `json:"failCnt"`
}

type Modbus struct {
	State ModbusState `json:"state"`
}

type ModbusState struct {
	LastTm int64 `json:"lastTm"`
	Millis int64 `json:"millis"`
}

type RFID struct {
	Enabled bool   `json:"enabled"`
	Release bool   `json:"release"`
	LastID  string `json:"lastId"`
}

type PV struct {
	Mode PVMode `json:"mode"`
	Watt int    `json:"watt"`
	WbID BoxID  `json:"wbId"`
}

type WiFi struct {
	MAC     string `json:"mac"`
	RSSI    int    `json:"rssi"`
	Signal  int    `json:"signal"`
	Channel int    `json:"channel"`
}

// PVResponse is returned by /pv, both when reading and when setting values.
type PVResponse struct {
	Box    PVBox    `json:"box"`
	Modbus PVModbus `json:"modbus"`
	PV     PVState  `json:"pv"`
}

type PVBox struct {
	ChgStat int    `json:"chgStat"`
	Power   int    `json:"power"`
	CurrLim int    `json:"currLim"`
	ResCode string `json:"resCode"`
}

type PVModbus struct {
	Millis int64 `json:"millis"`
}

type PVState struct {
	Mode PVMode `json:"mode"`
	Watt int    `json:"watt"`
	Batt int    `json:"batt"`
}

// ConfigResponse is the device configuration returned by /cfg.
type ConfigResponse struct {
	CfgApSsid             string `json:"cfgApSsid"`
	CfgApPass             string `json:"cfgApPass"`
	CfgCntWb              int    `json:"cfgCntWb"`
	CfgMbCycleTime        int    `json:"cfgMbCycleTime"`
	CfgMbDelay            int    `json:"cfgMbDelay"`
	CfgMbTimeout          int    `json:"cfgMbTimeout"`
	CfgStandby            int    `json:"cfgStandby"`
	CfgFailsafeCurrent    int    `json:"cfgFailsafeCurrent"`
	CfgMqttIP             string `json:"cfgMqttIp"`
	CfgMqttPort           int    `json:"cfgMqttPort"`
	CfgMqttUser           string `json:"cfgMqttUser"`
	CfgMqttPass           string `json:"cfgMqttPass"`
	CfgMqttWattTopic      string `json:"cfgMqttWattTopic"`
	CfgMqttWattJSON       string `json:"cfgMqttWattJson"`
	CfgNtpServer          string `json:"cfgNtpServer"`
	CfgFoxUser            string `json:"cfgFoxUser"`
	CfgFoxPass            string `json:"cfgFoxPass"`
	CfgFoxDevID           string `json:"cfgFoxDevId"`
	CfgPvActive           int    `json:"cfgPvActive"`
	CfgPvCycleTime        int    `json:"cfgPvCycleTime"`
	CfgPvLimStart         int    `json:"cfgPvLimStart"`
	CfgPvLimStop          int    `json:"cfgPvLimStop"`
	CfgPvPhFactor         int    `json:"cfgPvPhFactor"`
	CfgPvOffset           int    `json:"cfgPvOffset"`
	CfgPvCalcMode         int    `json:"cfgPvCalcMode"`
	CfgPvInvert           int    `json:"cfgPvInvert"`
	CfgPvInvertBatt       int    `json:"cfgPvInvertBatt"`
	CfgPvMinTime          int    `json:"cfgPvMinTime"`
	CfgPvOffCurrent       int    `json:"cfgPvOffCurrent"`
	CfgPvHTTPIP           string `json:"cfgPvHttpIp"`
	CfgPvHTTPPath         string `json:"cfgPvHttpPath"`
	CfgPvHTTPJSON         string `json:"cfgPvHttpJson"`
	CfgPvHTTPPort         int    `json:"cfgPvHttpPort"`
	CfgTotalCurrMax       int    `json:"cfgTotalCurrMax"`
	CfgLmChargeState      int    `json:"cfgLmChargeState"`
	CfgRestoreLastReq     int    `json:"cfgRestoreLastReq"`
	CfgHwVersion          int    `json:"cfgHwVersion"`
	CfgWifiSleepMode      int    `json:"cfgWifiSleepMode"`
	CfgLoopDelay          int    `json:"cfgLoopDelay"`
	CfgKnockOutTimer      int    `json:"cfgKnockOutTimer"`
	CfgShellyIP           string `json:"cfgShellyIp"`
	CfgInverterIP         string `json:"cfgInverterIp"`
	CfgInverterType       int    `json:"cfgInverterType"`
	CfgInverterPort       int    `json:"cfgInverterPort"`
	CfgInverterAddr       int    `json:"cfgInverterAddr"`
	CfgInvSmartAddr       int    `json:"cfgInvSmartAddr"`
	CfgInvRegPowerInv     int    `json:"cfgInvRegPowerInv"`
	CfgInvRegPowerInvS    int    `json:"cfgInvRegPowerInvS"`
	CfgInvRegPowerMet     int    `json:"cfgInvRegPowerMet"`
	CfgInvRegPowerMetS    int    `json:"cfgInvRegPowerMetS"`
	CfgInvRegToGrid       int    `json:"cfgInvRegToGrid"`
	CfgInvRegFromGrid     int    `json:"cfgInvRegFromGrid"`
	CfgInvRegInputGrid    int    `json:"cfgInvRegInputGrid"`
	CfgInvRegBattery      int    `json:"cfgInvRegBattery"`
	CfgBootlogSize        int    `json:"cfgBootlogSize"`
	CfgBtnDebounce        int    `json:"cfgBtnDebounce"`
	CfgWifiConnectTimeout int    `json:"cfgWifiConnectTimeout"`
	CfgResetOnTimeout     int    `json:"cfgResetOnTimeout"`
	CfgEnergyOffset       int    `json:"cfgEnergyOffset"`
	CfgDisplayAutoOff     int    `json:"cfgDisplayAutoOff"`
	CfgWifiAutoReconnect  int    `json:"cfgWifiAutoReconnect"`
	CfgWifiScanMethod     int    `json:"cfgWifiScanMethod"`
	CfgLedIP              int    `json:"cfgLedIp"`
	CfgWifiOff            int    `json:"cfgWifiOff"`
	CfgChargeLog          int    `json:"cfgChargeLog"`
}

// StatusResponse mimics the go-eCharger status format served by /status.
// The device reports nearly every value as a string.
type StatusResponse struct {
	OEM     string `json:"oem"`
	Typ     string `json:"typ"`
	Box     string `json:"box"`
	Version string `json:"version"`
	Car     string `json:"car"`
	Err     string `json:"err"`
	Alw     string `json:"alw"`
	Amp     string `json:"amp"`
	Amx     string `json:"amx"`
	Stp     string `json:"stp"`
	Pha     string `json:"pha"`
	Tmp     string `json:"tmp"`
	Dws     string `json:"dws"`
	Dwo     string `json:"dwo"`
	Uby     string `json:"uby"`
	Eto     string `json:"eto"`
	Nrg     []int  `json:"nrg"`
	Fwv     string `json:"fwv"`
	Sse     string `json:"sse"`
	Ama     string `json:"ama"`
	Ust     string `json:"ust"`
	Ast     string `json:"ast"`
}

// ChargeLogResponse is returned by /chargelog.
type ChargeLogResponse struct {
	Line []ChargeLogEntry `json:"line"`
}

type ChargeLogEntry struct {
	Timestamp int64   `json:"timestamp"`
	Duration  int64   `json:"duration"`
	Energy    float64 `json:"energy"`
	User      int     `json:"user"`
	Box       int     `json:"box"`
}
