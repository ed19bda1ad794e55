package dali

import "fmt"

// DeviceTypeMap maps a device type code (e.g. "0101") to a short
// human-readable category name, used as the fallback component of a
// generated device name.
var DeviceTypeMap = buildDeviceTypeMap()

// DeviceModelMap maps a device type code to a full model description.
var DeviceModelMap = buildDeviceModelMap()

// ColorModeMap maps a device type code to the color control mode it
// exposes: "color_temp", "hs" or "rgbw". Device types absent from this map
// do not support color control.
var ColorModeMap = map[string]string{
	"0102": "color_temp",
	"0103": "hs",
	"0104": "hs",
	"0105": "rgbw",
	"0106": "rgbw",
}

// ButtonEventName maps a panel button event code to its name.
var ButtonEventName = map[int]string{
	1: "press",
	2: "hold",
	3: "double_press",
	4: "rotate",
	5: "release",
}

// PanelConfig describes the button layout of a push-button/rotary panel
// device type.
type PanelConfig struct {
	ButtonCount int
	Events      []string
}

// PanelConfigs maps a panel device type code to its button layout.
var PanelConfigs = map[string]PanelConfig{
	"0302": {ButtonCount: 2, Events: []string{"press", "hold", "double_press", "release"}},
	"0304": {ButtonCount: 4, Events: []string{"press", "hold", "double_press", "release"}},
	"0306": {ButtonCount: 6, Events: []string{"press", "hold", "double_press", "release"}},
	"0308": {ButtonCount: 8, Events: []string{"press", "hold", "double_press", "release"}},
	"0300": {ButtonCount: 1, Events: []string{"press", "double_press", "rotate"}},
}

// DeviceParamKeyMap translates snake_case parameter names into the
// camelCase keys used on the wire for devParam get/set commands.
var DeviceParamKeyMap = map[string]string{
	"address":                 "address",
	"fade_time":               "fadeTime",
	"fade_rate":               "fadeRate",
	"power_status":            "powerStatus",
	"system_failure_status":   "systemFailureStatus",
	"max_brightness":          "maxBrightness",
	"min_brightness":          "minBrightness",
	"standby_power":           "standbyPower",
	"max_power":               "maxPower",
	"cct_cool":                "cctCool",
	"cct_warm":                "cctWarm",
	"phy_cct_cool":            "phyCctCool",
	"phy_cct_warm":            "phyCctWarm",
	"step_cct":                "stepCCT",
	"temp_thresholds":         "tempThresholds",
	"runtime_thresholds":      "runtimeThresholds",
	"waring_runtime_max":      "waringRuntimeMax",
	"waring_temperature_max":  "waringTemperatureMax",
}

// SensorParamKeyMap translates snake_case sensor parameter names into the
// camelCase keys used on the wire. occpy_time -> occpyTime is a
// protocol-level misspelling (not "occupy") that gateways actually send and
// must be preserved bit-exact.
var SensorParamKeyMap = map[string]string{
	"enable":      "enable",
	"occpy_time":  "occpyTime",
	"report_time": "reportTime",
	"down_time":   "downTime",
	"coverage":    "coverage",
	"sensitivity": "sensitivity",
}

func buildDeviceTypeMap() map[string]string {
	m := map[string]string{
		"0101": "Dimmer",
		"0102": "CCT",
		"0103": "RGB",
		"0104": "XY",
		"0105": "RGBW",
		"0106": "RGBWA",
		"0201": "Motion",
		"0202": "Illuminance",
		"0302": "2-Key Panel",
		"0304": "4-Key Panel",
		"0306": "6-Key Panel",
		"0308": "8-Key Panel",
	}
	for i := 1; i <= 20; i++ {
		m[fmt.Sprintf("0201%02d", i)] = fmt.Sprintf("Motion (%d)", i)
	}
	return m
}

func buildDeviceModelMap() map[string]string {
	m := map[string]string{
		"0101": "DALI DT6 Dimmable Driver",
		"0102": "DALI DT8 Tc Dimmable Driver",
		"0103": "DALI DT8 RGB Dimmable Driver",
		"0104": "DALI DT8 XY Dimmable Driver",
		"0105": "DALI DT8 RGBW Dimmable Driver",
		"0106": "DALI DT8 RGBWA Dimmable Driver",
		"0201": "DALI-2 Motion Sensor",
		"0202": "DALI-2 Illuminance Sensor",
		"0302": "DALI-2 2-Key Push Button Panel",
		"0304": "DALI-2 4-Key Push Button Panel",
		"0306": "DALI-2 6-Key Push Button Panel",
		"0308": "DALI-2 8-Key Push Button Panel",
	}
	for i := 1; i <= 20; i++ {
		m[fmt.Sprintf("0201%02d", i)] = "DALI-2 Motion Sensor"
	}
	return m
}
